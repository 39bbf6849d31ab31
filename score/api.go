package score

import (
	"fmt"
	"sort"
)

// API describes the methods of the contract deployed under code, in the
// shape GETAPI replies carry: a list of method descriptors.
func (r *Registry) API(code string) (any, error) {
	c := r.Lookup(code)
	if c == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownContract, code)
	}

	names := make([]string, 0, len(c.Methods))
	for name := range c.Methods {
		names = append(names, name)
	}
	sort.Strings(names)

	api := make([]any, 0, len(names))
	for _, name := range names {
		api = append(api, c.Methods[name].descriptor(name))
	}
	return api, nil
}

func (m *Method) descriptor(name string) map[string]any {
	typ := "function"
	if name == FallbackMethod {
		typ = "fallback"
	}
	inputs := make([]any, 0, len(m.Inputs))
	for _, p := range m.Inputs {
		in := map[string]any{"name": p.Name, "type": p.Type}
		if p.Optional {
			in["optional"] = "0x1"
		}
		inputs = append(inputs, in)
	}
	outputs := []any{}
	if m.Output != "" {
		outputs = append(outputs, map[string]any{"type": m.Output})
	}

	d := map[string]any{
		"name":    name,
		"type":    typ,
		"inputs":  inputs,
		"outputs": outputs,
	}
	if m.Readonly {
		d["readonly"] = "0x1"
	}
	if m.Payable {
		d["payable"] = "0x1"
	}
	return d
}
