package score

import (
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/machinefabric/eeproxy-go/address"
)

// ParamsError reports params rejected by a method's schema.
type ParamsError struct {
	Method  string
	Details []string
}

// Error implements error.
func (e *ParamsError) Error() string {
	return fmt.Sprintf("invalid params for %s: %s", e.Method, strings.Join(e.Details, "; "))
}

// Params are validated in their JSON form: integers become decimal
// strings, bytes 0x-prefixed hex and anything with a String method
// (addresses) its text form.
var paramTypeSchemas = map[string]map[string]any{
	"int":     {"type": "string", "pattern": "^-?[0-9]+$"},
	"str":     {"type": "string"},
	"bytes":   {"type": "string", "pattern": "^0x([0-9a-f]{2})*$"},
	"bool":    {"type": "string", "pattern": "^[01]$"},
	"Address": {"type": "string", "pattern": "^(hx|cx)[0-9a-f]{40}$"},
}

// inputsSchema derives an object schema from the declared inputs.
func inputsSchema(inputs []Param) (map[string]any, error) {
	props := make(map[string]any, len(inputs))
	var required []any
	for _, p := range inputs {
		s, ok := paramTypeSchemas[p.Type]
		if !ok {
			return nil, fmt.Errorf("input %s: unknown type %q", p.Name, p.Type)
		}
		props[p.Name] = s
		if !p.Optional {
			required = append(required, p.Name)
		}
	}
	schema := map[string]any{
		"type":                 "object",
		"properties":           props,
		"additionalProperties": false,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema, nil
}

func compileSchema(m *Method) (*gojsonschema.Schema, error) {
	schema := m.ParamsSchema
	if schema == nil {
		var err error
		if schema, err = inputsSchema(m.Inputs); err != nil {
			return nil, err
		}
	}
	s, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(schema))
	if err != nil {
		return nil, fmt.Errorf("compile params schema: %w", err)
	}
	return s, nil
}

// checkParamTypes requires each declared input to have arrived under the
// matching wire tag: the string form alone cannot tell "123" from 123.
func checkParamTypes(m *Method, params map[string]any) error {
	var details []string
	for _, p := range m.Inputs {
		v, ok := params[p.Name]
		if !ok {
			continue
		}
		if !hasParamType(p.Type, v) {
			details = append(details, fmt.Sprintf("%s: expected %s, got %T", p.Name, p.Type, v))
		}
	}
	if len(details) > 0 {
		return &ParamsError{Method: m.Name, Details: details}
	}
	return nil
}

func hasParamType(typ string, v any) bool {
	switch typ {
	case "int":
		_, ok := v.(*big.Int)
		return ok
	case "bool":
		b, ok := v.(*big.Int)
		return ok && (b.Sign() == 0 || b.Cmp(big.NewInt(1)) == 0)
	case "str":
		_, ok := v.(string)
		return ok
	case "bytes":
		_, ok := v.([]byte)
		return ok
	case "Address":
		a, ok := v.(*address.Address)
		return ok && a != nil
	default:
		return false
	}
}

func validateParams(m *Method, params map[string]any) error {
	if err := checkParamTypes(m, params); err != nil {
		return err
	}
	result, err := m.schema.Validate(gojsonschema.NewGoLoader(jsonValue(params)))
	if err != nil {
		return fmt.Errorf("validate params for %s: %w", m.Name, err)
	}
	if result.Valid() {
		return nil
	}
	details := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		details = append(details, desc.String())
	}
	return &ParamsError{Method: m.Name, Details: details}
}

// jsonValue converts decoded wire values into their JSON form.
func jsonValue(v any) any {
	switch t := v.(type) {
	case nil:
		return nil
	case *big.Int:
		return t.String()
	case []byte:
		return "0x" + hex.EncodeToString(t)
	case string:
		return t
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = jsonValue(e)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = jsonValue(e)
		}
		return out
	case fmt.Stringer:
		return t.String()
	default:
		return fmt.Sprint(t)
	}
}
