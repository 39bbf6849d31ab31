// Package score binds Go contract implementations to the proxy callbacks.
//
// A Registry maps contract code ids to Contracts. Its Invoke and API methods
// have the signatures of proxy.InvokeHandler and proxy.APIHandler.
package score

import (
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/rs/zerolog"
	"github.com/xeipuuv/gojsonschema"

	"github.com/machinefabric/eeproxy-go/proxy"
	"github.com/machinefabric/eeproxy-go/wire"
)

// FallbackMethod handles invocations with an empty method name.
const FallbackMethod = "fallback"

// ErrUnknownContract is returned by API for codes with no registered contract.
var ErrUnknownContract = errors.New("score: unknown contract")

// Host is what contract code may ask of the service manager.
// *proxy.ServiceManagerProxy implements it.
type Host interface {
	Call(to any, value, limit *big.Int, method string, params *wire.TypedObj) (*proxy.CallResult, error)
	GetValue(key []byte) ([]byte, error)
	SetValue(key, value []byte) error
	DeleteValue(key []byte) error
	GetBalance(addr any) (*big.Int, error)
	GetInfo() (any, error)
	SendEvent(indexed, data []any) error
	SendLog(level proxy.LogLevel, message string) error
	IsReadonly() bool
	Codec() *wire.ValueCodec
}

// Context is the execution context handed to a method.
type Context struct {
	Code    string
	From    any
	To      any
	Value   *big.Int
	Limit   *big.Int
	IsQuery bool
	Host    Host
}

// HandlerFunc implements a contract method. A returned error becomes a
// UserFailure result carrying the error message.
type HandlerFunc func(ctx *Context, params map[string]any) (any, error)

// Param describes one method input. Type is one of "int", "str", "bytes",
// "bool" or "Address". Handlers receive *big.Int for int and bool, string,
// []byte and *address.Address respectively.
type Param struct {
	Name     string
	Type     string
	Optional bool
}

// Method is one callable entry point of a contract.
type Method struct {
	Name     string
	Readonly bool
	Payable  bool
	StepCost int64
	Inputs   []Param
	Output   string
	// ParamsSchema overrides the JSON schema derived from Inputs.
	ParamsSchema map[string]any
	Handler      HandlerFunc

	schema *gojsonschema.Schema
}

// Contract is a named set of methods.
type Contract struct {
	Name    string
	Methods map[string]*Method
}

// Registry holds the deployed contracts.
type Registry struct {
	host      Host
	contracts map[string]*Contract
	mu        sync.RWMutex
	log       zerolog.Logger
}

// NewRegistry creates an empty registry whose contracts run against host.
func NewRegistry(host Host) *Registry {
	return &Registry{
		host:      host,
		contracts: make(map[string]*Contract),
		log:       zerolog.Nop(),
	}
}

// SetLogger sets the logger used for status mapping diagnostics.
func (r *Registry) SetLogger(l zerolog.Logger) {
	r.log = l
}

// Register deploys c under code. Parameter schemas are compiled here so a
// bad schema fails at registration rather than on first use.
func (r *Registry) Register(code string, c *Contract) error {
	for name, m := range c.Methods {
		if m.Handler == nil {
			return fmt.Errorf("register %s: method %s has no handler", code, name)
		}
		if m.Name == "" {
			m.Name = name
		}
		s, err := compileSchema(m)
		if err != nil {
			return fmt.Errorf("register %s: method %s: %w", code, name, err)
		}
		m.schema = s
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.contracts[code] = c
	return nil
}

// Lookup finds the contract deployed under code.
func (r *Registry) Lookup(code string) *Contract {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.contracts[code]
}

// Invoke runs the requested method. Every outcome of the contract itself is
// reported as a status; the error return is reserved for internal failures.
func (r *Registry) Invoke(inv *proxy.Invocation) (*proxy.InvokeResult, error) {
	limit := inv.Limit
	if limit == nil {
		limit = new(big.Int)
	}

	c := r.Lookup(inv.Code)
	if c == nil {
		return r.fail(inv, proxy.StatusContractNotFound, "contract not found: "+inv.Code), nil
	}

	name := inv.Method
	if name == "" {
		name = FallbackMethod
	}
	m, ok := c.Methods[name]
	if !ok {
		return r.fail(inv, proxy.StatusMethodNotFound, "method not found: "+name), nil
	}
	if inv.IsQuery && !m.Readonly {
		return r.fail(inv, proxy.StatusAccessDenied, "write method called as query: "+name), nil
	}
	if inv.Value != nil && inv.Value.Sign() != 0 && !m.Payable {
		return r.fail(inv, proxy.StatusMethodNotPayable, "method not payable: "+name), nil
	}

	params, err := r.decodeParams(inv.Params)
	if err == nil {
		err = validateParams(m, params)
	}
	if err != nil {
		return r.fail(inv, proxy.StatusInvalidParameter, err.Error()), nil
	}

	cost := big.NewInt(m.StepCost)
	if cost.Cmp(limit) > 0 {
		r.log.Debug().Str("method", name).Int64("cost", m.StepCost).Stringer("limit", limit).Msg("out of step")
		return &proxy.InvokeResult{Status: proxy.StatusOutOfStep, StepUsed: limit, Result: "out of step"}, nil
	}

	ctx := &Context{
		Code:    inv.Code,
		From:    inv.From,
		To:      inv.To,
		Value:   inv.Value,
		Limit:   limit,
		IsQuery: inv.IsQuery,
		Host:    r.host,
	}
	result, err := m.Handler(ctx, params)
	if err != nil {
		r.log.Debug().Err(err).Str("method", name).Msg("user failure")
		return &proxy.InvokeResult{Status: proxy.StatusUserFailure, StepUsed: cost, Result: err.Error()}, nil
	}
	return &proxy.InvokeResult{Status: proxy.StatusSuccess, StepUsed: cost, Result: result}, nil
}

func (r *Registry) fail(inv *proxy.Invocation, status proxy.Status, msg string) *proxy.InvokeResult {
	r.log.Debug().Str("code", inv.Code).Str("method", inv.Method).Stringer("status", status).Msg(msg)
	return &proxy.InvokeResult{Status: status, StepUsed: new(big.Int), Result: msg}
}

func (r *Registry) decodeParams(o wire.TypedObj) (map[string]any, error) {
	if o.IsNil() {
		return map[string]any{}, nil
	}
	if o.Tag != wire.TypeTagDict {
		return nil, fmt.Errorf("params must be a dict, got %s", o.Tag)
	}
	v, err := r.host.Codec().DecodeAny(o)
	if err != nil {
		return nil, fmt.Errorf("params: %w", err)
	}
	return v.(map[string]any), nil
}
