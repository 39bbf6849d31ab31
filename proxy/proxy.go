// Package proxy is the sandbox side of the service manager protocol.
//
// The service manager drives execution by sending INVOKE requests. While a
// request is being handled the sandbox may issue its own requests (CALL,
// GETVALUE, SETVALUE, ...) on the same connection. Nesting is strictly LIFO:
// an INVOKE arriving while a CALL waits for its RESULT is answered completely
// before the wait resumes. There are no correlation ids; message order is the
// call graph.
package proxy

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/big"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/machinefabric/eeproxy-go/ipc"
	"github.com/machinefabric/eeproxy-go/wire"
)

// Client is the transport the proxy talks through. *ipc.Client implements it.
type Client interface {
	Send(kind ipc.MessageKind, payload any) error
	Receive() (*ipc.Message, error)
	SendAndReceive(kind ipc.MessageKind, payload any) (*ipc.Message, error)
	Close() error
}

// Invocation is a decoded INVOKE request.
type Invocation struct {
	Code    string
	IsQuery bool
	From    any // decoded by the injected codec; nil-valued for deploys
	To      any
	Value   *big.Int
	Limit   *big.Int
	Method  string
	Params  wire.TypedObj
}

// InvokeResult is what an InvokeHandler reports back to the service manager.
type InvokeResult struct {
	Status   Status
	StepUsed *big.Int
	Result   any
}

// InvokeHandler executes a contract method.
// Returning an error (or panicking) makes the proxy answer with
// StatusSystemFailure and the whole step limit consumed.
type InvokeHandler func(inv *Invocation) (*InvokeResult, error)

// APIHandler describes the API of a contract.
type APIHandler func(code string) (any, error)

// CallResult is the RESULT of a CALL issued by the sandbox.
type CallResult struct {
	Status   Status
	StepUsed *big.Int
	Result   any
}

// ServiceManagerProxy is one connection to the service manager.
// It must be driven from a single goroutine.
type ServiceManagerProxy struct {
	client   Client
	codec    *wire.ValueCodec
	invoke   InvokeHandler
	getAPI   APIHandler
	readonly readonlyContext
	session  string
	log      zerolog.Logger
}

// New creates a proxy over an established client.
func New(client Client) *ServiceManagerProxy {
	session := uuid.NewString()
	return &ServiceManagerProxy{
		client:  client,
		codec:   wire.NewValueCodec(nil),
		session: session,
		log:     zerolog.Nop(),
	}
}

// Connect dials the service manager and wraps the connection.
func Connect(ctx context.Context, network, addr string, limits ipc.Limits) (*ServiceManagerProxy, error) {
	c, err := ipc.Dial(ctx, network, addr)
	if err != nil {
		return nil, err
	}
	c.SetLimits(limits)
	return New(c), nil
}

// SetLogger sets the logger; every line carries the connection's session id.
func (p *ServiceManagerProxy) SetLogger(l zerolog.Logger) {
	p.log = l.With().Str("session", p.session).Logger()
}

// SetInvokeHandler installs the callback that executes INVOKE requests.
func (p *ServiceManagerProxy) SetInvokeHandler(h InvokeHandler) {
	p.invoke = h
}

// SetAPIHandler installs the callback that answers GETAPI requests.
func (p *ServiceManagerProxy) SetAPIHandler(h APIHandler) {
	p.getAPI = h
}

// SetCodec installs the codec for custom types such as addresses.
func (p *ServiceManagerProxy) SetCodec(c wire.Codec) {
	p.codec.SetCodec(c)
}

// Codec returns the value codec used for every payload.
func (p *ServiceManagerProxy) Codec() *wire.ValueCodec {
	return p.codec
}

// Session returns the id used to tag this connection's log lines.
func (p *ServiceManagerProxy) Session() string {
	return p.session
}

// IsReadonly reports whether the call currently executing is a query.
func (p *ServiceManagerProxy) IsReadonly() bool {
	return p.readonly.isReadonly()
}

// Close closes the connection.
func (p *ServiceManagerProxy) Close() error {
	return p.client.Close()
}

// SendVersion announces the sandbox to the service manager.
func (p *ServiceManagerProxy) SendVersion(version uint16, pid int, name string) error {
	p.log.Debug().Uint16("version", version).Int("pid", pid).Str("name", name).Msg("VERSION")
	return p.client.Send(ipc.MessageVersion, &versionMessage{
		Version: version,
		PID:     pid,
		Name:    name,
	})
}

// Loop serves requests until the service manager closes the connection or
// sends CLOSE. Any message other than INVOKE or GETAPI is a protocol violation.
func (p *ServiceManagerProxy) Loop() error {
	for {
		msg, err := p.client.Receive()
		if err != nil {
			if errors.Is(err, io.EOF) {
				p.log.Debug().Msg("connection closed by peer")
				return nil
			}
			return err
		}

		switch msg.Kind {
		case ipc.MessageInvoke:
			if err := p.handleInvoke(msg); err != nil {
				return err
			}
		case ipc.MessageGetAPI:
			if err := p.handleGetAPI(msg); err != nil {
				return err
			}
		case ipc.MessageClose:
			p.log.Debug().Msg("CLOSE")
			return nil
		default:
			p.log.Error().Stringer("kind", msg.Kind).Msg("unexpected message in loop")
			return &InvalidMessageError{Got: msg.Kind, Expected: ipc.MessageInvoke}
		}
	}
}

// Call executes another contract through the service manager. Requests the
// service manager sends before the RESULT (nested INVOKEs) are served first.
// params is sent as is; nil sends a Nil value.
func (p *ServiceManagerProxy) Call(to any, value, limit *big.Int, method string, params *wire.TypedObj) (*CallResult, error) {
	toBytes, err := p.codec.Encode(to)
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", method, err)
	}
	m := &callMessage{
		To:     toBytes,
		Value:  wire.EncodeInt(value),
		Limit:  wire.EncodeInt(limit),
		Method: []byte(method),
		Params: wire.Nil,
	}
	if params != nil {
		m.Params = *params
	}

	p.log.Trace().Str("to", fmt.Sprint(to)).Stringer("value", value).Stringer("limit", limit).Str("method", method).Msg("CALL")
	if err := p.client.Send(ipc.MessageCall, m); err != nil {
		return nil, err
	}

	for {
		msg, err := p.client.Receive()
		if err != nil {
			return nil, fmt.Errorf("call %s: %w", method, err)
		}
		switch msg.Kind {
		case ipc.MessageInvoke:
			if err := p.handleInvoke(msg); err != nil {
				return nil, err
			}
		case ipc.MessageResult:
			var r resultMessage
			if err := msg.Unmarshal(&r); err != nil {
				return nil, err
			}
			result, err := p.codec.DecodeAny(r.Result)
			if err != nil {
				return nil, fmt.Errorf("call %s: result: %w", method, err)
			}
			steps := wire.DecodeInt(r.StepUsed)
			p.log.Trace().Stringer("status", r.Status).Stringer("steps", steps).Msg("CALL RESULT")
			return &CallResult{Status: r.Status, StepUsed: steps, Result: result}, nil
		default:
			return nil, &InvalidMessageError{Got: msg.Kind, Expected: ipc.MessageResult}
		}
	}
}

// GetValue reads a state value. A nil slice means the key is absent.
func (p *ServiceManagerProxy) GetValue(key []byte) ([]byte, error) {
	msg, err := p.request(ipc.MessageGetValue, nonNil(key))
	if err != nil {
		return nil, err
	}
	var r getValueReply
	if err := msg.Unmarshal(&r); err != nil {
		return nil, err
	}
	p.log.Trace().Hex("key", key).Bool("found", r.Found).Msg("GETVALUE")
	if !r.Found {
		return nil, nil
	}
	return nonNil(r.Value), nil
}

// SetValue writes a state value; a nil value deletes the key.
// Fails with ErrWriteDenied during a query.
func (p *ServiceManagerProxy) SetValue(key, value []byte) error {
	if p.readonly.isReadonly() {
		return ErrWriteDenied
	}
	m := &setValueMessage{Key: nonNil(key), IsDelete: value == nil, Value: nonNil(value)}
	p.log.Trace().Hex("key", key).Bool("delete", m.IsDelete).Msg("SETVALUE")
	return p.client.Send(ipc.MessageSetValue, m)
}

// DeleteValue removes a state value.
func (p *ServiceManagerProxy) DeleteValue(key []byte) error {
	return p.SetValue(key, nil)
}

// GetInfo returns the execution context information (block, transaction,
// step costs) provided by the service manager.
func (p *ServiceManagerProxy) GetInfo() (any, error) {
	msg, err := p.request(ipc.MessageGetInfo, []byte{})
	if err != nil {
		return nil, err
	}
	var o wire.TypedObj
	if err := msg.Unmarshal(&o); err != nil {
		return nil, err
	}
	return p.codec.DecodeAny(o)
}

// GetBalance returns the balance of addr.
func (p *ServiceManagerProxy) GetBalance(addr any) (*big.Int, error) {
	b, err := p.codec.Encode(addr)
	if err != nil {
		return nil, fmt.Errorf("get balance: %w", err)
	}
	msg, err := p.request(ipc.MessageGetBalance, b)
	if err != nil {
		return nil, err
	}
	var v []byte
	if err := msg.Unmarshal(&v); err != nil {
		return nil, err
	}
	return wire.DecodeInt(v), nil
}

// SendEvent emits an event log. It is silently dropped during a query.
func (p *ServiceManagerProxy) SendEvent(indexed, data []any) error {
	if p.readonly.isReadonly() {
		p.log.Debug().Msg("EVENT suppressed in readonly context")
		return nil
	}
	m := &eventMessage{Indexed: make([][]byte, len(indexed)), Data: make([][]byte, len(data))}
	for i, v := range indexed {
		b, err := p.codec.Encode(v)
		if err != nil {
			return fmt.Errorf("event indexed[%d]: %w", i, err)
		}
		m.Indexed[i] = b
	}
	for i, v := range data {
		b, err := p.codec.Encode(v)
		if err != nil {
			return fmt.Errorf("event data[%d]: %w", i, err)
		}
		m.Data[i] = b
	}
	return p.client.Send(ipc.MessageEvent, m)
}

// SendLog forwards a log line to the service manager.
func (p *ServiceManagerProxy) SendLog(level LogLevel, message string) error {
	return p.client.Send(ipc.MessageLog, &logMessage{Level: level, Message: message})
}

// request sends one message and requires a reply of the same kind.
func (p *ServiceManagerProxy) request(kind ipc.MessageKind, payload any) (*ipc.Message, error) {
	msg, err := p.client.SendAndReceive(kind, payload)
	if err != nil {
		return nil, err
	}
	if msg.Kind != kind {
		p.log.Error().Stringer("kind", msg.Kind).Stringer("expected", kind).Msg("unexpected reply")
		return nil, &InvalidMessageError{Got: msg.Kind, Expected: kind}
	}
	return msg, nil
}
