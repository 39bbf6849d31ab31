package proxy

import (
	"fmt"
	"math/big"

	"github.com/fxamacker/cbor/v2"

	"github.com/machinefabric/eeproxy-go/ipc"
	"github.com/machinefabric/eeproxy-go/wire"
)

// handleInvoke serves one INVOKE. Exactly one RESULT is sent whatever the
// handler does; the returned error is a transport failure only.
func (p *ServiceManagerProxy) handleInvoke(msg *ipc.Message) error {
	var m invokeMessage
	if err := msg.Unmarshal(&m); err != nil {
		limit := salvageLimit(msg)
		p.log.Error().Err(err).Stringer("limit", limit).Msg("undecodable INVOKE")
		return p.sendFailure(limit)
	}

	limit := wire.DecodeInt(m.Limit)
	inv, err := p.decodeInvocation(&m, limit)
	if err != nil {
		p.log.Warn().Err(err).Msg("INVOKE decode failed")
		return p.sendFailure(limit)
	}

	release := p.readonly.push(inv.IsQuery)
	defer release()

	p.log.Trace().
		Str("code", inv.Code).
		Bool("query", inv.IsQuery).
		Str("from", fmt.Sprint(inv.From)).
		Str("to", fmt.Sprint(inv.To)).
		Stringer("value", inv.Value).
		Stringer("limit", limit).
		Str("method", inv.Method).
		Int("depth", p.readonly.depth()).
		Msg("INVOKE")

	res, err := p.invokeSafely(inv)
	if err != nil {
		p.log.Warn().Err(err).Str("method", inv.Method).Msg("invoke handler failed")
		return p.sendFailure(limit)
	}

	result, err := p.codec.EncodeAny(res.Result)
	if err != nil {
		p.log.Warn().Err(err).Str("method", inv.Method).Msg("invoke result not encodable")
		return p.sendFailure(limit)
	}

	p.log.Trace().Stringer("status", res.Status).Stringer("steps", res.StepUsed).Msg("RESULT")
	return p.client.Send(ipc.MessageResult, &resultMessage{
		Status:   res.Status,
		StepUsed: wire.EncodeInt(res.StepUsed),
		Result:   result,
	})
}

// salvageLimit reads only the step limit of an INVOKE whose other fields
// failed to decode. Zero when even that is unreadable.
func salvageLimit(msg *ipc.Message) *big.Int {
	var fields []cbor.RawMessage
	if err := msg.Unmarshal(&fields); err != nil || len(fields) <= invokeLimitField {
		return new(big.Int)
	}
	var b []byte
	if err := cbor.Unmarshal(fields[invokeLimitField], &b); err != nil {
		return new(big.Int)
	}
	return wire.DecodeInt(b)
}

func (p *ServiceManagerProxy) decodeInvocation(m *invokeMessage, limit *big.Int) (*Invocation, error) {
	from, err := p.codec.Decode(wire.TypeTagAddress, m.From)
	if err != nil {
		return nil, fmt.Errorf("from: %w", err)
	}
	to, err := p.codec.Decode(wire.TypeTagAddress, m.To)
	if err != nil {
		return nil, fmt.Errorf("to: %w", err)
	}
	return &Invocation{
		Code:    string(m.Code),
		IsQuery: m.IsQuery,
		From:    from,
		To:      to,
		Value:   wire.DecodeInt(m.Value),
		Limit:   limit,
		Method:  string(m.Method),
		Params:  m.Params,
	}, nil
}

// invokeSafely turns handler errors, panics and missing results into an error.
func (p *ServiceManagerProxy) invokeSafely(inv *Invocation) (res *InvokeResult, err error) {
	if p.invoke == nil {
		return nil, fmt.Errorf("%w for INVOKE", ErrNoHandler)
	}
	defer func() {
		if r := recover(); r != nil {
			res, err = nil, fmt.Errorf("invoke handler panic: %v", r)
		}
	}()
	res, err = p.invoke(inv)
	if err == nil && res == nil {
		err = fmt.Errorf("invoke handler returned no result")
	}
	return res, err
}

// sendFailure reports SYSTEM_FAILURE with the whole limit consumed.
func (p *ServiceManagerProxy) sendFailure(limit *big.Int) error {
	return p.client.Send(ipc.MessageResult, &resultMessage{
		Status:   StatusSystemFailure,
		StepUsed: wire.EncodeInt(limit),
		Result:   wire.Nil,
	})
}

// handleGetAPI answers GETAPI. Failures are not reported as such: the reply
// is a Nil value, since the reply has no status field.
func (p *ServiceManagerProxy) handleGetAPI(msg *ipc.Message) error {
	var code []byte
	if err := msg.Unmarshal(&code); err != nil {
		p.log.Warn().Err(err).Msg("undecodable GETAPI")
		return p.client.Send(ipc.MessageGetAPI, wire.Nil)
	}

	info, err := p.apiSafely(string(code))
	obj := wire.Nil
	if err == nil {
		obj, err = p.codec.EncodeAny(info)
	}
	if err != nil {
		p.log.Warn().Err(err).Str("code", string(code)).Msg("GETAPI failed")
		obj = wire.Nil
	}
	return p.client.Send(ipc.MessageGetAPI, obj)
}

func (p *ServiceManagerProxy) apiSafely(code string) (info any, err error) {
	if p.getAPI == nil {
		return nil, fmt.Errorf("%w for GETAPI", ErrNoHandler)
	}
	defer func() {
		if r := recover(); r != nil {
			info, err = nil, fmt.Errorf("api handler panic: %v", r)
		}
	}()
	return p.getAPI(code)
}
