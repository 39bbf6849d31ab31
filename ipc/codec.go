package ipc

import (
	"errors"
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// Message is one decoded frame body. Data stays raw until the receiver knows
// which payload shape to expect.
type Message struct {
	Kind MessageKind
	Data cbor.RawMessage
}

// message body layout: [kind, payload]
type messageWire struct {
	_    struct{} `cbor:",toarray"`
	Kind uint64
	Data cbor.RawMessage
}

// Map keys are sorted so identical messages always produce identical frames.
var encMode cbor.EncMode

func init() {
	var err error
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic(err)
	}
}

// EncodeMessage encodes a message body to CBOR.
// payload is any CBOR-marshalable value; nil is sent as CBOR null.
func EncodeMessage(kind MessageKind, payload any) ([]byte, error) {
	data, err := encMode.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode %s payload: %w", kind, err)
	}
	return encMode.Marshal(messageWire{Kind: uint64(kind), Data: data})
}

// DecodeMessage decodes a CBOR message body
func DecodeMessage(data []byte) (*Message, error) {
	var w messageWire
	if err := cbor.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("decode message: %w", err)
	}
	if len(w.Data) == 0 {
		return nil, errors.New("decode message: missing payload")
	}
	return &Message{Kind: MessageKind(w.Kind), Data: w.Data}, nil
}

// Unmarshal decodes the payload into v.
func (m *Message) Unmarshal(v any) error {
	if err := cbor.Unmarshal(m.Data, v); err != nil {
		return fmt.Errorf("decode %s payload: %w", m.Kind, err)
	}
	return nil
}
