package wire

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// TypedObj is the tagged wire value. Value holds:
//   - nil for TypeTagNil
//   - map[string]TypedObj for TypeTagDict
//   - []TypedObj for TypeTagList
//   - []byte for every other tag
//
// On the wire it is the CBOR array [tag, value].
type TypedObj struct {
	Tag   TypeTag
	Value any
}

// Nil is the encoded form of an absent value.
var Nil = TypedObj{Tag: TypeTagNil}

// NewBytes wraps raw bytes under the given scalar tag.
func NewBytes(tag TypeTag, b []byte) TypedObj {
	return TypedObj{Tag: tag, Value: b}
}

// Bytes returns the scalar payload, nil for structural variants.
func (o TypedObj) Bytes() []byte {
	b, _ := o.Value.([]byte)
	return b
}

// IsNil reports whether o encodes an absent value.
func (o TypedObj) IsNil() bool {
	return o.Tag == TypeTagNil
}

type typedObjWire struct {
	_     struct{} `cbor:",toarray"`
	Tag   uint64
	Value cbor.RawMessage
}

// decMode decodes byte-string map keys as cbor.ByteString so dictionaries
// built by peers that use binary keys still decode.
var decMode, _ = cbor.DecOptions{
	MapKeyByteString: cbor.MapKeyByteStringAllowed,
}.DecMode()

// MarshalCBOR implements cbor.Marshaler
func (o TypedObj) MarshalCBOR() ([]byte, error) {
	var value any
	switch o.Tag {
	case TypeTagNil:
		value = []byte{}
	case TypeTagDict:
		m, ok := o.Value.(map[string]TypedObj)
		if !ok && o.Value != nil {
			return nil, fmt.Errorf("%w: DICT holds %T", ErrInvalidFormat, o.Value)
		}
		if m == nil {
			m = map[string]TypedObj{}
		}
		value = m
	case TypeTagList:
		l, ok := o.Value.([]TypedObj)
		if !ok && o.Value != nil {
			return nil, fmt.Errorf("%w: LIST holds %T", ErrInvalidFormat, o.Value)
		}
		if l == nil {
			l = []TypedObj{}
		}
		value = l
	default:
		b, ok := o.Value.([]byte)
		if !ok && o.Value != nil {
			return nil, fmt.Errorf("%w: %s holds %T", ErrInvalidFormat, o.Tag, o.Value)
		}
		if b == nil {
			b = []byte{}
		}
		value = b
	}
	return cbor.Marshal([]any{uint64(o.Tag), value})
}

// UnmarshalCBOR implements cbor.Unmarshaler
func (o *TypedObj) UnmarshalCBOR(data []byte) error {
	var w typedObjWire
	if err := decMode.Unmarshal(data, &w); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}

	o.Tag = TypeTag(w.Tag)
	switch o.Tag {
	case TypeTagNil:
		o.Value = nil

	case TypeTagDict:
		var raw map[any]cbor.RawMessage
		if err := decMode.Unmarshal(w.Value, &raw); err != nil {
			return fmt.Errorf("%w: DICT: %v", ErrInvalidFormat, err)
		}
		m := make(map[string]TypedObj, len(raw))
		for k, v := range raw {
			var key string
			switch kv := k.(type) {
			case string:
				key = kv
			case cbor.ByteString:
				key = string(kv)
			default:
				return fmt.Errorf("%w: DICT key of type %T", ErrInvalidFormat, k)
			}
			var child TypedObj
			if err := child.UnmarshalCBOR(v); err != nil {
				return err
			}
			m[key] = child
		}
		o.Value = m

	case TypeTagList:
		var raw []cbor.RawMessage
		if err := decMode.Unmarshal(w.Value, &raw); err != nil {
			return fmt.Errorf("%w: LIST: %v", ErrInvalidFormat, err)
		}
		l := make([]TypedObj, len(raw))
		for i, v := range raw {
			if err := l[i].UnmarshalCBOR(v); err != nil {
				return err
			}
		}
		o.Value = l

	default:
		var v any
		if err := decMode.Unmarshal(w.Value, &v); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrInvalidFormat, o.Tag, err)
		}
		switch b := v.(type) {
		case []byte:
			o.Value = b
		case string:
			o.Value = []byte(b)
		case nil:
			o.Value = []byte{}
		default:
			return fmt.Errorf("%w: %s payload of type %T", ErrInvalidFormat, o.Tag, v)
		}
	}
	return nil
}
