package wire

import (
	"fmt"
	"reflect"
)

// Codec handles the domain-specific custom types (tags >= TypeTagCustom)
// such as account addresses. Implementations return an error for values
// they do not recognise.
type Codec interface {
	Encode(o any) (TypeTag, []byte, error)
	Decode(tag TypeTag, b []byte) (any, error)
}

// ValueCodec converts between native Go values and TypedObj.
// The zero value is usable; without a custom codec every custom value is
// rejected with ErrUnsupportedType.
type ValueCodec struct {
	custom Codec
}

// NewValueCodec creates a ValueCodec delegating custom types to c (may be nil).
func NewValueCodec(c Codec) *ValueCodec {
	return &ValueCodec{custom: c}
}

// SetCodec replaces the injected codec.
func (vc *ValueCodec) SetCodec(c Codec) {
	vc.custom = c
}

// Encode produces the scalar byte form of o. The type tag of custom values is
// dropped; the protocol position tells the peer which type to expect.
func (vc *ValueCodec) Encode(o any) ([]byte, error) {
	if o == nil {
		return []byte{}, nil
	}
	switch v := o.(type) {
	case string:
		return []byte(v), nil
	case []byte:
		if v == nil {
			return []byte{}, nil
		}
		return v, nil
	}
	if i, ok := toBigInt(o); ok {
		return EncodeInt(i), nil
	}
	_, b, err := vc.encodeCustom(o)
	return b, err
}

// Decode converts scalar bytes of the expected tag into a native value.
func (vc *ValueCodec) Decode(tag TypeTag, b []byte) (any, error) {
	switch tag {
	case TypeTagBytes:
		return b, nil
	case TypeTagString:
		return string(b), nil
	case TypeTagInt:
		return DecodeInt(b), nil
	default:
		if vc.custom == nil {
			return nil, &UnsupportedTypeError{Type: tag.String()}
		}
		v, err := vc.custom.Decode(tag, b)
		if err != nil {
			return nil, &UnsupportedTypeError{Type: tag.String(), Err: err}
		}
		return v, nil
	}
}

// EncodeAny produces the structural (tagged) form of o, recursing into
// maps and slices. Any slice or array becomes a LIST and any map with
// string keys a DICT.
func (vc *ValueCodec) EncodeAny(o any) (TypedObj, error) {
	if o == nil {
		return Nil, nil
	}
	switch v := o.(type) {
	case TypedObj:
		return v, nil
	case *TypedObj:
		if v == nil {
			return Nil, nil
		}
		return *v, nil
	case map[string]any:
		m := make(map[string]TypedObj, len(v))
		for k, e := range v {
			eo, err := vc.EncodeAny(e)
			if err != nil {
				return TypedObj{}, fmt.Errorf("key %q: %w", k, err)
			}
			m[k] = eo
		}
		return TypedObj{Tag: TypeTagDict, Value: m}, nil
	case []any:
		l := make([]TypedObj, len(v))
		for i, e := range v {
			eo, err := vc.EncodeAny(e)
			if err != nil {
				return TypedObj{}, fmt.Errorf("index %d: %w", i, err)
			}
			l[i] = eo
		}
		return TypedObj{Tag: TypeTagList, Value: l}, nil
	case []byte:
		return TypedObj{Tag: TypeTagBytes, Value: v}, nil
	case string:
		return TypedObj{Tag: TypeTagString, Value: []byte(v)}, nil
	}
	if i, ok := toBigInt(o); ok {
		return TypedObj{Tag: TypeTagInt, Value: EncodeInt(i)}, nil
	}
	if obj, ok, err := vc.encodeContainer(o); ok {
		return obj, err
	}
	tag, b, err := vc.encodeCustom(o)
	if err != nil {
		return TypedObj{}, err
	}
	return TypedObj{Tag: tag, Value: b}, nil
}

// DecodeAny converts a TypedObj back into native values.
// Dicts become map[string]any and lists []any.
func (vc *ValueCodec) DecodeAny(o TypedObj) (any, error) {
	switch o.Tag {
	case TypeTagNil:
		return nil, nil
	case TypeTagDict:
		m, ok := o.Value.(map[string]TypedObj)
		if !ok && o.Value != nil {
			return nil, fmt.Errorf("%w: DICT holds %T", ErrInvalidFormat, o.Value)
		}
		out := make(map[string]any, len(m))
		for k, e := range m {
			v, err := vc.DecodeAny(e)
			if err != nil {
				return nil, fmt.Errorf("key %q: %w", k, err)
			}
			out[k] = v
		}
		return out, nil
	case TypeTagList:
		l, ok := o.Value.([]TypedObj)
		if !ok && o.Value != nil {
			return nil, fmt.Errorf("%w: LIST holds %T", ErrInvalidFormat, o.Value)
		}
		out := make([]any, len(l))
		for i, e := range l {
			v, err := vc.DecodeAny(e)
			if err != nil {
				return nil, fmt.Errorf("index %d: %w", i, err)
			}
			out[i] = v
		}
		return out, nil
	default:
		b, ok := o.Value.([]byte)
		if !ok && o.Value != nil {
			return nil, fmt.Errorf("%w: %s holds %T", ErrInvalidFormat, o.Tag, o.Value)
		}
		return vc.Decode(o.Tag, b)
	}
}

// encodeContainer handles typed slices, arrays and string-keyed maps.
// Byte slices of named types are BYTES; byte arrays are left to the
// injected codec since custom types such as addresses use them.
func (vc *ValueCodec) encodeContainer(o any) (TypedObj, bool, error) {
	rv := reflect.ValueOf(o)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			if rv.Kind() == reflect.Array {
				return TypedObj{}, false, nil
			}
			return TypedObj{Tag: TypeTagBytes, Value: append([]byte{}, rv.Bytes()...)}, true, nil
		}
		l := make([]TypedObj, rv.Len())
		for i := range l {
			eo, err := vc.EncodeAny(rv.Index(i).Interface())
			if err != nil {
				return TypedObj{}, true, fmt.Errorf("index %d: %w", i, err)
			}
			l[i] = eo
		}
		return TypedObj{Tag: TypeTagList, Value: l}, true, nil
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return TypedObj{}, false, nil
		}
		m := make(map[string]TypedObj, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			k := iter.Key().String()
			eo, err := vc.EncodeAny(iter.Value().Interface())
			if err != nil {
				return TypedObj{}, true, fmt.Errorf("key %q: %w", k, err)
			}
			m[k] = eo
		}
		return TypedObj{Tag: TypeTagDict, Value: m}, true, nil
	default:
		return TypedObj{}, false, nil
	}
}

func (vc *ValueCodec) encodeCustom(o any) (TypeTag, []byte, error) {
	if vc.custom == nil {
		return 0, nil, &UnsupportedTypeError{Type: fmt.Sprintf("%T", o)}
	}
	tag, b, err := vc.custom.Encode(o)
	if err != nil {
		return 0, nil, &UnsupportedTypeError{Type: fmt.Sprintf("%T", o), Err: err}
	}
	return tag, b, nil
}
