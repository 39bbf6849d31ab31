// Package wire implements the tagged value representation exchanged with the
// service manager, including the big-integer byte codec shared with the host.
package wire

import "fmt"

// TypeTag discriminates the variant of a TypedObj.
// Values MUST match the host's tag space.
type TypeTag uint

const (
	TypeTagNil    TypeTag = 0
	TypeTagDict   TypeTag = 1
	TypeTagList   TypeTag = 2
	TypeTagBytes  TypeTag = 3
	TypeTagString TypeTag = 4

	// TypeTagCustom is the first tag owned by the injected codec.
	TypeTagCustom  TypeTag = 10
	TypeTagInt     TypeTag = TypeTagCustom + 1
	TypeTagAddress TypeTag = TypeTagCustom
)

// String returns the tag name
func (t TypeTag) String() string {
	switch t {
	case TypeTagNil:
		return "NIL"
	case TypeTagDict:
		return "DICT"
	case TypeTagList:
		return "LIST"
	case TypeTagBytes:
		return "BYTES"
	case TypeTagString:
		return "STRING"
	case TypeTagAddress:
		return "ADDRESS"
	case TypeTagInt:
		return "INT"
	default:
		if t > TypeTagCustom {
			return fmt.Sprintf("CUSTOM(%d)", t)
		}
		return fmt.Sprintf("UNKNOWN(%d)", t)
	}
}

// IsCustom reports whether values with this tag are handled by the injected codec.
func (t TypeTag) IsCustom() bool {
	return t >= TypeTagCustom && t != TypeTagInt
}
