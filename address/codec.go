package address

import (
	"fmt"

	"github.com/machinefabric/eeproxy-go/wire"
)

// Codec is the wire.Codec for addresses. Install it on the proxy so
// INVOKE, CALL and GETBALANCE can carry addresses.
type Codec struct{}

var _ wire.Codec = Codec{}

// Encode handles *Address and Address values under TypeTagAddress.
func (Codec) Encode(o any) (wire.TypeTag, []byte, error) {
	switch a := o.(type) {
	case *Address:
		return wire.TypeTagAddress, a.Bytes(), nil
	case Address:
		return wire.TypeTagAddress, a.Bytes(), nil
	default:
		return 0, nil, fmt.Errorf("address codec: cannot encode %T", o)
	}
}

// Decode parses TypeTagAddress bytes; empty bytes give a nil *Address.
func (Codec) Decode(tag wire.TypeTag, b []byte) (any, error) {
	if tag != wire.TypeTagAddress {
		return nil, fmt.Errorf("address codec: unknown tag %s", tag)
	}
	return FromBytes(b)
}
