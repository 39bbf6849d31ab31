package wire

import (
	"fmt"
	"math/big"
)

// EncodeInt converts v to the byte form used by the host's big.Int codec:
// minimal big-endian two's complement, with zero encoded as an empty buffer.
// A leading sign byte is added whenever the top bit would otherwise flip the sign
// (255 encodes as 0x00 0xFF).
func EncodeInt(v *big.Int) []byte {
	if v == nil || v.Sign() == 0 {
		return []byte{}
	}

	// For negative v the magnitude that decides the width is -(v+1),
	// whose bitwise complement is the two's complement form of v.
	x := new(big.Int).Set(v)
	negative := v.Sign() < 0
	if negative {
		x.Add(x, bigOne)
		x.Neg(x)
	}

	n := (x.BitLen() + 8) / 8
	buf := make([]byte, n)
	x.FillBytes(buf)
	if negative {
		for i := range buf {
			buf[i] = ^buf[i]
		}
	}
	return buf
}

// DecodeInt interprets bs as big-endian two's complement.
// The empty buffer decodes to zero.
func DecodeInt(bs []byte) *big.Int {
	if len(bs) == 0 {
		return new(big.Int)
	}
	if bs[0]&0x80 == 0 {
		return new(big.Int).SetBytes(bs)
	}

	inv := make([]byte, len(bs))
	for i, b := range bs {
		inv[i] = ^b
	}
	v := new(big.Int).SetBytes(inv)
	v.Neg(v)
	return v.Sub(v, bigOne)
}

var bigOne = big.NewInt(1)

// toBigInt converts native integer kinds. ok is false for non-integers.
// Booleans count as integers 1 and 0, which is how the host sees them.
func toBigInt(o any) (*big.Int, bool) {
	switch v := o.(type) {
	case *big.Int:
		if v == nil {
			return new(big.Int), true
		}
		return v, true
	case big.Int:
		return &v, true
	case int:
		return big.NewInt(int64(v)), true
	case int8:
		return big.NewInt(int64(v)), true
	case int16:
		return big.NewInt(int64(v)), true
	case int32:
		return big.NewInt(int64(v)), true
	case int64:
		return big.NewInt(v), true
	case uint:
		return new(big.Int).SetUint64(uint64(v)), true
	case uint8:
		return new(big.Int).SetUint64(uint64(v)), true
	case uint16:
		return new(big.Int).SetUint64(uint64(v)), true
	case uint32:
		return new(big.Int).SetUint64(uint64(v)), true
	case uint64:
		return new(big.Int).SetUint64(v), true
	case bool:
		if v {
			return big.NewInt(1), true
		}
		return new(big.Int), true
	default:
		return nil, false
	}
}

// MustParseInt parses a base-prefixed integer literal ("0x1f", "-12", "0b101").
// It panics on malformed input and is meant for constants and tests.
func MustParseInt(s string) *big.Int {
	v, ok := new(big.Int).SetString(s, 0)
	if !ok {
		panic(fmt.Sprintf("wire: invalid integer literal %q", s))
	}
	return v
}
