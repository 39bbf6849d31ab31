// Package address implements the account address custom type and the codec
// that carries it under wire.TypeTagAddress.
package address

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

const (
	// IDLength is the length of the account id following the kind byte.
	IDLength = 20
	// Length is the length of the binary form.
	Length = IDLength + 1
)

const (
	prefixEOA      = "hx"
	prefixContract = "cx"
)

// ErrInvalidAddress reports an address that is neither 21 bytes nor hx/cx text.
var ErrInvalidAddress = errors.New("address: invalid address")

// Address is an account address: a kind byte (0 for external accounts,
// 1 for contracts) followed by a 20 byte id.
type Address [Length]byte

// New builds an address from its id.
func New(id []byte, isContract bool) (*Address, error) {
	if len(id) != IDLength {
		return nil, fmt.Errorf("%w: id must be %d bytes, got %d", ErrInvalidAddress, IDLength, len(id))
	}
	a := new(Address)
	if isContract {
		a[0] = 1
	}
	copy(a[1:], id)
	return a, nil
}

// FromBytes parses the binary form. Empty input yields a nil address.
func FromBytes(b []byte) (*Address, error) {
	if len(b) == 0 {
		return nil, nil
	}
	if len(b) != Length {
		return nil, fmt.Errorf("%w: expected %d bytes, got %d", ErrInvalidAddress, Length, len(b))
	}
	if b[0] > 1 {
		return nil, fmt.Errorf("%w: unknown kind byte 0x%02x", ErrInvalidAddress, b[0])
	}
	a := new(Address)
	copy(a[:], b)
	return a, nil
}

// Parse parses the text form ("hx…" or "cx…" followed by 40 hex digits).
func Parse(s string) (*Address, error) {
	var isContract bool
	switch {
	case strings.HasPrefix(s, prefixEOA):
	case strings.HasPrefix(s, prefixContract):
		isContract = true
	default:
		return nil, fmt.Errorf("%w: %q has no hx/cx prefix", ErrInvalidAddress, s)
	}
	id, err := hex.DecodeString(s[2:])
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrInvalidAddress, s, err)
	}
	return New(id, isContract)
}

// MustParse is Parse that panics on error.
func MustParse(s string) *Address {
	a, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return a
}

// IsContract reports whether the address belongs to a contract.
func (a *Address) IsContract() bool {
	return a[0] == 1
}

// ID returns the 20 byte account id.
func (a *Address) ID() []byte {
	return a[1:]
}

// Bytes returns the binary form.
func (a *Address) Bytes() []byte {
	if a == nil {
		return []byte{}
	}
	b := make([]byte, Length)
	copy(b, a[:])
	return b
}

// String returns the hx or cx text form.
func (a *Address) String() string {
	if a == nil {
		return "nil"
	}
	if a.IsContract() {
		return prefixContract + hex.EncodeToString(a.ID())
	}
	return prefixEOA + hex.EncodeToString(a.ID())
}

// Equal compares two addresses; two nil addresses are equal.
func (a *Address) Equal(b *Address) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
