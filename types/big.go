package types

import (
	"fmt"
	"math/big"

	"github.com/fxamacker/cbor/v2"
)

// BigInt is a big.Int wrapper which marshals JSON to a string representation
// of the big number. Note that a nil pointer value marshals as the empty
// string.
type BigInt big.Int

// MathBigInt converts b to a math/big *big.Int.
func (i *BigInt) MathBigInt() *big.Int {
	return (*big.Int)(i)
}

// SetUint64 sets the value of i to n and returns i.
func (i *BigInt) SetUint64(n uint64) *BigInt {
	return (*BigInt)(i.MathBigInt().SetUint64(n))
}

// SetBytes interprets buf as big-endian unsigned integer, sets i to that
// value and returns i.
func (i *BigInt) SetBytes(buf []byte) *BigInt {
	return (*BigInt)(i.MathBigInt().SetBytes(buf))
}

// Bytes returns the big-endian byte representation of i.
func (i *BigInt) Bytes() []byte {
	return i.MathBigInt().Bytes()
}

// Equal reports whether i and j are equal.
func (i *BigInt) Equal(j *BigInt) bool {
	return i.MathBigInt().Cmp(j.MathBigInt()) == 0
}

func (i *BigInt) String() string {
	return i.MathBigInt().String()
}

func (i *BigInt) MarshalJSON() ([]byte, error) {
	return []byte(`"` + i.String() + `"`), nil
}

func (i *BigInt) UnmarshalJSON(data []byte) error {
	s := string(data)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	if _, ok := i.MathBigInt().SetString(s, 10); !ok {
		return fmt.Errorf("invalid big number %q", s)
	}
	return nil
}

// MarshalCBOR encodes the big number as its big-endian byte representation.
func (i *BigInt) MarshalCBOR() ([]byte, error) {
	return cbor.Marshal(i.Bytes())
}

func (i *BigInt) UnmarshalCBOR(data []byte) error {
	var buf []byte
	if err := cbor.Unmarshal(data, &buf); err != nil {
		return err
	}
	i.SetBytes(buf)
	return nil
}
