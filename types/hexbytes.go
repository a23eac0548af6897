package types

import (
	"encoding/hex"
	"fmt"
)

// HexBytes is a byte slice that marshals as a hexadecimal string in JSON,
// as in "0x08...1234". The "0x" prefix is optional when unmarshalling.
type HexBytes []byte

// String returns the hexadecimal representation with a "0x" prefix.
func (b HexBytes) String() string {
	return "0x" + hex.EncodeToString(b)
}

// HexStringToHexBytes decodes a hexadecimal string, with or without "0x"
// prefix, into a HexBytes. Invalid input yields nil.
func HexStringToHexBytes(s string) HexBytes {
	b := HexBytes{}
	if err := b.SetString(s); err != nil {
		return nil
	}
	return b
}

// SetString decodes a hexadecimal string, with or without "0x" prefix, into b.
func (b *HexBytes) SetString(s string) error {
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		s = s[2:]
	}
	dec, err := hex.DecodeString(s)
	if err != nil {
		return err
	}
	*b = dec
	return nil
}

func (b HexBytes) MarshalJSON() ([]byte, error) {
	enc := make([]byte, hex.EncodedLen(len(b))+4)
	enc[0] = '"'
	enc[1] = '0'
	enc[2] = 'x'
	hex.Encode(enc[3:], b)
	enc[len(enc)-1] = '"'
	return enc, nil
}

func (b *HexBytes) UnmarshalJSON(data []byte) error {
	if len(data) < 2 || data[0] != '"' || data[len(data)-1] != '"' {
		return fmt.Errorf("invalid JSON string: %q", data)
	}
	data = data[1 : len(data)-1]
	// strip optional "0x" prefix
	if len(data) >= 2 && data[0] == '0' && (data[1] == 'x' || data[1] == 'X') {
		data = data[2:]
	}
	decLen := hex.DecodedLen(len(data))
	if cap(*b) < decLen {
		*b = make([]byte, decLen)
	}
	if _, err := hex.Decode(*b, data); err != nil {
		return err
	}
	return nil
}
