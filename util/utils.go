package util

import (
	"crypto/rand"
	"math/big"
	"strings"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
)

// RandomBytes returns n bytes from the system CSPRNG. It panics on failure,
// which only happens when the platform randomness source is broken.
func RandomBytes(n int) []byte {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		panic(err)
	}
	return b
}

// TrimHex removes a leading "0x" or "0X" from a hex string, if present.
func TrimHex(s string) string {
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		return s[2:]
	}
	return s
}

// BigToFF reduces iv into the scalar field of the BN254 curve, the field the
// voting circuit operates on. Values already in range are returned as-is.
func BigToFF(iv *big.Int) *big.Int {
	m := fr.Modulus()
	if iv.Sign() >= 0 && iv.Cmp(m) < 0 {
		return iv
	}
	return new(big.Int).Mod(iv, m)
}
