package types

import (
	"encoding/json"
	"math/big"
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/fxamacker/cbor/v2"
)

func TestBigMarshalUnmarshalJSON(t *testing.T) {
	c := qt.New(t)
	bi := (*BigInt)(big.NewInt(1234567890))
	jsonBigInt := map[string]*BigInt{
		"bi": bi,
	}
	bBigInt, err := json.Marshal(jsonBigInt)
	c.Assert(err, qt.IsNil)

	var unmarshaled map[string]*BigInt
	c.Assert(json.Unmarshal(bBigInt, &unmarshaled), qt.IsNil)
	c.Assert(unmarshaled["bi"].Equal(bi), qt.IsTrue)
}

func TestBigMarshalUnmarshalCBOR(t *testing.T) {
	c := qt.New(t)
	bi := (*BigInt)(big.NewInt(1234567890))
	cborBigInt := map[string]*BigInt{
		"bi": bi,
	}
	bBigInt, err := cbor.Marshal(cborBigInt)
	c.Assert(err, qt.IsNil)

	var unmarshaled map[string]*BigInt
	c.Assert(cbor.Unmarshal(bBigInt, &unmarshaled), qt.IsNil)
	c.Assert(unmarshaled["bi"].Equal(bi), qt.IsTrue)
}

func TestHexBytesMarshalUnmarshalJSON(t *testing.T) {
	c := qt.New(t)
	hb := HexBytes{0x01, 0x02, 0xab, 0xff}

	data, err := json.Marshal(hb)
	c.Assert(err, qt.IsNil)
	c.Assert(string(data), qt.Equals, `"0x0102abff"`)

	var decoded HexBytes
	c.Assert(json.Unmarshal(data, &decoded), qt.IsNil)
	c.Assert(decoded, qt.DeepEquals, hb)

	// without the 0x prefix
	var noPrefix HexBytes
	c.Assert(json.Unmarshal([]byte(`"0102abff"`), &noPrefix), qt.IsNil)
	c.Assert(noPrefix, qt.DeepEquals, hb)
}

func TestMembershipProofPathIndices(t *testing.T) {
	c := qt.New(t)
	p := &MembershipProof{
		Index:    5, // 101b
		Siblings: make([]HexBytes, 4),
	}
	c.Assert(p.PathIndices(), qt.DeepEquals, []int{1, 0, 1, 0})
}
