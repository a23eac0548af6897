package storage

import (
	"github.com/fxamacker/cbor/v2"
)

// Documents are stored as deterministic CBOR so byte-level comparisons of
// stored values are meaningful. The encoder mode is built once at init;
// CoreDetEncOptions cannot fail to produce a mode.
var docEncMode, _ = cbor.CoreDetEncOptions().EncMode()

func encodeArtifact(a any) ([]byte, error) {
	return docEncMode.Marshal(a)
}

func decodeArtifact(data []byte, out any) error {
	return cbor.Unmarshal(data, out)
}
