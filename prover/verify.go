package prover

import (
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/vocdoni/circom2gnark/parser"
)

// Verify checks a circom proof against the prover's verification key using
// the gnark backend. It returns nil only for a valid proof.
func (p *CircomProver) Verify(vp *VoteProof) error {
	if len(p.vkey) == 0 {
		return fmt.Errorf("no verification key loaded")
	}
	return VerifyVoteProof(p.vkey, vp)
}

// VerifyVoteProof converts a circom proof and its public signals to the
// gnark format and verifies it against the given circom verification key.
func VerifyVoteProof(vkey []byte, vp *VoteProof) error {
	proofData, err := parser.UnmarshalCircomProofJSON([]byte(vp.Proof))
	if err != nil {
		return fmt.Errorf("decoding proof: %w", err)
	}
	pubSignalsData, err := parser.UnmarshalCircomPublicSignalsJSON([]byte(vp.PubSignals))
	if err != nil {
		return fmt.Errorf("decoding public signals: %w", err)
	}
	vkeyData, err := parser.UnmarshalCircomVerificationKeyJSON(vkey)
	if err != nil {
		return fmt.Errorf("decoding verification key: %w", err)
	}
	gnarkProof, err := parser.ConvertCircomToGnark(proofData, vkeyData, pubSignalsData)
	if err != nil {
		return fmt.Errorf("converting proof to gnark format: %w", err)
	}
	if ok, err := parser.VerifyProof(gnarkProof); !ok || err != nil {
		return fmt.Errorf("proof verification failed: %v", err)
	}
	return nil
}

// SolidityCalldata packs the proof points into the flat 8-word layout the
// on-chain verifier takes: A, then B with its inner coordinates swapped, then
// C.
func (vp *VoteProof) SolidityCalldata() ([8]*big.Int, error) {
	var packed [8]*big.Int
	var raw struct {
		PiA []string   `json:"pi_a"`
		PiB [][]string `json:"pi_b"`
		PiC []string   `json:"pi_c"`
	}
	if err := json.Unmarshal([]byte(vp.Proof), &raw); err != nil {
		return packed, fmt.Errorf("decoding proof: %w", err)
	}
	if len(raw.PiA) < 2 || len(raw.PiB) < 2 || len(raw.PiB[0]) < 2 ||
		len(raw.PiB[1]) < 2 || len(raw.PiC) < 2 {
		return packed, fmt.Errorf("malformed proof points")
	}
	for i, s := range []string{
		raw.PiA[0], raw.PiA[1],
		raw.PiB[0][1], raw.PiB[0][0],
		raw.PiB[1][1], raw.PiB[1][0],
		raw.PiC[0], raw.PiC[1],
	} {
		v, ok := new(big.Int).SetString(s, 10)
		if !ok {
			return packed, fmt.Errorf("invalid proof coordinate %q", s)
		}
		packed[i] = v
	}
	return packed, nil
}

// parsePubSignals decodes the snarkjs public signals document and checks it
// carries exactly the circuit's signal count.
func parsePubSignals(pubSignals string) ([]*big.Int, error) {
	strSignals, err := parser.UnmarshalCircomPublicSignalsJSON([]byte(pubSignals))
	if err != nil {
		return nil, fmt.Errorf("decoding public signals: %w", err)
	}
	if len(strSignals) != nPubSignals {
		return nil, fmt.Errorf("expected %d public signals, got %d", nPubSignals, len(strSignals))
	}
	signals := make([]*big.Int, len(strSignals))
	for i, s := range strSignals {
		v, ok := new(big.Int).SetString(s, 10)
		if !ok {
			return nil, fmt.Errorf("invalid public signal %q", s)
		}
		signals[i] = v
	}
	return signals, nil
}
