package prover

import (
	"context"
	"fmt"
	"math/big"

	"github.com/iden3/go-rapidsnark/prover"
	"github.com/iden3/go-rapidsnark/witness"

	"github.com/arbor-audio/arbor-node/log"
)

// Public signal layout of the voting circuit, in the order the prover emits
// them and the verifier contract consumes them.
const (
	pubSignalRoot = iota
	pubSignalNullifierHash
	pubSignalSignalHash
	pubSignalExternalNullifier
	nPubSignals
)

// VoteProof is a generated voting proof together with its public signals,
// both in the circom JSON encoding and parsed into typed fields.
type VoteProof struct {
	// Proof and PubSignals are the snarkjs-style JSON documents, kept
	// verbatim for gnark verification.
	Proof      string
	PubSignals string

	Root              *big.Int
	NullifierHash     *big.Int
	SignalHash        *big.Int
	ExternalNullifier *big.Int
}

// Prover turns a validated witness into a voting proof. The production
// implementation runs the circom artifacts through rapidsnark; tests
// substitute an arithmetic fake so they do not need the artifacts.
type Prover interface {
	Prove(ctx context.Context, w *VoteWitness) (*VoteProof, error)
}

// CircomProver proves against a compiled circom circuit (wasm witness
// calculator) and its Groth16 proving key. A verification key may be
// attached for local proof checking before submission.
type CircomProver struct {
	wasm []byte
	zkey []byte
	vkey []byte
}

// NewCircomProver creates a prover from raw circuit artifacts. The
// verification key is optional; without it Verify returns an error.
func NewCircomProver(wasm, zkey, vkey []byte) (*CircomProver, error) {
	if len(wasm) == 0 || len(zkey) == 0 {
		return nil, fmt.Errorf("missing circuit artifacts")
	}
	return &CircomProver{wasm: wasm, zkey: zkey, vkey: vkey}, nil
}

// Prove calculates the circuit witness and runs the Groth16 prover. The
// context bounds only the wait; proving itself is not interruptible once
// started.
func (p *CircomProver) Prove(ctx context.Context, w *VoteWitness) (*VoteProof, error) {
	inputs, err := w.CircomInputs()
	if err != nil {
		return nil, fmt.Errorf("encoding witness inputs: %w", err)
	}
	type result struct {
		proof      string
		pubSignals string
		err        error
	}
	resCh := make(chan result, 1)
	go func() {
		proof, pubSignals, err := p.prove(inputs)
		resCh <- result{proof, pubSignals, err}
	}()
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-resCh:
		if res.err != nil {
			return nil, fmt.Errorf("generating proof: %w", res.err)
		}
		vp, err := newVoteProof(res.proof, res.pubSignals)
		if err != nil {
			return nil, err
		}
		log.Debugw("vote proof generated",
			"root", vp.Root.String(),
			"nullifierHash", vp.NullifierHash.String())
		return vp, nil
	}
}

func (p *CircomProver) prove(inputs []byte) (string, string, error) {
	parsedInputs, err := witness.ParseInputs(inputs)
	if err != nil {
		return "", "", err
	}
	calc, err := witness.NewCircom2WitnessCalculator(p.wasm, true)
	if err != nil {
		return "", "", err
	}
	wtns, err := calc.CalculateWTNSBin(parsedInputs, true)
	if err != nil {
		return "", "", err
	}
	return prover.Groth16ProverRaw(p.zkey, wtns)
}

// ParseVoteProof builds a VoteProof from the raw circom proof and public
// signal JSON strings, as produced by an out-of-process prover.
func ParseVoteProof(proof, pubSignals string) (*VoteProof, error) {
	return newVoteProof(proof, pubSignals)
}

// newVoteProof parses the public signals of a circom proof into typed
// fields, checking the expected signal count.
func newVoteProof(proof, pubSignals string) (*VoteProof, error) {
	signals, err := parsePubSignals(pubSignals)
	if err != nil {
		return nil, err
	}
	return &VoteProof{
		Proof:             proof,
		PubSignals:        pubSignals,
		Root:              signals[pubSignalRoot],
		NullifierHash:     signals[pubSignalNullifierHash],
		SignalHash:        signals[pubSignalSignalHash],
		ExternalNullifier: signals[pubSignalExternalNullifier],
	}, nil
}
