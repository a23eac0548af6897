package types

// MembershipProof is a merkle inclusion proof of an identity commitment in a
// voting group tree. Siblings are unpacked and zero-padded to
// GroupTreeMaxLevels so they can be fed directly to the voting circuit.
type MembershipProof struct {
	GroupID    uint64     `json:"groupId"`
	Root       HexBytes   `json:"root"`
	Index      uint64     `json:"index"`
	Commitment HexBytes   `json:"commitment"`
	Siblings   []HexBytes `json:"siblings"`
	// PackedSiblings is the arbo-encoded authentication path, used for
	// verification; Siblings is the unpacked, zero-padded form the circuit
	// witness wants.
	PackedSiblings HexBytes `json:"packedSiblings"`
	Existence      bool     `json:"-"`
}

// PathIndices returns the left/right positions of the authentication path,
// least significant bit first, one per tree level.
func (p *MembershipProof) PathIndices() []int {
	indices := make([]int, len(p.Siblings))
	for i := range indices {
		indices[i] = int(p.Index>>uint(i)) & 1
	}
	return indices
}
