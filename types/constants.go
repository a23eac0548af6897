package types

const (
	// GroupTreeMaxLevels is the fixed depth of the voting group merkle tree.
	// It must match the depth compiled into the voting circuit and the
	// on-chain incremental tree.
	GroupTreeMaxLevels = 20
	// DefaultApprovalThreshold is the minimum number of votes a queued stem
	// needs before a collaborator may approve it onto the project.
	DefaultApprovalThreshold = 1
	// StemSignalLength is the byte length of the stem identifier encoding
	// used as the contract signal (bytes32).
	StemSignalLength = 32
)
