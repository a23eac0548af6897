package stemqueue

import "fmt"

// Protocol failure taxonomy. Every engine operation reports one of these so
// callers can map failures to their user-facing denials without parsing
// messages.
var (
	// ErrSigningRejected means the account holder refused or failed to sign
	// the identity registration message. No identity is produced.
	ErrSigningRejected = fmt.Errorf("signing rejected")
	// ErrRegistrationFailed means the on-chain membership call failed. The
	// off-chain mirror is never touched in that case.
	ErrRegistrationFailed = fmt.Errorf("registration failed")
	// ErrAlreadyRegistered rejects a second registration of the same
	// commitment in a group.
	ErrAlreadyRegistered = fmt.Errorf("identity already registered for this group")
	// ErrMemberNotFound means the voter's commitment is not in the group
	// registry. Raised before any proof or chain interaction.
	ErrMemberNotFound = fmt.Errorf("member not found in voting group")
	// ErrProofGenerationFailed covers witness construction and proving
	// failures, including missing circuit artifacts.
	ErrProofGenerationFailed = fmt.Errorf("proof generation failed")
	// ErrVerificationFailed means the chain rejected the submitted proof.
	ErrVerificationFailed = fmt.Errorf("vote verification failed")
	// ErrAlreadyVoted is the duplicate-nullifier rejection, surfaced as its
	// own case so the caller can tell the user they already voted on this
	// stem.
	ErrAlreadyVoted = fmt.Errorf("you already voted on this stem")
	// ErrNotCollaborator rejects an approval from an account that is not a
	// project collaborator.
	ErrNotCollaborator = fmt.Errorf("account is not a project collaborator")
	// ErrStemNotQueued rejects votes and approvals on a stem that is not in
	// the project queue.
	ErrStemNotQueued = fmt.Errorf("stem is not in the project queue")
	// ErrInsufficientVotes rejects approving a stem below the vote
	// threshold.
	ErrInsufficientVotes = fmt.Errorf("stem does not have enough votes")
	// ErrTrackLimitReached rejects approving a stem into a project that
	// already holds its configured maximum of accepted stems.
	ErrTrackLimitReached = fmt.Errorf("project track limit reached")
	// ErrPersistenceUpdateFailed means the vote or approval landed but the
	// project document write failed. Vote tallies self-repair on the next
	// successful read since they are overwritten, never incremented.
	ErrPersistenceUpdateFailed = fmt.Errorf("persistence update failed")
)
