package api

const (
	// PingEndpoint is the endpoint for checking the API status
	PingEndpoint = "/ping"
	// ProjectsEndpoint is the endpoint for creating and listing projects
	ProjectsEndpoint = "/projects"
	// ProjectEndpoint is the endpoint to get a project document
	ProjectURLParam = "projectId"
	ProjectEndpoint = "/projects/{" + ProjectURLParam + "}"
	// ProjectStemsEndpoint is the endpoint for queueing a stem on a project
	ProjectStemsEndpoint = "/projects/{" + ProjectURLParam + "}/stems"
	// ProjectVotersEndpoint is the endpoint for registering an identity
	// commitment in the project's voting group
	ProjectVotersEndpoint = "/projects/{" + ProjectURLParam + "}/voters"
	// GroupRootEndpoint, GroupMembersEndpoint and GroupProofEndpoint expose
	// the synced voting group mirror: the current Merkle root, the ordered
	// commitment list and a membership proof for a given commitment
	GroupRootEndpoint    = "/projects/{" + ProjectURLParam + "}/group/root"
	GroupMembersEndpoint = "/projects/{" + ProjectURLParam + "}/group/members"
	GroupProofEndpoint   = "/projects/{" + ProjectURLParam + "}/group/proof"
	// StemVotesEndpoint is the endpoint for submitting a vote proof on a
	// queued stem
	StemURLParam      = "stemId"
	StemVotesEndpoint = "/projects/{" + ProjectURLParam + "}/stems/{" + StemURLParam + "}/votes"
	// StemApproveEndpoint is the endpoint for promoting a queued stem
	StemApproveEndpoint = "/projects/{" + ProjectURLParam + "}/stems/{" + StemURLParam + "}/approve"
	// UserEndpoint is the endpoint to get a connected account record
	UserURLParam = "address"
	UserEndpoint = "/users/{" + UserURLParam + "}"
)
