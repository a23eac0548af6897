package tests

import (
	"bytes"
	"encoding/json"
	"io"
	"math/big"
	"net/http"
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/arbor-audio/arbor-node/api"
	"github.com/arbor-audio/arbor-node/crypto/ethereum"
	"github.com/arbor-audio/arbor-node/crypto/identity"
	"github.com/arbor-audio/arbor-node/types"
)

func request(t *testing.T, node *TestNode, method, path string, body, out any) int {
	t.Helper()
	c := qt.New(t)
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		c.Assert(err, qt.IsNil)
		reqBody = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, node.Server.URL+path, reqBody)
	c.Assert(err, qt.IsNil)
	resp, err := http.DefaultClient.Do(req)
	c.Assert(err, qt.IsNil)
	defer func() { _ = resp.Body.Close() }()
	data, err := io.ReadAll(resp.Body)
	c.Assert(err, qt.IsNil)
	if out != nil && resp.StatusCode == http.StatusOK {
		c.Assert(json.Unmarshal(data, out), qt.IsNil)
	}
	return resp.StatusCode
}

// voteBody derives the public signals the way the browser prover does, from
// the voter's secrets and the group root the node served.
func voteBody(t *testing.T, voter *identity.Identity, root types.HexBytes, stemID string) *api.Vote {
	t.Helper()
	c := qt.New(t)
	ext, err := identity.ExternalNullifier(stemID)
	c.Assert(err, qt.IsNil)
	nh, err := voter.NullifierHash(ext)
	c.Assert(err, qt.IsNil)
	signal := make([]byte, 32)
	copy(signal, stemID)
	signals, err := json.Marshal([]string{
		new(big.Int).SetBytes(root).String(),
		nh.String(),
		identity.SignalHash(signal).String(),
		ext.String(),
	})
	c.Assert(err, qt.IsNil)
	return &api.Vote{Proof: `{"pi_a":[],"pi_b":[],"pi_c":[]}`, PubSignals: string(signals)}
}

// TestStemVotingLifecycle drives the whole protocol through the HTTP
// surface with wallet-derived identities: project creation, stem queueing,
// anonymous registration, threshold voting and approval.
func TestStemVotingLifecycle(t *testing.T) {
	c := qt.New(t)
	node := SetupNode(t, 2)

	creator, err := NewTestSigner()
	c.Assert(err, qt.IsNil)
	uploader, err := NewTestSigner()
	c.Assert(err, qt.IsNil)

	// the creator opens a project; its voting group is allocated on chain
	p := &types.Project{}
	status := request(t, node, http.MethodPost, "/projects", &api.NewProjectRequest{
		Name:      "Tape Loops",
		BPM:       92,
		CreatedBy: creator.AddressString(),
	}, p)
	c.Assert(status, qt.Equals, http.StatusOK)
	c.Assert(p.VotingGroupID, qt.Equals, uint64(1))

	// the uploader queues a stem
	withStem := &types.Project{}
	status = request(t, node, http.MethodPost, "/projects/"+p.ID+"/stems", &api.NewStemRequest{
		Name:    "warbled keys",
		Type:    types.StemTypeChords,
		Address: uploader.AddressString(),
	}, withStem)
	c.Assert(status, qt.Equals, http.StatusOK)
	stemID := withStem.Queue[0].Stem.ID

	// three wallets sign the registration message and register their
	// commitments anonymously
	voters := make([]*identity.Identity, 3)
	for i := range voters {
		signer, err := NewTestSigner()
		c.Assert(err, qt.IsNil)
		voters[i], err = identity.FromSigner(signer, p.VotingGroupID)
		c.Assert(err, qt.IsNil)
		commitment, err := voters[i].Commitment()
		c.Assert(err, qt.IsNil)
		status = request(t, node, http.MethodPost, "/projects/"+p.ID+"/voters", &api.RegisterVoterRequest{
			Address:    signer.AddressString(),
			Commitment: commitment.Bytes(),
		}, nil)
		c.Assert(status, qt.Equals, http.StatusOK)
	}

	// re-signing reproduces the same identity, so the commitment is stable
	members := &api.GroupMembers{}
	status = request(t, node, http.MethodGet, "/projects/"+p.ID+"/group/members", nil, members)
	c.Assert(status, qt.Equals, http.StatusOK)
	c.Assert(members.Commitments, qt.HasLen, 3)

	rootResp := &api.GroupRoot{}
	status = request(t, node, http.MethodGet, "/projects/"+p.ID+"/group/root", nil, rootResp)
	c.Assert(status, qt.Equals, http.StatusOK)

	// each voter fetches their membership proof before voting
	for _, voter := range voters[:2] {
		commitment, err := voter.Commitment()
		c.Assert(err, qt.IsNil)
		proof := &types.MembershipProof{}
		status = request(t, node, http.MethodGet,
			"/projects/"+p.ID+"/group/proof?commitment="+types.HexBytes(commitment.Bytes()).String(),
			nil, proof)
		c.Assert(status, qt.Equals, http.StatusOK)
		c.Assert(proof.Root, qt.DeepEquals, rootResp.Root)
	}

	// approval is blocked until the tally reaches the threshold
	status = request(t, node, http.MethodPost, "/projects/"+p.ID+"/stems/"+stemID+"/approve",
		&api.ApproveStemRequest{Address: creator.AddressString()}, nil)
	c.Assert(status, qt.Equals, http.StatusBadRequest)

	// two anonymous votes land; the tally is the chain's counter
	for i, voter := range voters[:2] {
		voteResp := &api.VoteResponse{}
		status = request(t, node, http.MethodPost,
			"/projects/"+p.ID+"/stems/"+stemID+"/votes",
			voteBody(t, voter, rootResp.Root, stemID), voteResp)
		c.Assert(status, qt.Equals, http.StatusOK)
		c.Assert(voteResp.Votes, qt.Equals, uint64(i+1))
	}

	// a replayed nullifier is rejected without touching the tally
	status = request(t, node, http.MethodPost,
		"/projects/"+p.ID+"/stems/"+stemID+"/votes",
		voteBody(t, voters[0], rootResp.Root, stemID), nil)
	c.Assert(status, qt.Equals, http.StatusBadRequest)

	// now the creator approves: the stem moves to the project and the
	// uploader becomes a collaborator
	approved := &types.Project{}
	status = request(t, node, http.MethodPost, "/projects/"+p.ID+"/stems/"+stemID+"/approve",
		&api.ApproveStemRequest{Address: creator.AddressString()}, approved)
	c.Assert(status, qt.Equals, http.StatusOK)
	c.Assert(approved.Queue, qt.HasLen, 0)
	c.Assert(approved.Stems, qt.HasLen, 1)
	c.Assert(approved.IsCollaborator(uploader.AddressString()), qt.IsTrue)
}

func TestWalletIdentityDeterminism(t *testing.T) {
	c := qt.New(t)
	signer, err := NewTestSigner()
	c.Assert(err, qt.IsNil)

	first, err := identity.FromSigner(signer, 7)
	c.Assert(err, qt.IsNil)
	second, err := identity.FromSigner(signer, 7)
	c.Assert(err, qt.IsNil)

	c1, err := first.Commitment()
	c.Assert(err, qt.IsNil)
	c2, err := second.Commitment()
	c.Assert(err, qt.IsNil)
	c.Assert(c1.Cmp(c2), qt.Equals, 0)

	// a different wallet derives a different identity
	other := ethereum.NewSignKeys()
	c.Assert(other.Generate(), qt.IsNil)
	third, err := identity.FromSigner(other, 7)
	c.Assert(err, qt.IsNil)
	c3, err := third.Commitment()
	c.Assert(err, qt.IsNil)
	c.Assert(c1.Cmp(c3), qt.Not(qt.Equals), 0)
}
