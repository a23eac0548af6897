package tests

import (
	"net/http/httptest"
	"testing"

	"go.vocdoni.io/dvote/db/metadb"

	"github.com/arbor-audio/arbor-node/api"
	"github.com/arbor-audio/arbor-node/crypto/ethereum"
	"github.com/arbor-audio/arbor-node/groups"
	"github.com/arbor-audio/arbor-node/stemqueue"
	"github.com/arbor-audio/arbor-node/storage"
	"github.com/arbor-audio/arbor-node/verifier"
)

// TestNode bundles everything an integration test needs: the engine for
// in-process calls and the HTTP server for the client-facing surface.
type TestNode struct {
	Engine *stemqueue.Engine
	Store  *storage.Storage
	Chain  *verifier.Ledger
	Server *httptest.Server
}

// SetupNode starts a complete node over the in-process vote ledger: storage,
// registry mirror, engine and the HTTP API.
func SetupNode(t *testing.T, threshold uint64) *TestNode {
	d := metadb.NewTest(t)
	store := storage.New(d)
	chain := verifier.New(d, nil)
	registry := groups.NewGroupDB(metadb.NewTest(t))
	engine := stemqueue.New(store, registry, chain, nil, threshold)

	a, err := api.NewOffline(engine, store)
	if err != nil {
		t.Fatalf("failed to build API: %v", err)
	}
	srv := httptest.NewServer(a.Router())
	t.Cleanup(srv.Close)
	return &TestNode{
		Engine: engine,
		Store:  store,
		Chain:  chain,
		Server: srv,
	}
}

// NewTestSigner creates and initializes a new ethereum signer for testing.
func NewTestSigner() (*ethereum.SignKeys, error) {
	signer := ethereum.NewSignKeys()
	if err := signer.Generate(); err != nil {
		return nil, err
	}
	return signer, nil
}
