package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"go.vocdoni.io/dvote/db"
	"go.vocdoni.io/dvote/db/metadb"
	"go.vocdoni.io/dvote/db/prefixeddb"

	"github.com/arbor-audio/arbor-node/circuits"
	"github.com/arbor-audio/arbor-node/groups"
	"github.com/arbor-audio/arbor-node/log"
	"github.com/arbor-audio/arbor-node/prover"
	"github.com/arbor-audio/arbor-node/service"
	"github.com/arbor-audio/arbor-node/stemqueue"
	"github.com/arbor-audio/arbor-node/storage"
	"github.com/arbor-audio/arbor-node/verifier"
	"github.com/arbor-audio/arbor-node/web3"
)

func main() {
	var (
		dataDir      = flag.String("dataDir", defaultDataDir(), "data directory for the node database")
		host         = flag.String("host", "0.0.0.0", "API host to bind")
		port         = flag.Int("port", 8080, "API port to bind")
		logLevel     = flag.String("logLevel", "info", "log level (debug, info, warn, error)")
		w3rpc        = flag.String("web3rpc", "", "ethereum RPC endpoint; empty runs the in-process verifier")
		contractAddr = flag.String("contract", "", "StemQueue contract address")
		privKey      = flag.String("privKey", "", "private key for on-chain transactions")
		threshold    = flag.Uint64("voteThreshold", 0, "votes a queued stem needs before approval (0 uses the default)")
		syncEvery    = flag.Duration("syncInterval", time.Minute, "voting group mirror sync interval")
		artifactsTO  = flag.Duration("artifactsTimeout", 10*time.Minute, "timeout for downloading circuit artifacts")
	)
	flag.Parse()

	log.Init(*logLevel, "stdout")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	database, err := metadb.New(db.TypePebble, filepath.Join(*dataDir, "arbor"))
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	store := storage.New(database)
	registry := groups.NewGroupDB(prefixeddb.NewPrefixedDatabase(database, []byte("registry/")))

	// circuit artifacts give the node a server-side prover and the
	// verification key used to check incoming proofs
	if err := service.DownloadArtifacts(*artifactsTO); err != nil {
		log.Warnw("failed to download circuit artifacts, relying on local cache", "error", err.Error())
	}
	var circomProver prover.Prover
	var vkey []byte
	if p, err := circuits.LoadProver(ctx); err != nil {
		log.Warnw("semaphore artifacts unavailable, running without a server-side prover", "error", err.Error())
	} else {
		circomProver = p
		vkey = circuits.SemaphoreArtifacts.VerifyingKey()
	}

	var chain stemqueue.ChainWire
	if *w3rpc != "" {
		client, err := web3.New(ctx, &web3.Config{
			RPC:             *w3rpc,
			ContractAddress: *contractAddr,
			PrivateKey:      *privKey,
		})
		if err != nil {
			log.Fatalf("failed to connect to web3 endpoint: %v", err)
		}
		chain = client
	} else {
		// local mode: the in-process ledger plays the contract, verifying
		// proofs with the circuit verification key when one is available
		var checker verifier.ProofChecker
		if vkey != nil {
			checker = func(vp *prover.VoteProof) error {
				return prover.VerifyVoteProof(vkey, vp)
			}
		}
		chain = verifier.New(database, checker)
		log.Infow("no web3 endpoint configured, using the in-process vote ledger")
	}

	engine := stemqueue.New(store, registry, chain, circomProver, *threshold)

	apiService := service.NewAPI(engine, store, *host, *port)
	if err := apiService.Start(ctx); err != nil {
		log.Fatalf("failed to start API service: %v", err)
	}
	monitor := service.NewRegistryMonitor(engine, store, *syncEvery)
	if err := monitor.Start(ctx); err != nil {
		log.Fatalf("failed to start registry monitor: %v", err)
	}

	log.Infow("arbor node running", "dataDir", *dataDir, "host", *host, "port", *port)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	log.Infow("shutting down")
	monitor.Stop()
	apiService.Stop()
	store.Close()
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return filepath.Join(os.TempDir(), "arbor-node")
	}
	return filepath.Join(home, ".arbor-node")
}
