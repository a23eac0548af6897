// Package web3 binds the deployed StemQueue contract: voting group
// management, proof-carrying vote submission, the authoritative per-stem
// vote counter and the MemberAdded event log the off-chain registry mirror
// is rebuilt from.
package web3

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/arbor-audio/arbor-node/log"
	"github.com/arbor-audio/arbor-node/prover"
	"github.com/arbor-audio/arbor-node/util"
	"github.com/arbor-audio/arbor-node/web3/contracts"
)

const web3QueryTimeout = 10 * time.Second

// Config holds the connection parameters of the chain client.
type Config struct {
	RPC             string
	ContractAddress string
	PrivateKey      string
}

// Client wires the StemQueue contract over a web3 RPC endpoint. It
// implements the engine's chain interface.
type Client struct {
	cli      *ethclient.Client
	chainID  *big.Int
	contract *contracts.StemQueue
	privKey  *ecdsa.PrivateKey
	address  common.Address
}

// New dials the RPC endpoint and binds the StemQueue contract.
func New(ctx context.Context, cfg *Config) (*Client, error) {
	cli, err := ethclient.DialContext(ctx, cfg.RPC)
	if err != nil {
		return nil, fmt.Errorf("failed to dial web3 endpoint: %w", err)
	}
	chainID, err := cli.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get chain id: %w", err)
	}
	contract, err := contracts.NewStemQueue(common.HexToAddress(cfg.ContractAddress), cli)
	if err != nil {
		return nil, fmt.Errorf("failed to bind stem queue contract: %w", err)
	}
	c := &Client{
		cli:      cli,
		chainID:  chainID,
		contract: contract,
	}
	if cfg.PrivateKey != "" {
		if err := c.SetAccountPrivateKey(cfg.PrivateKey); err != nil {
			return nil, err
		}
	}
	log.Infow("connected to web3 endpoint",
		"chainId", chainID.String(),
		"contract", cfg.ContractAddress)
	return c, nil
}

// SetAccountPrivateKey sets the key used to sign transactions.
func (c *Client) SetAccountPrivateKey(hexPrivKey string) error {
	var err error
	c.privKey, err = crypto.HexToECDSA(util.TrimHex(hexPrivKey))
	if err != nil {
		return fmt.Errorf("failed to parse private key: %w", err)
	}
	c.address = crypto.PubkeyToAddress(c.privKey.PublicKey)
	return nil
}

// AccountAddress returns the transaction signing account.
func (c *Client) AccountAddress() common.Address {
	return c.address
}

// authTransactOpts creates the transact options with the configured private
// key, setting nonce, gas tip and gas limit.
func (c *Client) authTransactOpts(ctx context.Context) (*bind.TransactOpts, error) {
	if c.privKey == nil {
		return nil, fmt.Errorf("no private key set")
	}
	auth, err := bind.NewKeyedTransactorWithChainID(c.privKey, c.chainID)
	if err != nil {
		return nil, fmt.Errorf("failed to create transactor: %w", err)
	}
	ctx, cancel := context.WithTimeout(ctx, web3QueryTimeout)
	defer cancel()
	nonce, err := c.cli.PendingNonceAt(ctx, c.address)
	if err != nil {
		return nil, fmt.Errorf("failed to get nonce: %w", err)
	}
	auth.Nonce = new(big.Int).SetUint64(nonce)
	if auth.GasTipCap, err = c.cli.SuggestGasTipCap(ctx); err != nil {
		return nil, fmt.Errorf("failed to get gas tip cap: %w", err)
	}
	auth.GasLimit = 10000000
	return auth, nil
}

// waitTx blocks until the transaction is mined and checks its status. A
// broadcast transaction cannot be retracted; on a context timeout it may
// still land later.
func (c *Client) waitTx(ctx context.Context, tx *ethtypes.Transaction) error {
	receipt, err := bind.WaitMined(ctx, c.cli, tx)
	if err != nil {
		return fmt.Errorf("failed waiting for tx %s: %w", tx.Hash().Hex(), err)
	}
	if receipt.Status != ethtypes.ReceiptStatusSuccessful {
		return fmt.Errorf("tx %s reverted", tx.Hash().Hex())
	}
	return nil
}

// CreateGroup creates the voting group on chain and waits for confirmation.
func (c *Client) CreateGroup(ctx context.Context, groupID uint64) error {
	auth, err := c.authTransactOpts(ctx)
	if err != nil {
		return err
	}
	tx, err := c.contract.CreateProjectGroup(auth, new(big.Int).SetUint64(groupID))
	if err != nil {
		return fmt.Errorf("failed to create group: %w", err)
	}
	log.Debugw("create group tx sent", "groupId", groupID, "tx", tx.Hash().Hex())
	return c.waitTx(ctx, tx)
}

// AddMember appends an identity commitment to the on-chain group and waits
// for confirmation. The contract enforces set semantics on commitments.
func (c *Client) AddMember(ctx context.Context, groupID uint64, commitment *big.Int) error {
	auth, err := c.authTransactOpts(ctx)
	if err != nil {
		return err
	}
	tx, err := c.contract.AddMemberToProjectGroup(auth, new(big.Int).SetUint64(groupID), commitment)
	if err != nil {
		return fmt.Errorf("failed to add member: %w", err)
	}
	log.Debugw("add member tx sent", "groupId", groupID, "tx", tx.Hash().Hex())
	return c.waitTx(ctx, tx)
}

// SubmitVote submits a vote proof and waits for confirmation. A duplicate
// nullifier surfaces as the contract's revert reason in the returned error.
func (c *Client) SubmitVote(ctx context.Context, groupID uint64, stemSignal []byte, vp *prover.VoteProof) error {
	auth, err := c.authTransactOpts(ctx)
	if err != nil {
		return err
	}
	proof, err := vp.SolidityCalldata()
	if err != nil {
		return err
	}
	var signal [32]byte
	copy(signal[:], stemSignal)
	tx, err := c.contract.Vote(auth, signal,
		new(big.Int).SetUint64(groupID), vp.ExternalNullifier, vp.NullifierHash, proof)
	if err != nil {
		return fmt.Errorf("failed to submit vote: %w", err)
	}
	log.Debugw("vote tx sent", "groupId", groupID, "tx", tx.Hash().Hex())
	return c.waitTx(ctx, tx)
}

// StemVoteCount reads the authoritative vote counter for a stem signal.
func (c *Client) StemVoteCount(ctx context.Context, stemSignal []byte) (uint64, error) {
	var signal [32]byte
	copy(signal[:], stemSignal)
	ctx, cancel := context.WithTimeout(ctx, web3QueryTimeout)
	defer cancel()
	count, err := c.contract.StemVoteCounts(&bind.CallOpts{Context: ctx}, signal)
	if err != nil {
		return 0, fmt.Errorf("failed to get stem vote count: %w", err)
	}
	return count.Uint64(), nil
}

// GroupRoot reads the group's current on-chain merkle root.
func (c *Client) GroupRoot(ctx context.Context, groupID uint64) (*big.Int, error) {
	ctx, cancel := context.WithTimeout(ctx, web3QueryTimeout)
	defer cancel()
	root, err := c.contract.GroupRoots(&bind.CallOpts{Context: ctx}, new(big.Int).SetUint64(groupID))
	if err != nil {
		return nil, fmt.Errorf("failed to get group root: %w", err)
	}
	return root, nil
}

// GroupMembers replays the group's MemberAdded event log from genesis and
// returns the commitments in emission order. This order is the only source
// of truth for merkle leaf indexing.
func (c *Client) GroupMembers(ctx context.Context, groupID uint64) ([]*big.Int, error) {
	ctx, cancel := context.WithTimeout(ctx, web3QueryTimeout)
	defer cancel()
	iter, err := c.contract.FilterMemberAdded(
		&bind.FilterOpts{Start: 0, Context: ctx},
		[]*big.Int{new(big.Int).SetUint64(groupID)},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to filter member added events: %w", err)
	}
	defer func() {
		if err := iter.Close(); err != nil {
			log.Warnw("failed to close event iterator", "err", err)
		}
	}()
	var members []*big.Int
	for iter.Next() {
		members = append(members, iter.Event.IdentityCommitment)
	}
	if err := iter.Error(); err != nil {
		return nil, fmt.Errorf("failed reading member added events: %w", err)
	}
	return members, nil
}

// MonitorMembersByPolling emits the full member list of a group every
// interval, replayed from the event log. The registry monitor feeds these
// into the off-chain mirror.
func (c *Client) MonitorMembersByPolling(ctx context.Context, groupID uint64, interval time.Duration) <-chan []*big.Int {
	ch := make(chan []*big.Int)
	go func() {
		defer close(ch)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				log.Warnw("exiting member monitor", "groupId", groupID)
				return
			case <-ticker.C:
				members, err := c.GroupMembers(ctx, groupID)
				if err != nil {
					log.Warnw("failed to replay group members, retrying",
						"groupId", groupID, "err", err)
					continue
				}
				select {
				case ch <- members:
				case <-ctx.Done():
				}
			}
		}
	}()
	return ch
}
