// Package nft binds the EpicNFT collection contract: the minted counter, the
// mint call and the NewEpicNFTMinted event.
package nft

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log"
	"math/big"
	"strings"
	"time"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/event"
	"github.com/ethereum/go-ethereum/rpc"

	"github.com/b0ase/path402/apps/mintpanel/internal/wallet"
)

//go:embed MyEpicNFT.abi.json
var epicNFTABI string

const (
	MintedEventName   = "NewEpicNFTMinted"
	totalMintedMethod = "getTotalNFTsMintedSoFar"
	mintMethod        = "makeAnEpicNFT"
)

// ErrReverted means the mint transaction was mined with status 0.
var ErrReverted = errors.New("transaction reverted")

// MintedEvent is one decoded NewEpicNFTMinted log.
type MintedEvent struct {
	From        common.Address
	TokenID     *big.Int
	TxHash      common.Hash
	LogIndex    uint
	BlockNumber uint64
}

// PendingTx is a submitted mint awaiting confirmation.
type PendingTx interface {
	Hash() common.Hash
	Wait(ctx context.Context) (*types.Receipt, error)
}

// Contract is what the panel needs from the collection.
type Contract interface {
	TotalMinted(ctx context.Context) (uint64, error)
	Mint(ctx context.Context, from string) (PendingTx, error)
	WatchMinted(ctx context.Context, sink chan<- MintedEvent) (event.Subscription, error)
}

// Options tune the binding. Zero values pick defaults.
type Options struct {
	// Signer, when set, signs mints locally; otherwise the RPC endpoint
	// signs them via eth_sendTransaction.
	Signer *wallet.Wallet
	// PollInterval paces receipt polling and the eth_getLogs fallback.
	PollInterval time.Duration
}

// EpicNFT is the go-ethereum binding of the deployed collection.
type EpicNFT struct {
	abi          abi.ABI
	address      common.Address
	contract     *bind.BoundContract
	backend      *ethclient.Client
	rpc          *rpc.Client
	signer       *wallet.Wallet
	pollInterval time.Duration
}

// ParseABI returns the embedded contract interface.
func ParseABI() (abi.ABI, error) {
	return abi.JSON(strings.NewReader(epicNFTABI))
}

// New connects to an already-deployed collection at addr.
func New(client *rpc.Client, addr common.Address, opts Options) (*EpicNFT, error) {
	parsed, err := ParseABI()
	if err != nil {
		return nil, fmt.Errorf("parse abi: %w", err)
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = time.Second
	}
	backend := ethclient.NewClient(client)
	return &EpicNFT{
		abi:          parsed,
		address:      addr,
		contract:     bind.NewBoundContract(addr, parsed, backend, backend, backend),
		backend:      backend,
		rpc:          client,
		signer:       opts.Signer,
		pollInterval: opts.PollInterval,
	}, nil
}

func (c *EpicNFT) Address() common.Address { return c.address }

// TotalMinted calls getTotalNFTsMintedSoFar().
func (c *EpicNFT) TotalMinted(ctx context.Context) (uint64, error) {
	var out []interface{}
	if err := c.contract.Call(&bind.CallOpts{Context: ctx}, &out, totalMintedMethod); err != nil {
		return 0, fmt.Errorf("%s: %w", totalMintedMethod, err)
	}
	if len(out) != 1 {
		return 0, fmt.Errorf("%s: unexpected output %v", totalMintedMethod, out)
	}
	n, ok := out[0].(*big.Int)
	if !ok || !n.IsUint64() {
		return 0, fmt.Errorf("%s: unexpected value %v", totalMintedMethod, out[0])
	}
	return n.Uint64(), nil
}

// Mint submits makeAnEpicNFT() on behalf of from.
func (c *EpicNFT) Mint(ctx context.Context, from string) (PendingTx, error) {
	if c.signer != nil {
		return c.mintSigned(ctx)
	}

	data, err := c.abi.Pack(mintMethod)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", mintMethod, err)
	}
	args := map[string]interface{}{
		"from": common.HexToAddress(from),
		"to":   c.address,
		"data": hexutil.Bytes(data),
	}
	var hash common.Hash
	if err := c.rpc.CallContext(ctx, &hash, "eth_sendTransaction", args); err != nil {
		return nil, fmt.Errorf("send %s: %w", mintMethod, wallet.ClassifyError(err))
	}
	log.Printf("[nft] Submitted %s from %s: %s", mintMethod, from, hash.Hex())
	return &pendingTx{hash: hash, backend: c.backend, interval: c.pollInterval}, nil
}

func (c *EpicNFT) mintSigned(ctx context.Context) (PendingTx, error) {
	chainID, err := c.backend.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("chain id: %w", err)
	}
	opts, err := c.signer.Transactor(chainID)
	if err != nil {
		return nil, err
	}
	opts.Context = ctx

	tx, err := c.contract.Transact(opts, mintMethod)
	if err != nil {
		return nil, fmt.Errorf("transact %s: %w", mintMethod, err)
	}
	log.Printf("[nft] Submitted %s from %s: %s", mintMethod, opts.From.Hex(), tx.Hash().Hex())
	return &pendingTx{hash: tx.Hash(), backend: c.backend, interval: c.pollInterval}, nil
}

// UnpackMinted decodes a NewEpicNFTMinted log.
func (c *EpicNFT) UnpackMinted(l types.Log) (MintedEvent, error) {
	var out struct {
		Sender  common.Address
		TokenId *big.Int
	}
	if err := c.contract.UnpackLog(&out, MintedEventName, l); err != nil {
		return MintedEvent{}, err
	}
	return MintedEvent{
		From:        out.Sender,
		TokenID:     out.TokenId,
		TxHash:      l.TxHash,
		LogIndex:    l.Index,
		BlockNumber: l.BlockNumber,
	}, nil
}

type pendingTx struct {
	hash     common.Hash
	backend  *ethclient.Client
	interval time.Duration
}

func (p *pendingTx) Hash() common.Hash { return p.hash }

// Wait polls for the receipt until the transaction is mined or ctx ends.
func (p *pendingTx) Wait(ctx context.Context) (*types.Receipt, error) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		receipt, err := p.backend.TransactionReceipt(ctx, p.hash)
		switch {
		case err == nil:
			if receipt.Status == types.ReceiptStatusFailed {
				return receipt, fmt.Errorf("%w: %s", ErrReverted, p.hash.Hex())
			}
			return receipt, nil
		case !errors.Is(err, ethereum.NotFound):
			return nil, fmt.Errorf("receipt %s: %w", p.hash.Hex(), err)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}
