package wallet

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/big"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"
)

var (
	// ErrNoProvider means no wallet provider is configured.
	ErrNoProvider = errors.New("no wallet provider")
	// ErrUserRejected is EIP-1193 error 4001.
	ErrUserRejected = errors.New("user rejected the request")
)

const userRejectedCode = 4001

// Provider is the wallet API the panel talks to: account discovery, account
// access requests and the active chain.
type Provider interface {
	Accounts(ctx context.Context) ([]string, error)
	RequestAccounts(ctx context.Context) ([]string, error)
	ChainID(ctx context.Context) (string, error)
}

// RPCProvider forwards wallet requests to a JSON-RPC endpoint that manages
// accounts itself (a node with unlocked accounts, a signer, a wallet bridge).
type RPCProvider struct {
	client *rpc.Client
}

// Dial connects to a JSON-RPC endpoint (http, ws or ipc).
func Dial(ctx context.Context, url string) (*RPCProvider, error) {
	if url == "" {
		return nil, ErrNoProvider
	}
	c, err := rpc.DialContext(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}
	return NewRPCProvider(c), nil
}

func NewRPCProvider(c *rpc.Client) *RPCProvider {
	return &RPCProvider{client: c}
}

// Client exposes the underlying RPC client for the contract binding.
func (p *RPCProvider) Client() *rpc.Client { return p.client }

func (p *RPCProvider) Close() { p.client.Close() }

func (p *RPCProvider) Accounts(ctx context.Context) ([]string, error) {
	var accounts []string
	if err := p.client.CallContext(ctx, &accounts, "eth_accounts"); err != nil {
		return nil, ClassifyError(err)
	}
	return accounts, nil
}

func (p *RPCProvider) RequestAccounts(ctx context.Context) ([]string, error) {
	var accounts []string
	if err := p.client.CallContext(ctx, &accounts, "eth_requestAccounts"); err != nil {
		return nil, ClassifyError(err)
	}
	return accounts, nil
}

func (p *RPCProvider) ChainID(ctx context.Context) (string, error) {
	var id hexutil.Big
	if err := p.client.CallContext(ctx, &id, "eth_chainId"); err != nil {
		return "", ClassifyError(err)
	}
	return hexutil.EncodeBig((*big.Int)(&id)), nil
}

// ClassifyError maps EIP-1193 rejections to ErrUserRejected and leaves other
// errors untouched.
func ClassifyError(err error) error {
	var rpcErr rpc.Error
	if errors.As(err, &rpcErr) && rpcErr.ErrorCode() == userRejectedCode {
		return fmt.Errorf("%w: %s", ErrUserRejected, rpcErr.Error())
	}
	return err
}

// Authorizer remembers which account the user granted access to.
type Authorizer interface {
	Authorized() (string, error)
	Authorize(account string) error
}

// ChainReader reports the active chain id.
type ChainReader interface {
	ChainID(ctx context.Context) (string, error)
}

// KeyProvider serves a locally held key as a wallet. Its account is only
// reported by Accounts after RequestAccounts granted it.
type KeyProvider struct {
	wallet *Wallet
	auth   Authorizer
	chain  ChainReader

	mu      sync.Mutex
	granted bool // used when auth is nil
}

// NewKeyProvider wraps w. auth may be nil to keep the grant in memory.
func NewKeyProvider(w *Wallet, auth Authorizer, chain ChainReader) *KeyProvider {
	return &KeyProvider{wallet: w, auth: auth, chain: chain}
}

func (p *KeyProvider) Wallet() *Wallet { return p.wallet }

func (p *KeyProvider) Accounts(_ context.Context) ([]string, error) {
	addr := p.wallet.Address.Hex()
	if p.auth == nil {
		p.mu.Lock()
		defer p.mu.Unlock()
		if p.granted {
			return []string{addr}, nil
		}
		return []string{}, nil
	}

	stored, err := p.auth.Authorized()
	if err != nil {
		return nil, fmt.Errorf("read authorization: %w", err)
	}
	if strings.EqualFold(stored, addr) {
		return []string{addr}, nil
	}
	return []string{}, nil
}

func (p *KeyProvider) RequestAccounts(_ context.Context) ([]string, error) {
	addr := p.wallet.Address.Hex()
	if p.auth == nil {
		p.mu.Lock()
		p.granted = true
		p.mu.Unlock()
	} else if err := p.auth.Authorize(addr); err != nil {
		return nil, fmt.Errorf("persist authorization: %w", err)
	}
	log.Printf("[wallet] Authorized local account %s", addr)
	return []string{addr}, nil
}

func (p *KeyProvider) ChainID(ctx context.Context) (string, error) {
	if p.chain == nil {
		return "", ErrNoProvider
	}
	return p.chain.ChainID(ctx)
}

// ParseChainID decodes a hex chain id such as "0x4". Leading zeros are
// accepted.
func ParseChainID(s string) (*big.Int, error) {
	digits := strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), "0x")
	id, ok := new(big.Int).SetString(digits, 16)
	if !ok || digits == "" {
		return nil, fmt.Errorf("chain id %q: invalid hex", s)
	}
	return id, nil
}

// SameChain compares two hex chain ids numerically ("0x04" == "0x4").
func SameChain(a, b string) bool {
	x, err := ParseChainID(a)
	if err != nil {
		return false
	}
	y, err := ParseChainID(b)
	if err != nil {
		return false
	}
	return x.Cmp(y) == 0
}
