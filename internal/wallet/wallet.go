package wallet

import (
	"crypto/ecdsa"
	"fmt"
	"log"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Wallet holds a secp256k1 private key and its derived account address.
type Wallet struct {
	PrivateKey *ecdsa.PrivateKey
	PublicKey  []byte // 33-byte compressed public key
	Address    common.Address
	Key        string // Hex private key, no 0x prefix
}

// Load creates a wallet from a hex-encoded private key (0x prefix optional).
func Load(hexKey string) (*Wallet, error) {
	if hexKey == "" {
		return nil, fmt.Errorf("no wallet key provided")
	}
	hexKey = strings.TrimPrefix(strings.TrimSpace(hexKey), "0x")

	privKey, err := crypto.HexToECDSA(hexKey)
	if err != nil {
		return nil, fmt.Errorf("decode key: %w", err)
	}

	w := fromKey(privKey)
	log.Printf("[wallet] Loaded key, address: %s", w.Address.Hex())
	return w, nil
}

// Generate creates a new random wallet.
func Generate() (*Wallet, error) {
	privKey, err := crypto.GenerateKey()
	if err != nil {
		return nil, fmt.Errorf("generate key: %w", err)
	}
	return fromKey(privKey), nil
}

func fromKey(privKey *ecdsa.PrivateKey) *Wallet {
	return &Wallet{
		PrivateKey: privKey,
		PublicKey:  crypto.CompressPubkey(&privKey.PublicKey),
		Address:    crypto.PubkeyToAddress(privKey.PublicKey),
		Key:        common.Bytes2Hex(crypto.FromECDSA(privKey)),
	}
}

// Transactor returns EIP-155 signing options bound to chainID.
func (w *Wallet) Transactor(chainID *big.Int) (*bind.TransactOpts, error) {
	opts, err := bind.NewKeyedTransactorWithChainID(w.PrivateKey, chainID)
	if err != nil {
		return nil, fmt.Errorf("transactor: %w", err)
	}
	return opts, nil
}
