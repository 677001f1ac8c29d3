package wallet

import (
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"sync"

	"github.com/Mohsinsiddi/w3bind/internal/binding"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
)

// Signer signs EVM transactions for a signing wallet. The key is read from
// the keystore on first use.
type Signer struct {
	wallet *Wallet
	ks     KeyStore

	once sync.Once
	key  *ecdsa.PrivateKey
	err  error
}

// NewSigner creates a signer for the given wallet.
func NewSigner(w *Wallet, ks KeyStore) (*Signer, error) {
	if w.Type != TypeSigning {
		return nil, fmt.Errorf("%w: %s", ErrWatchOnly, w.Name)
	}
	return &Signer{wallet: w, ks: ks}, nil
}

// Address returns the wallet's address.
func (s *Signer) Address() common.Address {
	return s.wallet.Address
}

func (s *Signer) privateKey() (*ecdsa.PrivateKey, error) {
	s.once.Do(func() {
		hexKey, err := s.ks.Retrieve(s.wallet.KeyRef)
		if err != nil {
			s.err = fmt.Errorf("retrieving key: %w", err)
			return
		}
		key, err := crypto.HexToECDSA(normaliseHexKey(hexKey))
		if err != nil {
			s.err = fmt.Errorf("parsing private key: %w", err)
			return
		}
		if addr := crypto.PubkeyToAddress(key.PublicKey); addr != s.wallet.Address {
			s.err = fmt.Errorf("stored key belongs to %s, wallet %q is %s", addr.Hex(), s.wallet.Name, s.wallet.Address.Hex())
			return
		}
		s.key = key
	})
	return s.key, s.err
}

// SignTx signs tx for chainID.
func (s *Signer) SignTx(tx *types.Transaction, chainID *big.Int) (*types.Transaction, error) {
	key, err := s.privateKey()
	if err != nil {
		return nil, err
	}
	signed, err := types.SignTx(tx, types.LatestSignerForChainID(chainID), key)
	if err != nil {
		return nil, fmt.Errorf("signing transaction: %w", err)
	}
	return signed, nil
}

// SignerFn adapts the signer to the binding write pipeline for chainID.
func (s *Signer) SignerFn(chainID *big.Int) binding.SignerFn {
	return func(from common.Address, tx *types.Transaction) (*types.Transaction, error) {
		if from != s.wallet.Address {
			return nil, fmt.Errorf("wallet %q cannot sign for %s", s.wallet.Name, from.Hex())
		}
		return s.SignTx(tx, chainID)
	}
}

// TransactOpts returns write options that send from this wallet on chainID.
func (s *Signer) TransactOpts(chainID *big.Int) *binding.TransactOpts {
	return &binding.TransactOpts{From: s.wallet.Address, Signer: s.SignerFn(chainID)}
}
