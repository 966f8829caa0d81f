package signer

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/ethereum/go-ethereum/common"

	"wallet-tx/pkg/address"
	"wallet-tx/pkg/transaction"
)

var ErrInvalidPrivateKey = errors.New("signer: invalid private key")

// KeySigner 使用内存中的 secp256k1 私钥签名
type KeySigner struct {
	key     *btcec.PrivateKey
	address common.Address
}

var _ transaction.Signer = (*KeySigner)(nil)

// NewKeySigner wraps key.
func NewKeySigner(key *btcec.PrivateKey) (*KeySigner, error) {
	addr, err := address.FromPublicKey(key.PubKey().SerializeUncompressed())
	if err != nil {
		return nil, err
	}
	return &KeySigner{key: key, address: addr}, nil
}

// NewKeySignerFromHex parses a 32 byte hex private key, with or without 0x.
func NewKeySignerFromHex(hexKey string) (*KeySigner, error) {
	raw, err := hex.DecodeString(strings.TrimPrefix(strings.TrimSpace(hexKey), "0x"))
	if err != nil || len(raw) != 32 {
		return nil, ErrInvalidPrivateKey
	}
	key, _ := btcec.PrivKeyFromBytes(raw)
	if key.Key.IsZero() {
		return nil, ErrInvalidPrivateKey
	}
	return NewKeySigner(key)
}

// Address returns the account address of the key.
func (s *KeySigner) Address() common.Address {
	return s.address
}

// SignHash returns a low-S recoverable signature over hash.
func (s *KeySigner) SignHash(hash common.Hash) (transaction.Signature, error) {
	// 紧凑签名格式: [27 + recoveryId] || r || s
	compact := ecdsa.SignCompact(s.key, hash[:], false)
	if len(compact) != 65 || compact[0] < 27 || compact[0] > 28 {
		return transaction.Signature{}, fmt.Errorf("签名失败: unexpected compact header %d", compact[0])
	}

	var sig transaction.Signature
	sig.RecoveryID = compact[0] - 27
	copy(sig.R[:], compact[1:33])
	copy(sig.S[:], compact[33:65])
	return sig, nil
}
