package transaction

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/holiman/uint256"
)

// Signature is a recoverable secp256k1 signature over a 32 byte digest.
type Signature struct {
	R          [32]byte
	S          [32]byte
	RecoveryID byte
}

// Signer produces recoverable signatures. Key custody stays with the implementation.
type Signer interface {
	SignHash(hash common.Hash) (Signature, error)
}

// Encode serializes tx. Unsigned payloads encode as their signing preimage, signed
// transactions as their wire form.
func Encode(tx Transaction) ([]byte, error) {
	mode := HashMode
	if _, ok := tx.(*SignedTx); ok {
		mode = PayloadMode
	}
	list, err := ToRLPList(tx, mode)
	if err != nil {
		return nil, err
	}
	body, err := rlp.EncodeToBytes(list)
	if err != nil {
		return nil, err
	}
	return append(TypeEnvelope(tx), body...), nil
}

// Hash returns the Keccak-256 of Encode(tx). For a signed transaction this is the
// transaction hash; for a payload it is the signing hash.
func Hash(tx Transaction) (common.Hash, error) {
	raw, err := Encode(tx)
	if err != nil {
		return common.Hash{}, err
	}
	return crypto.Keccak256Hash(raw), nil
}

// SigningHash returns the digest a signer must sign for p.
func SigningHash(p Payload) (common.Hash, error) {
	return Hash(p)
}

// Decode parses raw wire bytes into a payload or a *SignedTx.
func Decode(raw []byte) (Transaction, error) {
	if len(raw) == 0 {
		return nil, decodeErrorf("empty input")
	}

	// 1. 判断信封：0x01-0x03 为类型交易，>= 0xc0 为 legacy RLP 列表
	t, body := LegacyTxType, raw
	switch b := raw[0]; {
	case b >= 0xc0:
	case Type(b).valid() && Type(b) != LegacyTxType:
		t, body = Type(b), raw[1:]
	case b <= 0x7f:
		return nil, &UnsupportedTransactionError{Type: fmt.Sprintf("0x%02x", b)}
	default:
		return nil, decodeErrorf("input is not an RLP list")
	}

	// 2. 解码 RLP 列表
	var items []interface{}
	if err := rlp.DecodeBytes(body, &items); err != nil {
		return nil, &DecodeError{Reason: "rlp", Err: err}
	}

	// 3. 解析字段，剩余部分为签名
	payload, tail, err := payloadFromRLPList(t, items)
	if err != nil {
		return nil, err
	}
	signed, err := SignedFromRLPList(tail, payload)
	if errors.Is(err, ErrNoSignature) {
		return payload, nil
	}
	if err != nil {
		return nil, err
	}
	return signed, nil
}

// DecodeHex decodes a 0x-prefixed hex string.
func DecodeHex(s string) (Transaction, error) {
	raw, err := hexutil.Decode(s)
	if err != nil {
		return nil, &DecodeError{Reason: "hex", Err: err}
	}
	return Decode(raw)
}

// Sign signs p with signer and wraps it with the resulting signature.
func Sign(p Payload, signer Signer) (*SignedTx, error) {
	hash, err := SigningHash(p)
	if err != nil {
		return nil, err
	}
	sig, err := signer.SignHash(hash)
	if err != nil {
		return nil, err
	}
	return WithSignature(p, sig)
}

// WithSignature wraps p with sig, computing the v slot from p's chain binding.
func WithSignature(p Payload, sig Signature) (*SignedTx, error) {
	v, err := CalculateYParityOrV(p, sig.RecoveryID)
	if err != nil {
		return nil, err
	}
	r := new(uint256.Int).SetBytes32(sig.R[:])
	s := new(uint256.Int).SetBytes32(sig.S[:])
	return NewSignedTx(p, r, s, v), nil
}
