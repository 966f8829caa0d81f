package transaction

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"

	"wallet-tx/pkg/address"
)

var (
	big27 = uint256.NewInt(27)
	big35 = uint256.NewInt(35)
)

// SignedTx wraps a payload with its secp256k1 signature.
//
// YParityOrV holds the y-parity (0 or 1) for typed transactions and the legacy
// v value (27/28, or the EIP-155 form) for legacy ones.
type SignedTx struct {
	Payload    Payload
	R          *uint256.Int
	S          *uint256.Int
	YParityOrV *uint256.Int
}

func (*SignedTx) isTransaction() {}

// NewSignedTx wraps payload with the signature (r, s, v).
func NewSignedTx(payload Payload, r, s, yParityOrV *uint256.Int) *SignedTx {
	return &SignedTx{Payload: payload, R: r, S: s, YParityOrV: yParityOrV}
}

// Type returns the type of the wrapped payload.
func (tx *SignedTx) Type() Type { return TypeID(tx.Payload) }

// SignedFromRLPList splits the tail left over by a payload parser into a signature.
//
// An empty tail yields ErrNoSignature. For legacy payloads the chain id is derived
// from v and bound to the returned payload.
func SignedFromRLPList(tail []interface{}, payload Payload) (*SignedTx, error) {
	switch len(tail) {
	case 0:
		return nil, ErrNoSignature
	case 3:
	default:
		return nil, decodeErrorf("signature must have 3 fields, got %d", len(tail))
	}

	r := newListReader("signature", tail, 3)
	v := r.u256(FieldV)
	rr := r.u256(FieldR)
	s := r.u256(FieldS)
	if r.err != nil {
		return nil, r.err
	}

	if legacy, ok := payload.(*LegacyTx); ok {
		chainID, _, err := ClassifyLegacyV(v)
		if err != nil {
			return nil, &DecodeError{Reason: "legacy signature", Err: err}
		}
		payload = legacy.withChainID(chainID)
	}
	return NewSignedTx(payload, rr, s, v), nil
}

// ClassifyLegacyV splits a legacy v value into its chain id (nil before EIP-155)
// and recovery id.
func ClassifyLegacyV(v *uint256.Int) (*uint256.Int, byte, error) {
	switch {
	case v.IsUint64() && (v.Uint64() == 27 || v.Uint64() == 28):
		return nil, byte(v.Uint64() - 27), nil
	case !v.Lt(big35):
		// chainId = (v - 35) / 2, recoveryId = v - 2*chainId - 35
		x := new(uint256.Int).Sub(v, big35)
		recoveryID := byte(x.Uint64() & 1)
		return x.Rsh(x, 1), recoveryID, nil
	default:
		return nil, 0, decodeErrorf("invalid legacy v %s", v.Dec())
	}
}

// CalculateYParityOrV returns the value stored in the v slot for payload and recoveryID.
func CalculateYParityOrV(payload Payload, recoveryID byte) (*uint256.Int, error) {
	if recoveryID > 1 {
		return nil, &ValidationError{Field: "recovery_id", Reason: "must be 0 or 1"}
	}
	rid := uint256.NewInt(uint64(recoveryID))
	legacy, ok := payload.(*LegacyTx)
	if !ok {
		return rid, nil
	}
	if legacy.ChainID == nil {
		return rid.Add(rid, big27), nil
	}
	// v = recoveryId + chainId*2 + 35
	v, overflow := new(uint256.Int).MulOverflow(legacy.ChainID, uint256.NewInt(2))
	if overflow {
		return nil, &ValidationError{Field: string(FieldChainID), Reason: "too large for an EIP-155 v value"}
	}
	if _, overflow = v.AddOverflow(v, big35); overflow {
		return nil, &ValidationError{Field: string(FieldChainID), Reason: "too large for an EIP-155 v value"}
	}
	return v.Add(v, rid), nil
}

// RecoveryID returns the secp256k1 recovery id encoded in the v slot, using the
// payload's own chain binding.
func (tx *SignedTx) RecoveryID() (byte, error) {
	if tx.YParityOrV == nil {
		return 0, &RecoveryError{Reason: "missing v"}
	}
	v := tx.YParityOrV
	for rid := byte(0); rid <= 1; rid++ {
		want, err := CalculateYParityOrV(tx.Payload, rid)
		if err != nil {
			return 0, &RecoveryError{Reason: "invalid chain id", Err: err}
		}
		if want.Eq(v) {
			return rid, nil
		}
	}
	return 0, &RecoveryError{Reason: "v " + v.Dec() + " does not match the transaction's chain binding"}
}

// FromAddress recovers the sender of tx.
func FromAddress(tx *SignedTx) (common.Address, error) {
	if tx == nil || tx.Payload == nil {
		return common.Address{}, &RecoveryError{Reason: "nil transaction"}
	}
	if tx.R == nil || tx.S == nil {
		return common.Address{}, &RecoveryError{Reason: "missing r or s"}
	}
	rid, err := tx.RecoveryID()
	if err != nil {
		return common.Address{}, err
	}
	if !crypto.ValidateSignatureValues(rid, tx.R.ToBig(), tx.S.ToBig(), false) {
		return common.Address{}, &RecoveryError{Reason: "signature values out of range"}
	}
	hash, err := SigningHash(tx.Payload)
	if err != nil {
		return common.Address{}, &RecoveryError{Reason: "signing hash", Err: err}
	}

	// 65 字节签名 r || s || recoveryId
	sig := make([]byte, crypto.SignatureLength)
	r32, s32 := tx.R.Bytes32(), tx.S.Bytes32()
	copy(sig[:32], r32[:])
	copy(sig[32:64], s32[:])
	sig[64] = rid

	pub, err := crypto.Ecrecover(hash.Bytes(), sig)
	if err != nil {
		return common.Address{}, &RecoveryError{Reason: "ecrecover", Err: err}
	}
	addr, err := address.FromPublicKey(pub)
	if err != nil {
		return common.Address{}, &RecoveryError{Reason: "public key", Err: err}
	}
	return addr, nil
}
