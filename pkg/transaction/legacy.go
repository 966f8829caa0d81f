package transaction

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// LegacyTx is a pre-EIP-2718 transaction. A nil ChainID means the transaction is not
// replay protected (pre EIP-155).
type LegacyTx struct {
	ChainID  *uint256.Int
	Nonce    uint64
	GasPrice *uint256.Int
	Gas      uint64
	To       *common.Address
	Value    *uint256.Int
	Input    []byte
}

func (*LegacyTx) isTransaction() {}
func (*LegacyTx) isPayload()     {}

// NewLegacyTx validates f as a legacy transaction. chain_id is optional.
func NewLegacyTx(f Fields) (*LegacyTx, error) {
	var (
		tx  = &LegacyTx{To: copyAddress(f.To), Input: copyBytes(f.Input)}
		err error
	)
	if tx.ChainID, err = optionalU256(f, FieldChainID); err != nil {
		return nil, err
	}
	if tx.Nonce, err = requireU64(f, FieldNonce); err != nil {
		return nil, err
	}
	if tx.GasPrice, err = requireU256(f, FieldGasPrice); err != nil {
		return nil, err
	}
	if tx.Gas, err = requireU64(f, FieldGas); err != nil {
		return nil, err
	}
	if tx.Value, err = valueOrZero(f); err != nil {
		return nil, err
	}
	return tx, nil
}

// withChainID returns a copy bound to chainID.
func (tx *LegacyTx) withChainID(chainID *uint256.Int) *LegacyTx {
	cpy := *tx
	cpy.ChainID = chainID
	return &cpy
}

// payloadList 六个字段，EIP-155 的 (chainId, 0, 0) 由 ToRLPList 在哈希模式下追加
func (tx *LegacyTx) payloadList() []interface{} {
	return []interface{}{
		tx.Nonce,
		u256Item(tx.GasPrice),
		tx.Gas,
		addressItem(tx.To),
		u256Item(tx.Value),
		tx.Input,
	}
}

// legacyFromRLPList parses the six payload items and returns the signature tail.
// A tail of (chainId, "", "") has zero r and s, so it is read as an unsigned
// EIP-155 preimage for chainId rather than as a signature.
func legacyFromRLPList(items []interface{}) (*LegacyTx, []interface{}, error) {
	r := newListReader("legacy transaction", items, 6)
	tx := &LegacyTx{
		Nonce:    r.uint64(FieldNonce),
		GasPrice: r.u256(FieldGasPrice),
		Gas:      r.uint64(FieldGas),
		To:       r.address(FieldTo),
		Value:    r.u256(FieldValue),
		Input:    r.input(),
	}
	if r.err != nil {
		return nil, nil, r.err
	}
	tail := r.rest()
	// 未签名的 EIP-155 签名原像：尾部为 (chainId, "", "")
	if chainID, ok := eip155Preimage(tail); ok {
		tx.ChainID = chainID
		tail = nil
	}
	return tx, tail, nil
}

func eip155Preimage(tail []interface{}) (*uint256.Int, bool) {
	if len(tail) != 3 {
		return nil, false
	}
	for _, item := range tail[1:] {
		if b, ok := item.([]byte); !ok || len(b) != 0 {
			return nil, false
		}
	}
	b, ok := tail[0].([]byte)
	if !ok {
		return nil, false
	}
	chainID, err := decodeU256(FieldChainID, b)
	if err != nil {
		return nil, false
	}
	return chainID, true
}
