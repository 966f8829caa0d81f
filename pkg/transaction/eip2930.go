package transaction

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// EIP2930Tx is an access list transaction (type 0x01).
type EIP2930Tx struct {
	ChainID    *uint256.Int
	Nonce      uint64
	GasPrice   *uint256.Int
	Gas        uint64
	To         *common.Address
	Value      *uint256.Int
	Input      []byte
	AccessList AccessList
}

func (*EIP2930Tx) isTransaction() {}
func (*EIP2930Tx) isPayload()     {}

// NewEIP2930Tx validates f as an access list transaction.
func NewEIP2930Tx(f Fields) (*EIP2930Tx, error) {
	var (
		tx = &EIP2930Tx{
			To:         copyAddress(f.To),
			Input:      copyBytes(f.Input),
			AccessList: copyAccessList(f.AccessList),
		}
		err error
	)
	if tx.ChainID, err = requireU256(f, FieldChainID); err != nil {
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

func (tx *EIP2930Tx) payloadList() []interface{} {
	return []interface{}{
		u256Item(tx.ChainID),
		tx.Nonce,
		u256Item(tx.GasPrice),
		tx.Gas,
		addressItem(tx.To),
		u256Item(tx.Value),
		tx.Input,
		accessListItem(tx.AccessList),
	}
}

func eip2930FromRLPList(items []interface{}) (*EIP2930Tx, []interface{}, error) {
	r := newListReader("eip2930 transaction", items, 8)
	tx := &EIP2930Tx{
		ChainID:    r.u256(FieldChainID),
		Nonce:      r.uint64(FieldNonce),
		GasPrice:   r.u256(FieldGasPrice),
		Gas:        r.uint64(FieldGas),
		To:         r.address(FieldTo),
		Value:      r.u256(FieldValue),
		Input:      r.input(),
		AccessList: r.accessList(),
	}
	if r.err != nil {
		return nil, nil, r.err
	}
	return tx, r.rest(), nil
}
