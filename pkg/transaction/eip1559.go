package transaction

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// EIP1559Tx is a dynamic fee transaction (type 0x02).
type EIP1559Tx struct {
	ChainID              *uint256.Int
	Nonce                uint64
	MaxPriorityFeePerGas *uint256.Int
	MaxFeePerGas         *uint256.Int
	Gas                  uint64
	To                   *common.Address
	Value                *uint256.Int
	Input                []byte
	AccessList           AccessList
}

func (*EIP1559Tx) isTransaction() {}
func (*EIP1559Tx) isPayload()     {}

// NewEIP1559Tx validates f as a dynamic fee transaction.
func NewEIP1559Tx(f Fields) (*EIP1559Tx, error) {
	var (
		tx = &EIP1559Tx{
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
	if tx.MaxPriorityFeePerGas, err = requireU256(f, FieldMaxPriorityFeePerGas); err != nil {
		return nil, err
	}
	if tx.MaxFeePerGas, err = requireU256(f, FieldMaxFeePerGas); err != nil {
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

func (tx *EIP1559Tx) payloadList() []interface{} {
	return []interface{}{
		u256Item(tx.ChainID),
		tx.Nonce,
		u256Item(tx.MaxPriorityFeePerGas),
		u256Item(tx.MaxFeePerGas),
		tx.Gas,
		addressItem(tx.To),
		u256Item(tx.Value),
		tx.Input,
		accessListItem(tx.AccessList),
	}
}

func eip1559FromRLPList(items []interface{}) (*EIP1559Tx, []interface{}, error) {
	r := newListReader("eip1559 transaction", items, 9)
	tx := &EIP1559Tx{
		ChainID:              r.u256(FieldChainID),
		Nonce:                r.uint64(FieldNonce),
		MaxPriorityFeePerGas: r.u256(FieldMaxPriorityFeePerGas),
		MaxFeePerGas:         r.u256(FieldMaxFeePerGas),
		Gas:                  r.uint64(FieldGas),
		To:                   r.address(FieldTo),
		Value:                r.u256(FieldValue),
		Input:                r.input(),
		AccessList:           r.accessList(),
	}
	if r.err != nil {
		return nil, nil, r.err
	}
	return tx, r.rest(), nil
}
