package transaction

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// EIP4844Tx is a blob transaction (type 0x03) without its sidecar.
// Blob transactions cannot create contracts, so To is mandatory.
type EIP4844Tx struct {
	ChainID              *uint256.Int
	Nonce                uint64
	MaxPriorityFeePerGas *uint256.Int
	MaxFeePerGas         *uint256.Int
	Gas                  uint64
	To                   common.Address
	Value                *uint256.Int
	Input                []byte
	AccessList           AccessList
	MaxFeePerBlobGas     *uint256.Int
	BlobVersionedHashes  []common.Hash
}

func (*EIP4844Tx) isTransaction() {}
func (*EIP4844Tx) isPayload()     {}

// NewEIP4844Tx validates f as a blob transaction.
func NewEIP4844Tx(f Fields) (*EIP4844Tx, error) {
	if f.To == nil {
		return nil, &ValidationError{Field: string(FieldTo), Reason: "blob transactions cannot create contracts"}
	}
	var (
		tx = &EIP4844Tx{
			To:                  *f.To,
			Input:               copyBytes(f.Input),
			AccessList:          copyAccessList(f.AccessList),
			BlobVersionedHashes: copyHashes(f.BlobVersionedHashes),
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
	if tx.MaxFeePerBlobGas, err = requireU256(f, FieldMaxFeePerBlobGas); err != nil {
		return nil, err
	}
	return tx, nil
}

func (tx *EIP4844Tx) payloadList() []interface{} {
	return []interface{}{
		u256Item(tx.ChainID),
		tx.Nonce,
		u256Item(tx.MaxPriorityFeePerGas),
		u256Item(tx.MaxFeePerGas),
		tx.Gas,
		tx.To.Bytes(),
		u256Item(tx.Value),
		tx.Input,
		accessListItem(tx.AccessList),
		u256Item(tx.MaxFeePerBlobGas),
		hashesItem(tx.BlobVersionedHashes),
	}
}

func eip4844FromRLPList(items []interface{}) (*EIP4844Tx, []interface{}, error) {
	r := newListReader("eip4844 transaction", items, 11)
	tx := &EIP4844Tx{
		ChainID:              r.u256(FieldChainID),
		Nonce:                r.uint64(FieldNonce),
		MaxPriorityFeePerGas: r.u256(FieldMaxPriorityFeePerGas),
		MaxFeePerGas:         r.u256(FieldMaxFeePerGas),
		Gas:                  r.uint64(FieldGas),
	}
	to := r.address(FieldTo)
	tx.Value = r.u256(FieldValue)
	tx.Input = r.input()
	tx.AccessList = r.accessList()
	tx.MaxFeePerBlobGas = r.u256(FieldMaxFeePerBlobGas)
	tx.BlobVersionedHashes = r.hashes(FieldBlobVersionedHashes)
	if r.err != nil {
		return nil, nil, r.err
	}
	if to == nil {
		return nil, nil, decodeErrorf("eip4844 transaction: to must be %d bytes", common.AddressLength)
	}
	tx.To = *to
	return tx, r.rest(), nil
}
