package transaction

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// Fields is a partial transaction record. A nil field is absent.
//
// Numbers are kept as big integers so that out-of-range input survives until New
// rejects it. From is only used to fill defaults and is never serialized.
type Fields struct {
	Type                 *Type
	From                 *common.Address
	ChainID              *big.Int
	Nonce                *big.Int
	Gas                  *big.Int
	GasPrice             *big.Int
	MaxPriorityFeePerGas *big.Int
	MaxFeePerGas         *big.Int
	MaxFeePerBlobGas     *big.Int
	To                   *common.Address
	Value                *big.Int
	Input                []byte
	AccessList           AccessList
	BlobVersionedHashes  []common.Hash
}

// TxType returns the record's type tag, or DefaultType when it carries none.
func (f Fields) TxType() Type {
	if f.Type == nil {
		return DefaultType
	}
	return *f.Type
}

// WithType returns a copy of f tagged with t.
func (f Fields) WithType(t Type) Fields {
	f.Type = &t
	return f
}

func (f *Fields) numeric(name Field) **big.Int {
	switch name {
	case FieldChainID:
		return &f.ChainID
	case FieldNonce:
		return &f.Nonce
	case FieldGas:
		return &f.Gas
	case FieldGasPrice:
		return &f.GasPrice
	case FieldMaxPriorityFeePerGas:
		return &f.MaxPriorityFeePerGas
	case FieldMaxFeePerGas:
		return &f.MaxFeePerGas
	case FieldMaxFeePerBlobGas:
		return &f.MaxFeePerBlobGas
	case FieldValue:
		return &f.Value
	default:
		return nil
	}
}

// Get returns the numeric field name, or nil when it is absent or not numeric.
func (f Fields) Get(name Field) *big.Int {
	if p := f.numeric(name); p != nil {
		return *p
	}
	return nil
}

// Has reports whether name is present in the record.
func (f Fields) Has(name Field) bool {
	switch name {
	case FieldType:
		return f.Type != nil
	case FieldFrom:
		return f.From != nil
	case FieldTo:
		return f.To != nil
	case FieldInput:
		return f.Input != nil
	case FieldAccessList:
		return f.AccessList != nil
	case FieldBlobVersionedHashes:
		return f.BlobVersionedHashes != nil
	}
	return f.Get(name) != nil
}

// With returns a copy of f with the numeric field name set to v.
// Non-numeric names leave the copy unchanged.
func (f Fields) With(name Field, v *big.Int) Fields {
	if p := f.numeric(name); p != nil {
		if v != nil {
			v = new(big.Int).Set(v)
		}
		*p = v
	}
	return f
}

// Missing returns the names that are absent from f, keeping their order.
func (f Fields) Missing(names []Field) []Field {
	var missing []Field
	for _, name := range names {
		if !f.Has(name) {
			missing = append(missing, name)
		}
	}
	return missing
}

// FieldsOf converts a payload back into a field record tagged with its type.
func FieldsOf(p Payload) Fields {
	var f Fields
	switch tx := p.(type) {
	case *LegacyTx:
		f = Fields{
			ChainID:  bigOrNil(tx.ChainID),
			Nonce:    new(big.Int).SetUint64(tx.Nonce),
			GasPrice: tx.GasPrice.ToBig(),
			Gas:      new(big.Int).SetUint64(tx.Gas),
			To:       copyAddress(tx.To),
			Value:    tx.Value.ToBig(),
			Input:    tx.Input,
		}
	case *EIP2930Tx:
		f = Fields{
			ChainID:    tx.ChainID.ToBig(),
			Nonce:      new(big.Int).SetUint64(tx.Nonce),
			GasPrice:   tx.GasPrice.ToBig(),
			Gas:        new(big.Int).SetUint64(tx.Gas),
			To:         copyAddress(tx.To),
			Value:      tx.Value.ToBig(),
			Input:      tx.Input,
			AccessList: tx.AccessList,
		}
	case *EIP1559Tx:
		f = Fields{
			ChainID:              tx.ChainID.ToBig(),
			Nonce:                new(big.Int).SetUint64(tx.Nonce),
			MaxPriorityFeePerGas: tx.MaxPriorityFeePerGas.ToBig(),
			MaxFeePerGas:         tx.MaxFeePerGas.ToBig(),
			Gas:                  new(big.Int).SetUint64(tx.Gas),
			To:                   copyAddress(tx.To),
			Value:                tx.Value.ToBig(),
			Input:                tx.Input,
			AccessList:           tx.AccessList,
		}
	case *EIP4844Tx:
		f = Fields{
			ChainID:              tx.ChainID.ToBig(),
			Nonce:                new(big.Int).SetUint64(tx.Nonce),
			MaxPriorityFeePerGas: tx.MaxPriorityFeePerGas.ToBig(),
			MaxFeePerGas:         tx.MaxFeePerGas.ToBig(),
			Gas:                  new(big.Int).SetUint64(tx.Gas),
			To:                   copyAddress(&tx.To),
			Value:                tx.Value.ToBig(),
			Input:                tx.Input,
			AccessList:           tx.AccessList,
			MaxFeePerBlobGas:     tx.MaxFeePerBlobGas.ToBig(),
			BlobVersionedHashes:  tx.BlobVersionedHashes,
		}
	default:
		panic(&UnsupportedTransactionError{Type: shapeOf(p)})
	}
	return f.WithType(TypeID(p))
}

// New validates f and builds the variant selected by its type tag.
func New(f Fields) (Payload, error) {
	switch t := f.TxType(); t {
	case LegacyTxType:
		return NewLegacyTx(f)
	case AccessListTxType:
		return NewEIP2930Tx(f)
	case DynamicFeeTxType:
		return NewEIP1559Tx(f)
	case BlobTxType:
		return NewEIP4844Tx(f)
	default:
		return nil, &UnsupportedTransactionError{Type: t.String()}
	}
}

// 数值校验：缺失、负数、超出位宽统一返回 ValidationError

func toU256(name Field, v *big.Int) (*uint256.Int, error) {
	if v.Sign() < 0 {
		return nil, &ValidationError{Field: string(name), Reason: "must not be negative"}
	}
	z, overflow := uint256.FromBig(v)
	if overflow {
		return nil, &ValidationError{Field: string(name), Reason: "exceeds 256 bits"}
	}
	return z, nil
}

func requireU256(f Fields, name Field) (*uint256.Int, error) {
	v := f.Get(name)
	if v == nil {
		return nil, missingField(name)
	}
	return toU256(name, v)
}

func optionalU256(f Fields, name Field) (*uint256.Int, error) {
	v := f.Get(name)
	if v == nil {
		return nil, nil
	}
	return toU256(name, v)
}

func requireU64(f Fields, name Field) (uint64, error) {
	v := f.Get(name)
	if v == nil {
		return 0, missingField(name)
	}
	if v.Sign() < 0 {
		return 0, &ValidationError{Field: string(name), Reason: "must not be negative"}
	}
	if !v.IsUint64() {
		return 0, &ValidationError{Field: string(name), Reason: "exceeds 64 bits"}
	}
	return v.Uint64(), nil
}

// value 缺省为 0
func valueOrZero(f Fields) (*uint256.Int, error) {
	v, err := optionalU256(f, FieldValue)
	if err != nil || v != nil {
		return v, err
	}
	return new(uint256.Int), nil
}

func bigOrNil(v *uint256.Int) *big.Int {
	if v == nil {
		return nil
	}
	return v.ToBig()
}

func copyAddress(a *common.Address) *common.Address {
	if a == nil {
		return nil
	}
	cpy := *a
	return &cpy
}

func copyBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	return common.CopyBytes(b)
}

func copyAccessList(al AccessList) AccessList {
	if len(al) == 0 {
		return nil
	}
	out := make(AccessList, len(al))
	for i, tuple := range al {
		out[i].Address = tuple.Address
		if len(tuple.StorageKeys) > 0 {
			out[i].StorageKeys = append([]common.Hash(nil), tuple.StorageKeys...)
		}
	}
	return out
}

func copyHashes(hs []common.Hash) []common.Hash {
	if len(hs) == 0 {
		return nil
	}
	return append([]common.Hash(nil), hs...)
}
