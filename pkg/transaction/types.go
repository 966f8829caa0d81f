package transaction

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// Type is the EIP-2718 transaction type id.
type Type uint8

const (
	LegacyTxType     Type = 0x00
	AccessListTxType Type = 0x01 // EIP-2930
	DynamicFeeTxType Type = 0x02 // EIP-1559
	BlobTxType       Type = 0x03 // EIP-4844
)

// DefaultType 是字段记录未携带类型时使用的交易类型
const DefaultType = DynamicFeeTxType

func (t Type) String() string {
	switch t {
	case LegacyTxType:
		return "legacy"
	case AccessListTxType:
		return "eip2930"
	case DynamicFeeTxType:
		return "eip1559"
	case BlobTxType:
		return "eip4844"
	default:
		return fmt.Sprintf("0x%x", uint8(t))
	}
}

func (t Type) valid() bool { return t <= BlobTxType }

// ParseType accepts a type name ("legacy", "eip1559"...), a decimal id or a 0x-prefixed hex id.
func ParseType(s string) (Type, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, t := range []Type{LegacyTxType, AccessListTxType, DynamicFeeTxType, BlobTxType} {
		if s == t.String() {
			return t, nil
		}
	}
	var (
		n   uint64
		err error
	)
	if strings.HasPrefix(s, "0x") {
		n, err = strconv.ParseUint(s[2:], 16, 8)
	} else {
		n, err = strconv.ParseUint(s, 10, 8)
	}
	if err != nil || !Type(n).valid() {
		return 0, &UnsupportedTransactionError{Type: strconv.Quote(s)}
	}
	return Type(n), nil
}

// Transaction is implemented by *LegacyTx, *EIP2930Tx, *EIP1559Tx, *EIP4844Tx and *SignedTx.
// The set is closed.
type Transaction interface {
	isTransaction()
}

// Payload is an unsigned transaction body: one of the four variants.
type Payload interface {
	Transaction
	isPayload()
}

// Field names a transaction field as it appears in field records.
type Field string

const (
	FieldType                 Field = "type"
	FieldFrom                 Field = "from"
	FieldChainID              Field = "chain_id"
	FieldNonce                Field = "nonce"
	FieldGas                  Field = "gas"
	FieldGasPrice             Field = "gas_price"
	FieldMaxPriorityFeePerGas Field = "max_priority_fee_per_gas"
	FieldMaxFeePerGas         Field = "max_fee_per_gas"
	FieldMaxFeePerBlobGas     Field = "max_fee_per_blob_gas"
	FieldTo                   Field = "to"
	FieldValue                Field = "value"
	FieldInput                Field = "input"
	FieldAccessList           Field = "access_list"
	FieldBlobVersionedHashes  Field = "blob_versioned_hashes"
	FieldV                    Field = "v"
	FieldR                    Field = "r"
	FieldS                    Field = "s"
)

// AutoFetchableFields returns, in fill order, the fields of t that may be fetched from a node.
func AutoFetchableFields(t Type) []Field {
	switch t {
	case LegacyTxType, AccessListTxType:
		return []Field{FieldChainID, FieldNonce, FieldGasPrice, FieldGas}
	case DynamicFeeTxType:
		return []Field{FieldChainID, FieldNonce, FieldMaxPriorityFeePerGas, FieldMaxFeePerGas, FieldGas}
	case BlobTxType:
		return []Field{FieldChainID, FieldNonce, FieldMaxPriorityFeePerGas, FieldMaxFeePerGas, FieldGas, FieldMaxFeePerBlobGas}
	default:
		return nil
	}
}

// AccessTuple is one EIP-2930 access list entry.
type AccessTuple struct {
	Address     common.Address `json:"address"`
	StorageKeys []common.Hash  `json:"storageKeys"`
}

// AccessList is an EIP-2930 access list.
type AccessList []AccessTuple

// StorageKeys returns the total number of storage keys across all tuples.
func (al AccessList) StorageKeys() int {
	n := 0
	for _, tuple := range al {
		n += len(tuple.StorageKeys)
	}
	return n
}
