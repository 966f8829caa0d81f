package transaction

import "fmt"

// Mode selects which RLP field list ToRLPList produces.
type Mode int

const (
	// PayloadMode is the list that goes on the wire, before any signature.
	PayloadMode Mode = iota
	// HashMode is the list whose encoding is signed.
	HashMode
)

func shapeOf(tx Transaction) string {
	return fmt.Sprintf("%T", tx)
}

// TypeID returns the EIP-2718 type of tx. It panics if tx is nil.
func TypeID(tx Transaction) Type {
	switch tx := tx.(type) {
	case *LegacyTx:
		return LegacyTxType
	case *EIP2930Tx:
		return AccessListTxType
	case *EIP1559Tx:
		return DynamicFeeTxType
	case *EIP4844Tx:
		return BlobTxType
	case *SignedTx:
		return TypeID(tx.Payload)
	default:
		panic(&UnsupportedTransactionError{Type: shapeOf(tx)})
	}
}

// TypeEnvelope returns the bytes that prefix the RLP body: empty for legacy
// transactions, the single type byte otherwise.
func TypeEnvelope(tx Transaction) []byte {
	if t := TypeID(tx); t != LegacyTxType {
		return []byte{byte(t)}
	}
	return []byte{}
}

// ToRLPList returns the RLP field list of tx for mode.
//
// Only a legacy transaction bound to a chain differs between the two modes: its hash
// list ends with (chainId, 0, 0) as EIP-155 requires. A signed transaction always uses
// its payload list followed by [v, r, s].
func ToRLPList(tx Transaction, mode Mode) ([]interface{}, error) {
	switch tx := tx.(type) {
	case *LegacyTx:
		if tx == nil {
			break
		}
		list := tx.payloadList()
		if mode == HashMode && tx.ChainID != nil {
			list = append(list, tx.ChainID, uint64(0), uint64(0))
		}
		return list, nil
	case *EIP2930Tx:
		if tx == nil {
			break
		}
		return tx.payloadList(), nil
	case *EIP1559Tx:
		if tx == nil {
			break
		}
		return tx.payloadList(), nil
	case *EIP4844Tx:
		if tx == nil {
			break
		}
		return tx.payloadList(), nil
	case *SignedTx:
		if tx == nil {
			break
		}
		list, err := ToRLPList(tx.Payload, PayloadMode)
		if err != nil {
			return nil, err
		}
		return append(list, u256Item(tx.YParityOrV), u256Item(tx.R), u256Item(tx.S)), nil
	}
	return nil, &UnsupportedTransactionError{Type: shapeOf(tx)}
}

// payloadFromRLPList parses the variant selected by t and returns the unconsumed tail.
func payloadFromRLPList(t Type, items []interface{}) (Payload, []interface{}, error) {
	var (
		p    Payload
		tail []interface{}
		err  error
	)
	switch t {
	case LegacyTxType:
		var tx *LegacyTx
		tx, tail, err = legacyFromRLPList(items)
		p = tx
	case AccessListTxType:
		var tx *EIP2930Tx
		tx, tail, err = eip2930FromRLPList(items)
		p = tx
	case DynamicFeeTxType:
		var tx *EIP1559Tx
		tx, tail, err = eip1559FromRLPList(items)
		p = tx
	case BlobTxType:
		var tx *EIP4844Tx
		tx, tail, err = eip4844FromRLPList(items)
		p = tx
	default:
		return nil, nil, &UnsupportedTransactionError{Type: t.String()}
	}
	if err != nil {
		return nil, nil, err
	}
	return p, tail, nil
}
