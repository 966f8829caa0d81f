package filler

import (
	"math/big"

	"wallet-tx/pkg/transaction"
)

// Action fetches one field.
type Action struct {
	Field transaction.Field
	Call  Call
}

var (
	maxFeeHeadroom = [2]int64{120, 100} // max_fee_per_gas = gas_price * 1.2
	gasHeadroom    = [2]int64{110, 100} // gas = estimate * 1.1
)

// Plan returns the fetch actions for missing, in order. eth_estimateGas receives the
// record as it stands before any fill.
func Plan(fields transaction.Fields, missing []transaction.Field) ([]Action, error) {
	actions := make([]Action, 0, len(missing))
	for _, name := range missing {
		var call Call
		switch name {
		case transaction.FieldChainID:
			call = Call{Method: "eth_chainId"}
		case transaction.FieldNonce:
			if fields.From == nil {
				return nil, &transaction.ValidationError{Field: string(transaction.FieldFrom), Reason: "required to fetch the nonce"}
			}
			call = Call{Method: "eth_getTransactionCount", Params: []interface{}{fields.From.Hex(), "latest"}}
		case transaction.FieldGasPrice, transaction.FieldMaxFeePerGas:
			call = Call{Method: "eth_gasPrice"}
		case transaction.FieldMaxPriorityFeePerGas:
			call = Call{Method: "eth_maxPriorityFeePerGas"}
		case transaction.FieldMaxFeePerBlobGas:
			call = Call{Method: "eth_blobBaseFee"}
		case transaction.FieldGas:
			call = Call{Method: "eth_estimateGas", Params: []interface{}{fields.RPCMap()}}
		default:
			return nil, &transaction.ValidationError{Field: string(name), Reason: "cannot be fetched from a node"}
		}
		actions = append(actions, Action{Field: name, Call: call})
	}
	return actions, nil
}

// PostProcess applies the headroom rules to a fetched value. Values for other fields
// pass through unchanged.
func PostProcess(field transaction.Field, v *big.Int) *big.Int {
	switch field {
	case transaction.FieldMaxFeePerGas:
		return scale(v, maxFeeHeadroom)
	case transaction.FieldGas:
		return scale(v, gasHeadroom)
	default:
		return v
	}
}

// scale 整数运算后向下取整
func scale(v *big.Int, ratio [2]int64) *big.Int {
	out := new(big.Int).Mul(v, big.NewInt(ratio[0]))
	return out.Quo(out, big.NewInt(ratio[1]))
}
