package transaction

import (
	"encoding/json"
	"fmt"
	"math"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/holiman/uint256"

	"wallet-tx/pkg/address"
)

// RPCMap is a transaction in Ethereum JSON-RPC form: camelCase keys and 0x-prefixed
// hex quantities. Maps decoded from JSON and maps built in Go are both accepted.
type RPCMap map[string]interface{}

var rpcNames = map[Field]string{
	FieldType:                 "type",
	FieldFrom:                 "from",
	FieldChainID:              "chainId",
	FieldNonce:                "nonce",
	FieldGas:                  "gas",
	FieldGasPrice:             "gasPrice",
	FieldMaxPriorityFeePerGas: "maxPriorityFeePerGas",
	FieldMaxFeePerGas:         "maxFeePerGas",
	FieldMaxFeePerBlobGas:     "maxFeePerBlobGas",
	FieldTo:                   "to",
	FieldValue:                "value",
	FieldInput:                "input",
	FieldAccessList:           "accessList",
	FieldBlobVersionedHashes:  "blobVersionedHashes",
	FieldV:                    "v",
	FieldR:                    "r",
	FieldS:                    "s",
}

var numericFields = []Field{
	FieldChainID, FieldNonce, FieldGas, FieldGasPrice, FieldMaxPriorityFeePerGas,
	FieldMaxFeePerGas, FieldMaxFeePerBlobGas, FieldValue,
}

// RPCName returns the JSON-RPC key of f.
func RPCName(f Field) string {
	if name, ok := rpcNames[f]; ok {
		return name
	}
	return string(f)
}

// RPCMap renders the fields present in f. Absent fields are omitted.
func (f Fields) RPCMap() RPCMap {
	m := RPCMap{}
	if f.Type != nil {
		m["type"] = hexutil.EncodeUint64(uint64(*f.Type))
	}
	if f.From != nil {
		m["from"] = f.From.Hex()
	}
	for _, name := range numericFields {
		if v := f.Get(name); v != nil {
			m[RPCName(name)] = hexutil.EncodeBig(v)
		}
	}
	if f.To != nil {
		m["to"] = f.To.Hex()
	}
	if f.Input != nil {
		m["input"] = hexutil.Encode(f.Input)
	}
	if f.AccessList != nil {
		m["accessList"] = accessListToRPC(f.AccessList)
	}
	if f.BlobVersionedHashes != nil {
		m["blobVersionedHashes"] = hashesToRPC(f.BlobVersionedHashes)
	}
	return m
}

// ToRPCMap renders tx in JSON-RPC form. Signed transactions carry v, r and s, and
// typed ones also carry yParity.
func ToRPCMap(tx Transaction) (RPCMap, error) {
	switch tx := tx.(type) {
	case *SignedTx:
		if tx == nil || tx.Payload == nil {
			break
		}
		m, err := ToRPCMap(tx.Payload)
		if err != nil {
			return nil, err
		}
		v := hexutil.EncodeBig(u256Item(tx.YParityOrV).ToBig())
		m["v"] = v
		m["r"] = hexutil.EncodeBig(u256Item(tx.R).ToBig())
		m["s"] = hexutil.EncodeBig(u256Item(tx.S).ToBig())
		if tx.Type() != LegacyTxType {
			m["yParity"] = v
		}
		return m, nil
	case Payload:
		if _, err := ToRLPList(tx, PayloadMode); err != nil {
			return nil, err
		}
		f := FieldsOf(tx)
		m := f.RPCMap()
		m["input"] = hexutil.Encode(f.Input)
		if TypeID(tx) != LegacyTxType {
			m["accessList"] = accessListToRPC(f.AccessList)
		}
		if TypeID(tx) == BlobTxType {
			m["blobVersionedHashes"] = hashesToRPC(f.BlobVersionedHashes)
		}
		return m, nil
	}
	return nil, &UnsupportedTransactionError{Type: shapeOf(tx)}
}

// FromRPCMap builds a payload, or a *SignedTx when m carries r, s and v (or yParity).
func FromRPCMap(m RPCMap) (Transaction, error) {
	f, err := FieldsFromRPCMap(m)
	if err != nil {
		return nil, err
	}
	p, err := New(f)
	if err != nil {
		return nil, err
	}

	vKey := "v"
	if f.TxType() != LegacyTxType && m["yParity"] != nil {
		vKey = "yParity"
	}
	if m["r"] == nil && m["s"] == nil && m[vKey] == nil {
		return p, nil
	}
	var sig [3]*uint256.Int
	for i, key := range []string{vKey, "r", "s"} {
		if m[key] == nil {
			return nil, &ValidationError{Field: key, Reason: "incomplete signature"}
		}
		n, err := parseBig(key, m[key])
		if err != nil {
			return nil, err
		}
		if sig[i], err = toU256(Field(key), n); err != nil {
			return nil, err
		}
	}
	v, r, s := sig[0], sig[1], sig[2]

	if legacy, ok := p.(*LegacyTx); ok {
		chainID, _, err := ClassifyLegacyV(v)
		if err != nil {
			return nil, &ValidationError{Field: "v", Reason: err.Error()}
		}
		if legacy.ChainID != nil && (chainID == nil || !chainID.Eq(legacy.ChainID)) {
			return nil, &ValidationError{Field: "v", Reason: "does not match chainId"}
		}
		p = legacy.withChainID(chainID)
	} else if !v.IsUint64() || v.Uint64() > 1 {
		return nil, &ValidationError{Field: vKey, Reason: "y parity must be 0 or 1"}
	}
	return NewSignedTx(p, r, s, v), nil
}

// FieldsFromRPCMap parses m into a partial record. Unknown keys are ignored.
func FieldsFromRPCMap(m RPCMap) (Fields, error) {
	var f Fields

	if raw := m["type"]; raw != nil {
		t, err := parseTypeValue(raw)
		if err != nil {
			return Fields{}, err
		}
		f.Type = &t
	}

	for _, name := range numericFields {
		v, err := parseBig(RPCName(name), m[RPCName(name)])
		if err != nil {
			return Fields{}, err
		}
		f = f.With(name, v)
	}

	var err error
	if f.From, err = parseAddress("from", m["from"]); err != nil {
		return Fields{}, err
	}
	if f.To, err = parseAddress("to", m["to"]); err != nil {
		return Fields{}, err
	}

	input, err := parseBytes("input", m["input"])
	if err != nil {
		return Fields{}, err
	}
	data, err := parseBytes("data", m["data"])
	if err != nil {
		return Fields{}, err
	}
	if input != nil && data != nil && string(input) != string(data) {
		return Fields{}, &ValidationError{Field: "input", Reason: "input and data disagree"}
	}
	if input == nil {
		input = data
	}
	f.Input = input

	if f.AccessList, err = parseAccessList(m["accessList"]); err != nil {
		return Fields{}, err
	}
	if f.BlobVersionedHashes, err = parseHashes("blobVersionedHashes", m["blobVersionedHashes"]); err != nil {
		return Fields{}, err
	}
	return f, nil
}

func accessListToRPC(al AccessList) []interface{} {
	out := make([]interface{}, 0, len(al))
	for _, tuple := range al {
		out = append(out, map[string]interface{}{
			"address":     tuple.Address.Hex(),
			"storageKeys": hashesToRPC(tuple.StorageKeys),
		})
	}
	return out
}

func hashesToRPC(hs []common.Hash) []interface{} {
	out := make([]interface{}, 0, len(hs))
	for _, h := range hs {
		out = append(out, h.Hex())
	}
	return out
}

// 解析辅助：输入可能来自 JSON（string / float64 / json.Number）或 Go 调用方

func parseTypeValue(v interface{}) (Type, error) {
	switch v := v.(type) {
	case Type:
		if !v.valid() {
			return 0, &UnsupportedTransactionError{Type: v.String()}
		}
		return v, nil
	case string:
		return ParseType(v)
	default:
		n, err := parseBig("type", v)
		if err != nil {
			return 0, err
		}
		if !n.IsUint64() || n.Uint64() > 0xff || !Type(n.Uint64()).valid() {
			return 0, &UnsupportedTransactionError{Type: n.String()}
		}
		return Type(n.Uint64()), nil
	}
}

func parseBig(key string, v interface{}) (*big.Int, error) {
	switch v := v.(type) {
	case nil:
		return nil, nil
	case *big.Int:
		if v == nil {
			return nil, nil
		}
		return new(big.Int).Set(v), nil
	case *hexutil.Big:
		if v == nil {
			return nil, nil
		}
		return new(big.Int).Set(v.ToInt()), nil
	case *uint256.Int:
		if v == nil {
			return nil, nil
		}
		return v.ToBig(), nil
	case hexutil.Uint64:
		return new(big.Int).SetUint64(uint64(v)), nil
	case uint64:
		return new(big.Int).SetUint64(v), nil
	case int64:
		return big.NewInt(v), nil
	case int:
		return big.NewInt(int64(v)), nil
	case float64:
		// JSON 数字只在 2^53 以内精确
		if v != math.Trunc(v) || math.Abs(v) > 1<<53 {
			return nil, &ValidationError{Field: key, Reason: fmt.Sprintf("%v is not an exact integer", v)}
		}
		return big.NewInt(int64(v)), nil
	case json.Number:
		return parseQuantity(key, v.String())
	case string:
		return parseQuantity(key, v)
	default:
		return nil, &ValidationError{Field: key, Reason: fmt.Sprintf("unsupported value of type %T", v)}
	}
}

// parseQuantity accepts 0x-prefixed hex or decimal text.
func parseQuantity(key, s string) (*big.Int, error) {
	s = strings.TrimSpace(s)
	var (
		n  = new(big.Int)
		ok bool
	)
	if has0xPrefix(s) {
		digits := s[2:]
		if digits == "" {
			return n, nil
		}
		_, ok = n.SetString(digits, 16)
	} else {
		_, ok = n.SetString(s, 10)
	}
	if !ok {
		return nil, &ValidationError{Field: key, Reason: fmt.Sprintf("%q is not a number", s)}
	}
	return n, nil
}

func has0xPrefix(s string) bool {
	return len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X')
}

func parseAddress(key string, v interface{}) (*common.Address, error) {
	switch v := v.(type) {
	case nil:
		return nil, nil
	case common.Address:
		return &v, nil
	case *common.Address:
		return copyAddress(v), nil
	case string:
		if v == "" || v == "0x" {
			return nil, nil
		}
		a, err := address.Parse(v)
		if err != nil {
			return nil, &ValidationError{Field: key, Reason: err.Error()}
		}
		return &a, nil
	default:
		return nil, &ValidationError{Field: key, Reason: fmt.Sprintf("unsupported value of type %T", v)}
	}
}

func parseBytes(key string, v interface{}) ([]byte, error) {
	switch v := v.(type) {
	case nil:
		return nil, nil
	case []byte:
		return common.CopyBytes(v), nil
	case hexutil.Bytes:
		return common.CopyBytes(v), nil
	case string:
		if !has0xPrefix(v) {
			return nil, &ValidationError{Field: key, Reason: "must be 0x-prefixed hex"}
		}
		b, err := hexutil.Decode("0x" + v[2:])
		if err != nil {
			return nil, &ValidationError{Field: key, Reason: err.Error()}
		}
		return b, nil
	default:
		return nil, &ValidationError{Field: key, Reason: fmt.Sprintf("unsupported value of type %T", v)}
	}
}

func parseHash(key string, v interface{}) (common.Hash, error) {
	switch v := v.(type) {
	case common.Hash:
		return v, nil
	case string:
		b, err := parseBytes(key, v)
		if err != nil {
			return common.Hash{}, err
		}
		if len(b) != common.HashLength {
			return common.Hash{}, &ValidationError{Field: key, Reason: fmt.Sprintf("must be %d bytes", common.HashLength)}
		}
		return common.BytesToHash(b), nil
	default:
		return common.Hash{}, &ValidationError{Field: key, Reason: fmt.Sprintf("unsupported value of type %T", v)}
	}
}

func parseHashes(key string, v interface{}) ([]common.Hash, error) {
	switch v := v.(type) {
	case nil:
		return nil, nil
	case []common.Hash:
		return copyHashes(v), nil
	case []string:
		items := make([]interface{}, len(v))
		for i, s := range v {
			items[i] = s
		}
		return parseHashes(key, items)
	case []interface{}:
		hs := make([]common.Hash, 0, len(v))
		for _, item := range v {
			h, err := parseHash(key, item)
			if err != nil {
				return nil, err
			}
			hs = append(hs, h)
		}
		return hs, nil
	default:
		return nil, &ValidationError{Field: key, Reason: fmt.Sprintf("unsupported value of type %T", v)}
	}
}

func parseAccessList(v interface{}) (AccessList, error) {
	const key = "accessList"
	switch v := v.(type) {
	case nil:
		return nil, nil
	case AccessList:
		return copyAccessList(v), nil
	case []interface{}:
		al := make(AccessList, 0, len(v))
		for _, item := range v {
			entry, ok := item.(map[string]interface{})
			if !ok {
				return nil, &ValidationError{Field: key, Reason: "entries must be objects"}
			}
			addr, err := parseAddress(key+".address", entry["address"])
			if err != nil {
				return nil, err
			}
			if addr == nil {
				return nil, &ValidationError{Field: key + ".address", Reason: "required field is missing"}
			}
			keys, err := parseHashes(key+".storageKeys", entry["storageKeys"])
			if err != nil {
				return nil, err
			}
			if len(keys) == 0 {
				keys = nil
			}
			al = append(al, AccessTuple{Address: *addr, StorageKeys: keys})
		}
		return al, nil
	default:
		return nil, &ValidationError{Field: key, Reason: fmt.Sprintf("unsupported value of type %T", v)}
	}
}
