package request

import (
	"github.com/ethereum/go-ethereum/common"

	"wallet-tx/pkg/errno"
	"wallet-tx/pkg/transaction"
	"wallet-tx/pkg/units"
)

// TxRequest 交易字段，命名与 JSON-RPC 一致。数值可以是 0x 十六进制或十进制字符串。
type TxRequest struct {
	Type                 string                 `json:"type" binding:"omitempty,tx_type"`
	From                 string                 `json:"from" binding:"omitempty,eth_addr"`
	ChainID              string                 `json:"chainId"`
	Nonce                string                 `json:"nonce"`
	Gas                  string                 `json:"gas"`
	GasPrice             string                 `json:"gasPrice"`
	MaxPriorityFeePerGas string                 `json:"maxPriorityFeePerGas"`
	MaxFeePerGas         string                 `json:"maxFeePerGas"`
	MaxFeePerBlobGas     string                 `json:"maxFeePerBlobGas"`
	To                   string                 `json:"to" binding:"omitempty,eth_addr"`
	Value                string                 `json:"value"`
	ValueEther           string                 `json:"valueEther" binding:"excluded_with=Value"` // 以 ETH 为单位的金额，与 value 二选一
	Input                string                 `json:"input" binding:"omitempty,hexdata"`
	Data                 string                 `json:"data" binding:"omitempty,hexdata"`
	AccessList           transaction.AccessList `json:"accessList"`
	BlobVersionedHashes  []common.Hash          `json:"blobVersionedHashes"`

	// 签名，仅 encode 接口使用
	V       string `json:"v"`
	R       string `json:"r"`
	S       string `json:"s"`
	YParity string `json:"yParity"`
}

// RPCMap 只包含请求中出现的字段
func (r *TxRequest) RPCMap() (transaction.RPCMap, error) {
	m := transaction.RPCMap{}
	put := func(key, v string) {
		if v != "" {
			m[key] = v
		}
	}
	put("type", r.Type)
	put("from", r.From)
	put("chainId", r.ChainID)
	put("nonce", r.Nonce)
	put("gas", r.Gas)
	put("gasPrice", r.GasPrice)
	put("maxPriorityFeePerGas", r.MaxPriorityFeePerGas)
	put("maxFeePerGas", r.MaxFeePerGas)
	put("maxFeePerBlobGas", r.MaxFeePerBlobGas)
	put("to", r.To)
	put("value", r.Value)
	put("input", r.Input)
	put("data", r.Data)
	put("v", r.V)
	put("r", r.R)
	put("s", r.S)
	put("yParity", r.YParity)

	if r.ValueEther != "" {
		wei, err := units.ParseEther(r.ValueEther)
		if err != nil {
			return nil, errno.ErrBind.WithMessage(err.Error())
		}
		m["value"] = wei
	}
	if r.AccessList != nil {
		m["accessList"] = r.AccessList
	}
	if r.BlobVersionedHashes != nil {
		m["blobVersionedHashes"] = r.BlobVersionedHashes
	}
	return m, nil
}

// Fields 转换为部分交易记录
func (r *TxRequest) Fields() (transaction.Fields, error) {
	m, err := r.RPCMap()
	if err != nil {
		return transaction.Fields{}, err
	}
	return transaction.FieldsFromRPCMap(m)
}

// RawTxRequest 原始交易字节
type RawTxRequest struct {
	Raw string `json:"raw" binding:"required,hexdata"`
}
