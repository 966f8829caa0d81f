package event

// TopicSignedTx 已签名交易事件的默认主题
const TopicSignedTx = "wallet_events_signed_tx"

// SignedTxEvent 交易签名完成（或外部提交）事件，消费者据此广播
type SignedTxEvent struct {
	Hash    string `json:"hash"`
	RawTx   string `json:"raw_tx"` // 0x 十六进制
	Sender  string `json:"sender"`
	Nonce   uint64 `json:"nonce"`
	ChainID string `json:"chain_id,omitempty"`
	Attempt int    `json:"attempt"`
}
