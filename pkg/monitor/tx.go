package monitor

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// TxMetrics 交易编解码、填充与广播相关指标
type TxMetrics struct {
	EncodedTotal       *prometheus.CounterVec
	DecodedTotal       *prometheus.CounterVec
	DecodeFailedTotal  *prometheus.CounterVec
	FillBatchDuration  prometheus.Histogram
	FillFetchedTotal   *prometheus.CounterVec
	FillFailedTotal    prometheus.Counter
	BroadcastTotal     *prometheus.CounterVec
	RebroadcastedTotal prometheus.Counter
}

// Tx 为 nil 时所有记录函数都是空操作（未调用 Init 的库与测试场景）
var Tx *TxMetrics

func InitTxMetrics() {
	Tx = &TxMetrics{
		EncodedTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "wallet_tx_encoded_total",
			Help: "Transactions encoded, by type and signed state",
		}, []string{"type", "signed"}),
		DecodedTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "wallet_tx_decoded_total",
			Help: "Transactions decoded, by type and signed state",
		}, []string{"type", "signed"}),
		DecodeFailedTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "wallet_tx_decode_failed_total",
			Help: "Raw transactions rejected by the decoder",
		}, []string{"reason"}),
		FillBatchDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "wallet_tx_fill_batch_duration_seconds",
			Help:    "Latency of the batched JSON-RPC call that fills default fields",
			Buckets: prometheus.DefBuckets,
		}),
		FillFetchedTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "wallet_tx_fill_fetched_total",
			Help: "Fields fetched from the node by the filler",
		}, []string{"field"}),
		FillFailedTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "wallet_tx_fill_failed_total",
			Help: "Fills that failed with a network error",
		}),
		BroadcastTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "wallet_tx_broadcast_total",
			Help: "eth_sendRawTransaction results",
		}, []string{"result"}),
		RebroadcastedTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "wallet_tx_rebroadcasted_total",
			Help: "Stale pending transactions re-published to the queue",
		}),
	}
}

func signedLabel(signed bool) string {
	if signed {
		return "true"
	}
	return "false"
}

func ObserveEncode(txType string, signed bool) {
	if Tx != nil {
		Tx.EncodedTotal.WithLabelValues(txType, signedLabel(signed)).Inc()
	}
}

func ObserveDecode(txType string, signed bool) {
	if Tx != nil {
		Tx.DecodedTotal.WithLabelValues(txType, signedLabel(signed)).Inc()
	}
}

func ObserveDecodeFailure(reason string) {
	if Tx != nil {
		Tx.DecodeFailedTotal.WithLabelValues(reason).Inc()
	}
}

func ObserveFill(start time.Time, fields []string, err error) {
	if Tx == nil {
		return
	}
	Tx.FillBatchDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		Tx.FillFailedTotal.Inc()
		return
	}
	for _, f := range fields {
		Tx.FillFetchedTotal.WithLabelValues(f).Inc()
	}
}

func ObserveBroadcast(result string) {
	if Tx != nil {
		Tx.BroadcastTotal.WithLabelValues(result).Inc()
	}
}

func ObserveRebroadcast(n int) {
	if Tx != nil {
		Tx.RebroadcastedTotal.Add(float64(n))
	}
}
