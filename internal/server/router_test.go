package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"math/big"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "wallet-tx/docs/swagger"
	"wallet-tx/internal/handler"
	"wallet-tx/internal/service"
	"wallet-tx/pkg/errno"
	"wallet-tx/pkg/filler"
	"wallet-tx/pkg/signer"
	"wallet-tx/pkg/transaction"
	"wallet-tx/pkg/validator"
)

const (
	testKeyHex = "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"
	sender     = "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"
	recipient  = "0x70997970C51812dc3A010C7d01b50e0d17dc79C8"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	validator.Init()
	os.Exit(m.Run())
}

// staticNode 按方法名返回固定结果
type staticNode struct {
	results map[string]string
	err     error
}

func newStaticNode() *staticNode {
	return &staticNode{results: map[string]string{
		"eth_chainId":              `"0x1"`,
		"eth_getTransactionCount":  `"0x0"`,
		"eth_gasPrice":             `"0x4a817c800"`,
		"eth_maxPriorityFeePerGas": `"0x3b9aca00"`,
		"eth_estimateGas":          `"0x5208"`,
	}}
}

func (n *staticNode) BatchCall(_ context.Context, calls []filler.Call) ([]json.RawMessage, error) {
	if n.err != nil {
		return nil, &filler.NetworkError{Err: n.err}
	}
	out := make([]json.RawMessage, len(calls))
	for i, c := range calls {
		out[i] = json.RawMessage(n.results[c.Method])
	}
	return out, nil
}

type apiResponse struct {
	Code int                    `json:"code"`
	Msg  string                 `json:"msg"`
	Data map[string]interface{} `json:"data"`
}

func newRouter(t *testing.T, node filler.BatchExecutor, withSigner bool) *gin.Engine {
	t.Helper()
	var opts []service.TxOption
	if withSigner {
		s, err := signer.NewKeySignerFromHex(testKeyHex)
		require.NoError(t, err)
		opts = append(opts, service.WithSigner(s))
	}
	svc := service.NewTxService(filler.New(node), nil, opts...)
	return NewHTTPRouter(handler.NewTxHandler(svc))
}

func do(t *testing.T, r *gin.Engine, method, path string, body interface{}) apiResponse {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var resp apiResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func unsignedFeeTx() map[string]interface{} {
	return map[string]interface{}{
		"type":                 "0x2",
		"chainId":              "0x1",
		"nonce":                "0x0",
		"maxPriorityFeePerGas": "0x1",
		"maxFeePerGas":         "0x2",
		"gas":                  "0x5208",
		"to":                   recipient,
		"value":                "0x0",
	}
}

func TestHealthAndMetrics(t *testing.T) {
	r := newRouter(t, newStaticNode(), false)

	resp := do(t, r, http.MethodGet, "/health", nil)
	assert.Equal(t, errno.OK.Code, resp.Code)
	assert.Equal(t, "UP", resp.Data["status"])

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "wallet_tx_http_requests_total")
}

func TestSwaggerDoc(t *testing.T) {
	r := newRouter(t, newStaticNode(), false)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/swagger/doc.json", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "/tx/encode")
}

func TestEncodeThenDecode(t *testing.T) {
	r := newRouter(t, newStaticNode(), false)

	enc := do(t, r, http.MethodPost, "/api/v1/tx/encode", unsignedFeeTx())
	require.Equal(t, errno.OK.Code, enc.Code, enc.Msg)
	assert.Equal(t, "eip1559", enc.Data["type"])
	assert.Equal(t, false, enc.Data["signed"])
	raw := enc.Data["raw"].(string)
	assert.Equal(t, "0x02", raw[:4])

	dec := do(t, r, http.MethodPost, "/api/v1/tx/decode", gin.H{"raw": raw})
	require.Equal(t, errno.OK.Code, dec.Code, dec.Msg)
	assert.Equal(t, "eip1559", dec.Data["type"])
	assert.Equal(t, enc.Data["hash"], dec.Data["hash"])
	tx := dec.Data["tx"].(map[string]interface{})
	assert.Equal(t, "0x5208", tx["gas"])
}

func TestEncodeBindingErrors(t *testing.T) {
	r := newRouter(t, newStaticNode(), false)

	body := unsignedFeeTx()
	body["to"] = "0x1234"
	resp := do(t, r, http.MethodPost, "/api/v1/tx/encode", body)
	assert.Equal(t, errno.ErrBind.Code, resp.Code)
	assert.Contains(t, resp.Msg, "To")

	body = unsignedFeeTx()
	body["valueEther"] = "1"
	resp = do(t, r, http.MethodPost, "/api/v1/tx/encode", body)
	assert.Equal(t, errno.ErrBind.Code, resp.Code)

	body = unsignedFeeTx()
	body["type"] = "eip9999"
	resp = do(t, r, http.MethodPost, "/api/v1/tx/encode", body)
	assert.Equal(t, errno.ErrBind.Code, resp.Code)
}

func TestEncodeValidationError(t *testing.T) {
	r := newRouter(t, newStaticNode(), false)

	body := unsignedFeeTx()
	delete(body, "gas")
	resp := do(t, r, http.MethodPost, "/api/v1/tx/encode", body)
	assert.Equal(t, errno.ErrTxValidation.Code, resp.Code)
	assert.Contains(t, resp.Msg, "gas")
	assert.Equal(t, false, resp.Data["retryable"])
}

func TestDecodeErrors(t *testing.T) {
	r := newRouter(t, newStaticNode(), false)

	resp := do(t, r, http.MethodPost, "/api/v1/tx/decode", gin.H{"raw": "0x05c0"})
	assert.Equal(t, errno.ErrTxUnsupported.Code, resp.Code)

	resp = do(t, r, http.MethodPost, "/api/v1/tx/decode", gin.H{"raw": "0x02c3010203"})
	assert.Equal(t, errno.ErrTxDecode.Code, resp.Code)

	resp = do(t, r, http.MethodPost, "/api/v1/tx/decode", gin.H{"raw": "0xzz"})
	assert.Equal(t, errno.ErrBind.Code, resp.Code)

	resp = do(t, r, http.MethodPost, "/api/v1/tx/decode", gin.H{})
	assert.Equal(t, errno.ErrBind.Code, resp.Code)
}

func TestPrepareFillsDefaults(t *testing.T) {
	r := newRouter(t, newStaticNode(), false)

	resp := do(t, r, http.MethodPost, "/api/v1/tx/prepare", gin.H{
		"type":       "eip1559",
		"from":       sender,
		"to":         recipient,
		"valueEther": "0.001",
	})
	require.Equal(t, errno.OK.Code, resp.Code, resp.Msg)

	tx := resp.Data["tx"].(map[string]interface{})
	assert.Equal(t, hexutil.EncodeBig(big.NewInt(24_000_000_000)), tx["maxFeePerGas"])
	assert.Equal(t, "0x3b9aca00", tx["maxPriorityFeePerGas"])
	assert.Equal(t, hexutil.EncodeUint64(23100), tx["gas"])
	assert.Equal(t, hexutil.EncodeBig(big.NewInt(1_000_000_000_000_000)), tx["value"])
	assert.NotEmpty(t, resp.Data["signingHash"])
}

func TestPrepareNodeDown(t *testing.T) {
	node := newStaticNode()
	node.err = errors.New("connection refused")
	r := newRouter(t, node, false)

	resp := do(t, r, http.MethodPost, "/api/v1/tx/prepare", gin.H{"type": "eip1559", "from": sender, "to": recipient})
	assert.Equal(t, errno.ErrNetwork.Code, resp.Code)
	assert.Equal(t, true, resp.Data["retryable"])
}

func TestSign(t *testing.T) {
	r := newRouter(t, newStaticNode(), true)

	resp := do(t, r, http.MethodPost, "/api/v1/tx/sign", gin.H{"type": "legacy", "to": recipient, "value": "1000"})
	require.Equal(t, errno.OK.Code, resp.Code, resp.Msg)
	assert.Equal(t, common.HexToAddress(sender).Hex(), resp.Data["sender"])
	assert.Equal(t, "pending", resp.Data["status"])

	// 原始字节可被 decode 接口解析并恢复发送方
	dec := do(t, r, http.MethodPost, "/api/v1/tx/decode", gin.H{"raw": resp.Data["raw_tx"]})
	require.Equal(t, errno.OK.Code, dec.Code, dec.Msg)
	assert.Equal(t, true, dec.Data["signed"])
	assert.Equal(t, common.HexToAddress(sender).Hex(), dec.Data["from"])
}

func TestSignWithoutKey(t *testing.T) {
	r := newRouter(t, newStaticNode(), false)

	resp := do(t, r, http.MethodPost, "/api/v1/tx/sign", gin.H{"to": recipient})
	assert.Equal(t, errno.ErrSignerDisabled.Code, resp.Code)
}

func TestSubmitAndGet(t *testing.T) {
	r := newRouter(t, newStaticNode(), false)

	s, err := signer.NewKeySignerFromHex(testKeyHex)
	require.NoError(t, err)
	to := common.HexToAddress(recipient)
	typ := transaction.AccessListTxType
	p, err := transaction.New(transaction.Fields{
		Type:     &typ,
		ChainID:  big.NewInt(1),
		Nonce:    big.NewInt(0),
		GasPrice: big.NewInt(1),
		Gas:      big.NewInt(21000),
		To:       &to,
	})
	require.NoError(t, err)
	signed, err := transaction.Sign(p, s)
	require.NoError(t, err)
	raw, err := transaction.Encode(signed)
	require.NoError(t, err)

	resp := do(t, r, http.MethodPost, "/api/v1/tx/submit", gin.H{"raw": hexutil.Encode(raw)})
	require.Equal(t, errno.OK.Code, resp.Code, resp.Msg)
	assert.Equal(t, common.HexToAddress(sender).Hex(), resp.Data["sender"])

	// 无持久化时查询不到
	got := do(t, r, http.MethodGet, "/api/v1/tx/"+resp.Data["hash"].(string), nil)
	assert.Equal(t, errno.ErrTxNotFound.Code, got.Code)
}
