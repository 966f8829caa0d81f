package ethrpc

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wallet-tx/pkg/filler"
	"wallet-tx/pkg/transaction"
)

// ethService is a minimal in-process "eth" namespace.
type ethService struct {
	mu        sync.Mutex
	sent      [][]byte
	revert    bool
	estimates []map[string]interface{}
}

func (s *ethService) ChainId() *hexutil.Big { return (*hexutil.Big)(big.NewInt(1337)) }

func (s *ethService) GasPrice() *hexutil.Big { return (*hexutil.Big)(big.NewInt(100)) }

func (s *ethService) MaxPriorityFeePerGas() *hexutil.Big { return (*hexutil.Big)(big.NewInt(2)) }

func (s *ethService) GetTransactionCount(_ common.Address, _ string) hexutil.Uint64 { return 9 }

func (s *ethService) EstimateGas(args map[string]interface{}) (hexutil.Uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.estimates = append(s.estimates, args)
	if s.revert {
		return 0, errors.New("execution reverted")
	}
	return 1000, nil
}

func (s *ethService) SendRawTransaction(data hexutil.Bytes) (common.Hash, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(data) == 0 {
		return common.Hash{}, errors.New("rlp: empty input")
	}
	s.sent = append(s.sent, data)
	return crypto.Keccak256Hash(data), nil
}

func (s *ethService) GetTransactionReceipt(_ common.Hash) (map[string]interface{}, error) {
	return nil, nil
}

func newTestClient(t *testing.T) (*Client, *ethService) {
	t.Helper()
	svc := &ethService{}
	srv := rpc.NewServer()
	require.NoError(t, srv.RegisterName("eth", svc))
	t.Cleanup(srv.Stop)

	c := NewClient(rpc.DialInProc(srv), time.Second)
	t.Cleanup(c.Close)
	return c, svc
}

func TestBatchCall(t *testing.T) {
	c, _ := newTestClient(t)

	results, err := c.BatchCall(context.Background(), []filler.Call{
		{Method: "eth_chainId"},
		{Method: "eth_getTransactionCount", Params: []interface{}{"0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266", "latest"}},
	})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.JSONEq(t, `"0x539"`, string(results[0]))
	assert.JSONEq(t, `"0x9"`, string(results[1]))
}

func TestBatchCallElementError(t *testing.T) {
	c, svc := newTestClient(t)
	svc.revert = true

	_, err := c.BatchCall(context.Background(), []filler.Call{
		{Method: "eth_gasPrice"},
		{Method: "eth_estimateGas", Params: []interface{}{map[string]interface{}{}}},
	})

	var netErr *filler.NetworkError
	require.ErrorAs(t, err, &netErr)
	assert.Equal(t, "eth_estimateGas", netErr.Method)
	assert.Contains(t, err.Error(), "execution reverted")
}

func TestFillOverRPC(t *testing.T) {
	c, svc := newTestClient(t)
	from := common.HexToAddress("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266")
	to := common.HexToAddress("0x70997970C51812dc3A010C7d01b50e0d17dc79C8")
	tp := transaction.DynamicFeeTxType

	filled, err := filler.New(c).Fill(context.Background(), transaction.Fields{
		Type: &tp, From: &from, To: &to, Value: big.NewInt(1),
	})
	require.NoError(t, err)

	assert.Equal(t, big.NewInt(1337), filled.ChainID)
	assert.Equal(t, big.NewInt(9), filled.Nonce)
	assert.Equal(t, big.NewInt(2), filled.MaxPriorityFeePerGas)
	assert.Equal(t, big.NewInt(120), filled.MaxFeePerGas)
	assert.Equal(t, big.NewInt(1100), filled.Gas)

	require.Len(t, svc.estimates, 1)
	assert.Equal(t, to.Hex(), svc.estimates[0]["to"])
	assert.Equal(t, from.Hex(), svc.estimates[0]["from"])
}

func TestSendRawTransaction(t *testing.T) {
	c, svc := newTestClient(t)
	raw := []byte{0x02, 0xc0}

	hash, err := c.SendRawTransaction(context.Background(), raw)
	require.NoError(t, err)
	assert.Equal(t, crypto.Keccak256Hash(raw), hash)
	assert.Equal(t, [][]byte{raw}, svc.sent)

	_, err = c.SendRawTransaction(context.Background(), nil)
	require.Error(t, err)
	assert.True(t, IsRejected(err), "node error answers are rejections")
}

func TestIsRejectedTransport(t *testing.T) {
	assert.False(t, IsRejected(errors.New("dial tcp: connection refused")))
	assert.False(t, IsRejected(context.DeadlineExceeded))
}

func TestReceiptNotMined(t *testing.T) {
	c, _ := newTestClient(t)

	r, err := c.Receipt(context.Background(), common.HexToHash("0x01"))
	require.NoError(t, err)
	assert.Nil(t, r)
}
