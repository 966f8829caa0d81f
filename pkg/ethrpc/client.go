package ethrpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
	"go.uber.org/zap"

	"wallet-tx/pkg/filler"
	"wallet-tx/pkg/logger"
)

// Client talks JSON-RPC to an Ethereum node. It implements filler.BatchExecutor.
type Client struct {
	rpc     *rpc.Client
	eth     *ethclient.Client
	timeout time.Duration
}

// Dial connects to url (http, ws or ipc). A zero timeout leaves calls bounded only by ctx.
func Dial(ctx context.Context, url string, timeout time.Duration) (*Client, error) {
	rc, err := rpc.DialContext(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("无法连接节点 %s: %w", url, err)
	}
	logger.Info("RPC 节点已连接", zap.String("url", url))
	return NewClient(rc, timeout), nil
}

func NewClient(rc *rpc.Client, timeout time.Duration) *Client {
	return &Client{rpc: rc, eth: ethclient.NewClient(rc), timeout: timeout}
}

func (c *Client) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.timeout)
}

// BatchCall sends calls as one JSON-RPC batch. A transport failure or the first failed
// element is returned as a *filler.NetworkError.
func (c *Client) BatchCall(ctx context.Context, calls []filler.Call) ([]json.RawMessage, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	results := make([]json.RawMessage, len(calls))
	elems := make([]rpc.BatchElem, len(calls))
	for i, call := range calls {
		elems[i] = rpc.BatchElem{Method: call.Method, Args: call.Params, Result: &results[i]}
	}
	if err := c.rpc.BatchCallContext(ctx, elems); err != nil {
		return nil, &filler.NetworkError{Err: err}
	}
	for _, e := range elems {
		if e.Error != nil {
			return nil, &filler.NetworkError{Method: e.Method, Err: e.Error}
		}
	}
	return results, nil
}

// SendRawTransaction submits a signed transaction and returns the hash reported by the node.
func (c *Client) SendRawTransaction(ctx context.Context, raw []byte) (common.Hash, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	var hash common.Hash
	if err := c.rpc.CallContext(ctx, &hash, "eth_sendRawTransaction", hexutil.Encode(raw)); err != nil {
		return common.Hash{}, err
	}
	return hash, nil
}

// Receipt returns the receipt of hash, or nil when the transaction is not mined yet.
func (c *Client) Receipt(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	r, err := c.eth.TransactionReceipt(ctx, hash)
	if errors.Is(err, ethereum.NotFound) {
		return nil, nil
	}
	return r, err
}

func (c *Client) Close() {
	c.rpc.Close()
}

// IsRejected reports whether err is an error answer from the node (the request arrived
// and was refused) rather than a transport failure.
func IsRejected(err error) bool {
	var rpcErr rpc.Error
	return errors.As(err, &rpcErr)
}
