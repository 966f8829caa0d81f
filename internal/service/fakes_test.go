package service

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"

	"wallet-tx/internal/event"
	"wallet-tx/internal/model"
	"wallet-tx/pkg/filler"
	"wallet-tx/pkg/signer"
)

// Hardhat 默认账户 #0
const testKeyHex = "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"

var testSender = common.HexToAddress("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266")

func testSigner(t *testing.T) *signer.KeySigner {
	t.Helper()
	s, err := signer.NewKeySignerFromHex(testKeyHex)
	require.NoError(t, err)
	return s
}

// memStore 内存版 Store
type memStore struct {
	mu     sync.Mutex
	txs    map[string]*model.SignedTransaction
	outbox []model.OutboxMessage
	nextID uint64
}

func newMemStore() *memStore {
	return &memStore{txs: map[string]*model.SignedTransaction{}}
}

func (m *memStore) Record(_ context.Context, tx *model.SignedTransaction, ev *model.OutboxMessage) (*model.SignedTransaction, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.txs[tx.Hash]; ok {
		cp := *existing
		return &cp, false, nil
	}
	m.nextID++
	tx.ID = m.nextID
	tx.CreatedAt = time.Now()
	tx.UpdatedAt = tx.CreatedAt
	cp := *tx
	m.txs[tx.Hash] = &cp
	m.addMessage(ev)
	return tx, true, nil
}

func (m *memStore) addMessage(ev *model.OutboxMessage) {
	m.nextID++
	ev.ID = m.nextID
	m.outbox = append(m.outbox, *ev)
}

func (m *memStore) Get(_ context.Context, hash string) (*model.SignedTransaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	tx, ok := m.txs[hash]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *tx
	return &cp, nil
}

func (m *memStore) PendingNonce(_ context.Context, chainID, sender string) (uint64, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var (
		max   uint64
		found bool
	)
	for _, tx := range m.txs {
		if tx.ChainID != chainID || tx.Sender != sender || tx.Final() {
			continue
		}
		if !found || tx.Nonce > max {
			max, found = tx.Nonce, true
		}
	}
	return max, found, nil
}

func (m *memStore) UpdateStatus(_ context.Context, hash, status, reason string, block *uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	tx, ok := m.txs[hash]
	if !ok {
		return ErrNotFound
	}
	tx.Status = status
	tx.LastError = reason
	tx.BlockNumber = block
	tx.UpdatedAt = time.Now()
	return nil
}

func (m *memStore) ListStale(_ context.Context, before time.Time, limit int) ([]model.SignedTransaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.SignedTransaction
	for _, tx := range m.txs {
		if !tx.Final() && tx.UpdatedAt.Before(before) {
			out = append(out, *tx)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Nonce < out[j].Nonce })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memStore) Requeue(_ context.Context, hash string, ev *model.OutboxMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	tx, ok := m.txs[hash]
	if !ok {
		return ErrNotFound
	}
	tx.Attempts++
	tx.UpdatedAt = time.Now()
	m.addMessage(ev)
	return nil
}

func (m *memStore) PendingMessages(_ context.Context, limit int) ([]model.OutboxMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.OutboxMessage
	for _, msg := range m.outbox {
		if msg.Status == model.OutboxPending && len(out) < limit {
			out = append(out, msg)
		}
	}
	return out, nil
}

func (m *memStore) MarkMessageSent(_ context.Context, id uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.outbox {
		if m.outbox[i].ID == id {
			m.outbox[i].Status = model.OutboxSent
			return nil
		}
	}
	return ErrNotFound
}

// events 解析所有 outbox 消息
func (m *memStore) events(t *testing.T) []event.SignedTxEvent {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]event.SignedTxEvent, 0, len(m.outbox))
	for _, msg := range m.outbox {
		var ev event.SignedTxEvent
		require.NoError(t, json.Unmarshal(msg.Payload, &ev))
		out = append(out, ev)
	}
	return out
}

// rpcError 模拟节点的 JSON-RPC 错误应答
type rpcError struct {
	code int
	msg  string
}

func (e *rpcError) Error() string  { return e.msg }
func (e *rpcError) ErrorCode() int { return e.code }

// fakeNode 内存版 NodeClient
type fakeNode struct {
	mu       sync.Mutex
	results  map[string]string
	sendErr  error
	sent     [][]byte
	receipts map[common.Hash]*types.Receipt
}

func newFakeNode() *fakeNode {
	return &fakeNode{
		results: map[string]string{
			"eth_chainId":              `"0x1"`,
			"eth_getTransactionCount":  `"0x0"`,
			"eth_gasPrice":             `"0x4a817c800"`,
			"eth_maxPriorityFeePerGas": `"0x3b9aca00"`,
			"eth_estimateGas":          `"0x5208"`,
		},
		receipts: map[common.Hash]*types.Receipt{},
	}
}

func (n *fakeNode) BatchCall(_ context.Context, calls []filler.Call) ([]json.RawMessage, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]json.RawMessage, len(calls))
	for i, c := range calls {
		r, ok := n.results[c.Method]
		if !ok {
			return nil, &filler.NetworkError{Method: c.Method, Err: errors.New("method not found")}
		}
		out[i] = json.RawMessage(r)
	}
	return out, nil
}

func (n *fakeNode) SendRawTransaction(_ context.Context, raw []byte) (common.Hash, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.sendErr != nil {
		return common.Hash{}, n.sendErr
	}
	n.sent = append(n.sent, raw)
	return crypto.Keccak256Hash(raw), nil
}

func (n *fakeNode) Receipt(_ context.Context, hash common.Hash) (*types.Receipt, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.receipts[hash], nil
}

// fakeProducer 记录发布的消息
type fakeProducer struct {
	published []string
	failAfter int
}

func (p *fakeProducer) Publish(_ context.Context, _ string, key string, _ []byte) error {
	if p.failAfter >= 0 && len(p.published) >= p.failAfter {
		return errors.New("broker unavailable")
	}
	p.published = append(p.published, key)
	return nil
}

func (p *fakeProducer) Close() error { return nil }
