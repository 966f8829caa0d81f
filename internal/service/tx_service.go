package service

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"go.uber.org/zap"

	"wallet-tx/internal/event"
	"wallet-tx/internal/model"
	"wallet-tx/pkg/address"
	"wallet-tx/pkg/errno"
	"wallet-tx/pkg/filler"
	"wallet-tx/pkg/lock"
	"wallet-tx/pkg/logger"
	"wallet-tx/pkg/monitor"
	"wallet-tx/pkg/transaction"
)

// TxService 交易构建、签名、提交与解析
type TxService struct {
	filler  *filler.Filler
	store   Store
	signer  AccountSigner
	locker  lock.DistributedLock
	lockTTL time.Duration
	timeout time.Duration
	topic   string
}

type TxOption func(*TxService)

// WithSigner enables Sign with the given account.
func WithSigner(s AccountSigner) TxOption {
	return func(svc *TxService) { svc.signer = s }
}

// WithNonceLock serialises fill, sign and record per sender.
func WithNonceLock(l lock.DistributedLock, ttl time.Duration) TxOption {
	return func(svc *TxService) {
		svc.locker = l
		svc.lockTTL = ttl
	}
}

// WithTimeout bounds each node round trip.
func WithTimeout(d time.Duration) TxOption {
	return func(svc *TxService) { svc.timeout = d }
}

// WithTopic sets the outbox topic for signed transaction events.
func WithTopic(topic string) TxOption {
	return func(svc *TxService) { svc.topic = topic }
}

// NewTxService store may be nil, in which case nothing is journaled.
func NewTxService(f *filler.Filler, store Store, opts ...TxOption) *TxService {
	svc := &TxService{
		filler:  f,
		store:   store,
		lockTTL: 30 * time.Second,
		topic:   event.TopicSignedTx,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// EncodeResult 编码结果
type EncodeResult struct {
	Raw    string      `json:"raw"`
	Hash   common.Hash `json:"hash"`
	Type   string      `json:"type"`
	Signed bool        `json:"signed"`
}

// DecodeResult 解码结果，From 仅对已签名交易有值
type DecodeResult struct {
	Type   string             `json:"type"`
	Signed bool               `json:"signed"`
	Hash   common.Hash        `json:"hash"`
	From   string             `json:"from,omitempty"`
	Tx     transaction.RPCMap `json:"tx"`
}

// Encode 将 RPC 形式的交易（可含签名）编码为原始字节
func (s *TxService) Encode(m transaction.RPCMap) (*EncodeResult, error) {
	tx, err := transaction.FromRPCMap(m)
	if err != nil {
		return nil, err
	}
	raw, err := transaction.Encode(tx)
	if err != nil {
		return nil, err
	}
	_, signed := tx.(*transaction.SignedTx)
	t := transaction.TypeID(tx).String()
	monitor.ObserveEncode(t, signed)
	return &EncodeResult{
		Raw:    hexutil.Encode(raw),
		Hash:   crypto.Keccak256Hash(raw),
		Type:   t,
		Signed: signed,
	}, nil
}

// Decode 解析原始字节；已签名交易同时恢复发送方
func (s *TxService) Decode(raw []byte) (*DecodeResult, error) {
	tx, err := transaction.Decode(raw)
	if err != nil {
		monitor.ObserveDecodeFailure(decodeFailureReason(err))
		return nil, err
	}
	m, err := transaction.ToRPCMap(tx)
	if err != nil {
		return nil, err
	}
	res := &DecodeResult{
		Type: transaction.TypeID(tx).String(),
		Hash: crypto.Keccak256Hash(raw),
		Tx:   m,
	}
	if signed, ok := tx.(*transaction.SignedTx); ok {
		from, err := transaction.FromAddress(signed)
		if err != nil {
			return nil, err
		}
		res.Signed = true
		res.From = address.Checksum(from)
	}
	monitor.ObserveDecode(res.Type, res.Signed)
	return res, nil
}

// PrepareResult 补全后的未签名交易，外部签名方对 SigningHash 签名
type PrepareResult struct {
	Type        string             `json:"type"`
	Raw         string             `json:"raw"`
	SigningHash common.Hash        `json:"signingHash"`
	Tx          transaction.RPCMap `json:"tx"`
}

// Prepare 补全默认字段并校验，返回未签名交易
func (s *TxService) Prepare(ctx context.Context, fields transaction.Fields) (*PrepareResult, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	payload, err := s.filler.Build(ctx, fields)
	if err != nil {
		return nil, err
	}
	raw, err := transaction.Encode(payload)
	if err != nil {
		return nil, err
	}
	h, err := transaction.SigningHash(payload)
	if err != nil {
		return nil, err
	}
	m, err := transaction.ToRPCMap(payload)
	if err != nil {
		return nil, err
	}
	return &PrepareResult{
		Type:        transaction.TypeID(payload).String(),
		Raw:         hexutil.Encode(raw),
		SigningHash: h,
		Tx:          m,
	}, nil
}

// Sign 使用配置的账户 补全-签名-落库，返回流水记录
func (s *TxService) Sign(ctx context.Context, fields transaction.Fields) (*model.SignedTransaction, error) {
	if s.signer == nil {
		return nil, errno.ErrSignerDisabled
	}
	// 1. from 必须是签名账户
	account := s.signer.Address()
	if fields.From == nil {
		fields.From = &account
	} else if *fields.From != account {
		return nil, &transaction.ValidationError{
			Field:  string(transaction.FieldFrom),
			Reason: fmt.Sprintf("%s is not the signing account %s", fields.From.Hex(), account.Hex()),
		}
	}

	// 2. 确定链，nonce 按 (链, 发送方) 管理
	if fields.ChainID == nil {
		chainCtx, cancel := s.withTimeout(ctx)
		id, err := s.filler.ChainID(chainCtx)
		cancel()
		if err != nil {
			return nil, err
		}
		fields = fields.With(transaction.FieldChainID, id)
	}
	chainID := fields.ChainID.String()

	// 3. 同一链上同一发送方串行化，避免并发请求拿到相同 nonce
	if s.locker != nil {
		key := "nonce:" + chainID + ":" + strings.ToLower(account.Hex())
		token, err := lock.AcquireWait(ctx, s.locker, key, s.lockTTL, 50*time.Millisecond)
		if err != nil {
			return nil, fmt.Errorf("acquire nonce lock: %w", err)
		}
		defer func() {
			if err := s.locker.Release(context.WithoutCancel(ctx), key, token); err != nil {
				logger.Warn("释放 nonce 锁失败", zap.String("key", key), zap.Error(err))
			}
		}()
	}

	// 4. 补全字段，nonce 不低于本地未上链交易
	fillCtx, cancel := s.withTimeout(ctx)
	filled, err := s.filler.Fill(fillCtx, fields)
	cancel()
	if err != nil {
		return nil, err
	}
	if fields.Nonce == nil && s.store != nil {
		local, ok, err := s.store.PendingNonce(ctx, chainID, account.Hex())
		if err != nil {
			return nil, err
		}
		if next := new(big.Int).SetUint64(local + 1); ok && next.Cmp(filled.Nonce) > 0 {
			logger.Debug("nonce 由本地流水推进", zap.String("node", filled.Nonce.String()), zap.String("local", next.String()))
			filled = filled.With(transaction.FieldNonce, next)
		}
	}
	payload, err := transaction.New(filled)
	if err != nil {
		return nil, err
	}

	// 5. 签名并校验恢复出的地址
	signed, err := transaction.Sign(payload, s.signer)
	if err != nil {
		return nil, err
	}
	from, err := transaction.FromAddress(signed)
	if err != nil {
		return nil, err
	}
	if from != account {
		return nil, &transaction.RecoveryError{Reason: fmt.Sprintf("recovered %s, expected %s", from.Hex(), account.Hex())}
	}
	return s.record(ctx, signed, from)
}

// Submit 接收外部签名的原始交易，恢复发送方后落库等待广播
func (s *TxService) Submit(ctx context.Context, raw []byte) (*model.SignedTransaction, error) {
	tx, err := transaction.Decode(raw)
	if err != nil {
		monitor.ObserveDecodeFailure(decodeFailureReason(err))
		return nil, err
	}
	signed, ok := tx.(*transaction.SignedTx)
	if !ok {
		return nil, transaction.ErrNoSignature
	}
	from, err := transaction.FromAddress(signed)
	if err != nil {
		return nil, err
	}
	monitor.ObserveDecode(signed.Type().String(), true)
	return s.record(ctx, signed, from)
}

// Get 查询流水
func (s *TxService) Get(ctx context.Context, hash string) (*model.SignedTransaction, error) {
	if s.store == nil {
		return nil, errno.ErrTxNotFound
	}
	tx, err := s.store.Get(ctx, strings.ToLower(hash))
	if errors.Is(err, ErrNotFound) {
		return nil, errno.ErrTxNotFound
	}
	return tx, err
}

func (s *TxService) record(ctx context.Context, signed *transaction.SignedTx, from common.Address) (*model.SignedTransaction, error) {
	raw, err := transaction.Encode(signed)
	if err != nil {
		return nil, err
	}
	fields := transaction.FieldsOf(signed.Payload)
	row := &model.SignedTransaction{
		Hash:   crypto.Keccak256Hash(raw).Hex(),
		Type:   uint8(signed.Type()),
		Sender: from.Hex(),
		Nonce:  fields.Nonce.Uint64(),
		RawTx:  hexutil.Encode(raw),
		Status: model.TxStatusPending,
	}
	if fields.ChainID != nil {
		row.ChainID = fields.ChainID.String()
	}
	monitor.ObserveEncode(signed.Type().String(), true)

	if s.store == nil {
		return row, nil
	}
	ev, err := newSignedTxEvent(s.topic, row)
	if err != nil {
		return nil, err
	}
	stored, created, err := s.store.Record(ctx, row, ev)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errno.ErrDatabase, err)
	}
	if created {
		logger.Info("交易已签名入库",
			zap.String("hash", stored.Hash),
			zap.String("sender", stored.Sender),
			zap.Uint64("nonce", stored.Nonce))
	}
	return stored, nil
}

func (s *TxService) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}

func decodeFailureReason(err error) string {
	var unsupported *transaction.UnsupportedTransactionError
	if errors.As(err, &unsupported) {
		return "unsupported"
	}
	return "malformed"
}
