package handler

import (
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/gin-gonic/gin"

	"wallet-tx/internal/handler/request"
	"wallet-tx/internal/handler/response"
	"wallet-tx/internal/service"
	"wallet-tx/pkg/errno"
	"wallet-tx/pkg/validator"
)

type TxHandler struct {
	svc *service.TxService
}

func NewTxHandler(svc *service.TxService) *TxHandler {
	return &TxHandler{svc: svc}
}

// Encode 编码交易
// @Summary 编码交易
// @Description 将 JSON-RPC 形式的交易（可含 v/r/s）编码为原始字节
// @Tags Tx
// @Accept json
// @Produce json
// @Param request body request.TxRequest true "Transaction"
// @Success 200 {object} response.Response
// @Router /tx/encode [post]
func (h *TxHandler) Encode(c *gin.Context) {
	var req request.TxRequest
	if !bind(c, &req) {
		return
	}
	m, err := req.RPCMap()
	if err != nil {
		response.Error(c, err)
		return
	}
	res, err := h.svc.Encode(m)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, res)
}

// Decode 解析原始交易
// @Summary 解析原始交易
// @Tags Tx
// @Accept json
// @Produce json
// @Param request body request.RawTxRequest true "Request"
// @Success 200 {object} response.Response
// @Router /tx/decode [post]
func (h *TxHandler) Decode(c *gin.Context) {
	var req request.RawTxRequest
	if !bind(c, &req) {
		return
	}
	res, err := h.svc.Decode(hexutil.MustDecode(req.Raw))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, res)
}

// Prepare 补全默认字段，返回待签名交易
// @Summary 补全默认字段
// @Tags Tx
// @Accept json
// @Produce json
// @Param request body request.TxRequest true "Request"
// @Success 200 {object} response.Response
// @Router /tx/prepare [post]
func (h *TxHandler) Prepare(c *gin.Context) {
	var req request.TxRequest
	if !bind(c, &req) {
		return
	}
	fields, err := req.Fields()
	if err != nil {
		response.Error(c, err)
		return
	}
	res, err := h.svc.Prepare(c.Request.Context(), fields)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, res)
}

// Sign 使用服务端账户签名并进入广播队列
// @Summary 服务端签名
// @Tags Tx
// @Accept json
// @Produce json
// @Param request body request.TxRequest true "Request"
// @Success 200 {object} response.Response
// @Router /tx/sign [post]
func (h *TxHandler) Sign(c *gin.Context) {
	var req request.TxRequest
	if !bind(c, &req) {
		return
	}
	fields, err := req.Fields()
	if err != nil {
		response.Error(c, err)
		return
	}
	row, err := h.svc.Sign(c.Request.Context(), fields)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, row)
}

// Submit 提交外部签名的交易
// @Summary 提交已签名交易
// @Tags Tx
// @Accept json
// @Produce json
// @Param request body request.RawTxRequest true "Request"
// @Success 200 {object} response.Response
// @Router /tx/submit [post]
func (h *TxHandler) Submit(c *gin.Context) {
	var req request.RawTxRequest
	if !bind(c, &req) {
		return
	}
	row, err := h.svc.Submit(c.Request.Context(), hexutil.MustDecode(req.Raw))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, row)
}

// Get 查询交易状态
// @Summary 查询交易
// @Tags Tx
// @Produce json
// @Param hash path string true "Transaction hash"
// @Success 200 {object} response.Response
// @Router /tx/{hash} [get]
func (h *TxHandler) Get(c *gin.Context) {
	row, err := h.svc.Get(c.Request.Context(), c.Param("hash"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, row)
}

// bind 绑定 JSON 请求体，失败时直接写回错误
func bind(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		response.Error(c, errno.ErrBind.WithMessage(validator.GetErrorMsg(err)))
		return false
	}
	return true
}
