package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"wallet-tx/pkg/errno"
)

// Response 统一返回结构，HTTP 状态码固定 200，业务结果看 code
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"msg"`
	Data    interface{} `json:"data"`
}

// Success 返回数据，nil 序列化为 {}
func Success(c *gin.Context, data interface{}) {
	if data == nil {
		data = gin.H{}
	}
	write(c, errno.OK.Code, errno.OK.Message, data)
}

// Error 将错误映射为业务码。data.retryable 告诉调用方原样重试是否可能成功（节点不可用）。
func Error(c *gin.Context, err error) {
	code, msg := errno.Decode(err)
	write(c, code, msg, gin.H{"retryable": errno.Retryable(err)})
}

func write(c *gin.Context, code int, msg string, data interface{}) {
	c.JSON(http.StatusOK, Response{Code: code, Message: msg, Data: data})
}
