package validator

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"wallet-tx/pkg/transaction"
)

var validate *validator.Validate

// Init 注册自定义校验规则到 gin 的 binding 引擎
func Init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		validate = v
		register(v)
	}
}

// New returns a standalone validator with the custom rules, for non-gin callers.
func New() *validator.Validate {
	v := validator.New()
	register(v)
	return v
}

func register(v *validator.Validate) {
	_ = v.RegisterValidation("tx_type", validTxType)
	_ = v.RegisterValidation("hexdata", validHexData)
}

// tx_type: 接受 legacy/eip2930/eip1559/eip4844、十进制或 0x 十六进制类型号
func validTxType(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	if s == "" {
		return true
	}
	_, err := transaction.ParseType(s)
	return err == nil
}

// hexdata: 0x 前缀的偶数长度十六进制
func validHexData(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	if s == "" {
		return true
	}
	_, err := hexutil.Decode(s)
	return err == nil
}

// GetErrorMsg translates validation errors into user-friendly messages
func GetErrorMsg(err error) string {
	if validationErrors, ok := err.(validator.ValidationErrors); ok {
		var errMsgs []string
		for _, e := range validationErrors {
			field := e.Field()
			tag := e.Tag()
			param := e.Param()

			switch tag {
			case "required", "required_without":
				errMsgs = append(errMsgs, fmt.Sprintf("%s 不能为空", field))
			case "eth_addr":
				errMsgs = append(errMsgs, fmt.Sprintf("%s 不是合法的以太坊地址", field))
			case "hexdata":
				errMsgs = append(errMsgs, fmt.Sprintf("%s 必须是 0x 开头的十六进制", field))
			case "tx_type":
				errMsgs = append(errMsgs, fmt.Sprintf("%s 不是支持的交易类型", field))
			case "excluded_with":
				errMsgs = append(errMsgs, fmt.Sprintf("%s 不能与 %s 同时提供", field, param))
			case "oneof":
				errMsgs = append(errMsgs, fmt.Sprintf("%s 必须是 [%s] 之一", field, param))
			case "min":
				errMsgs = append(errMsgs, fmt.Sprintf("%s 至少为 %s", field, param))
			default:
				errMsgs = append(errMsgs, fmt.Sprintf("%s 校验失败 (%s)", field, tag))
			}
		}
		return strings.Join(errMsgs, "; ")
	}
	return "请求参数错误"
}
