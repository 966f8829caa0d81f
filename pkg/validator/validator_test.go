package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	To    string `validate:"required,eth_addr"`
	Input string `validate:"omitempty,hexdata"`
	Type  string `validate:"omitempty,tx_type"`
}

func TestCustomRules(t *testing.T) {
	v := New()

	ok := sample{To: "0x70997970C51812dc3A010C7d01b50e0d17dc79C8", Input: "0x", Type: "eip1559"}
	require.NoError(t, v.Struct(ok))

	bad := sample{To: "0x1234", Input: "abcd", Type: "eip7702"}
	err := v.Struct(bad)
	require.Error(t, err)

	msg := GetErrorMsg(err)
	assert.Contains(t, msg, "To 不是合法的以太坊地址")
	assert.Contains(t, msg, "Input 必须是 0x 开头的十六进制")
	assert.Contains(t, msg, "Type 不是支持的交易类型")
}

func TestGetErrorMsgRequired(t *testing.T) {
	err := New().Struct(sample{})
	assert.Equal(t, "To 不能为空", GetErrorMsg(err))
}

func TestGetErrorMsgOther(t *testing.T) {
	assert.Equal(t, "请求参数错误", GetErrorMsg(assert.AnError))
}
