package address

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/crypto/sha3"
)

var (
	ErrInvalidPublicKey = errors.New("address: invalid public key")
	ErrInvalidAddress   = errors.New("address: invalid address")
	ErrChecksumMismatch = errors.New("address: EIP-55 checksum mismatch")
)

// FromPublicKey 将非压缩公钥（65 字节 0x04 前缀，或去掉前缀的 64 字节）转换为地址
func FromPublicKey(pub []byte) (common.Address, error) {
	// 1. 去掉前缀 0x04
	switch {
	case len(pub) == 65 && pub[0] == 0x04:
		pub = pub[1:]
	case len(pub) == 64:
	default:
		return common.Address{}, fmt.Errorf("%w: %d bytes", ErrInvalidPublicKey, len(pub))
	}

	// 2. Keccak-256 后取后 20 字节
	return common.BytesToAddress(keccak256(pub)[12:]), nil
}

// Checksum returns the EIP-55 mixed-case form of addr, 0x-prefixed.
func Checksum(addr common.Address) string {
	return "0x" + toChecksumHex(hex.EncodeToString(addr.Bytes()))
}

// Parse parses a 0x-prefixed 40 character hex address. All-lowercase and all-uppercase
// input is accepted as is; mixed-case input must carry a valid EIP-55 checksum.
func Parse(s string) (common.Address, error) {
	if len(s) != 42 || s[0] != '0' || (s[1] != 'x' && s[1] != 'X') {
		return common.Address{}, fmt.Errorf("%w: %q", ErrInvalidAddress, s)
	}
	body := s[2:]
	raw, err := hex.DecodeString(body)
	if err != nil {
		return common.Address{}, fmt.Errorf("%w: %q", ErrInvalidAddress, s)
	}
	if body != strings.ToLower(body) && body != strings.ToUpper(body) && body != toChecksumHex(body) {
		return common.Address{}, fmt.Errorf("%w: %q", ErrChecksumMismatch, s)
	}
	return common.BytesToAddress(raw), nil
}

func keccak256(data []byte) []byte {
	hash := sha3.NewLegacyKeccak256()
	hash.Write(data)
	return hash.Sum(nil)
}

// toChecksumHex 实现 EIP-55 混合大小写校验：hash 的第 i 位 >= 8 时该字符大写
func toChecksumHex(addressHex string) string {
	addressHex = strings.ToLower(addressHex)
	hexHash := hex.EncodeToString(keccak256([]byte(addressHex)))

	var sb strings.Builder
	sb.Grow(len(addressHex))
	for i := 0; i < len(addressHex); i++ {
		c := addressHex[i]
		if c >= 'a' && c <= 'f' && hexCharToInt(hexHash[i]) >= 8 {
			c -= 'a' - 'A'
		}
		sb.WriteByte(c)
	}
	return sb.String()
}

func hexCharToInt(c byte) byte {
	if c >= '0' && c <= '9' {
		return c - '0'
	}
	if c >= 'a' && c <= 'f' {
		return c - 'a' + 10
	}
	return 0
}
