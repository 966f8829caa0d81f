package signer

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/tyler-smith/go-bip39"
)

// DefaultDerivationPath 为以太坊 BIP-44 第一个外部地址
const DefaultDerivationPath = "m/44'/60'/0'/0/0"

var (
	ErrInvalidMnemonic = errors.New("signer: invalid mnemonic")
	ErrInvalidPath     = errors.New("signer: invalid derivation path")
)

// GenerateMnemonic 生成 BIP-39 助记词，bitSize 通常为 128（12 个单词）或 256（24 个单词）
func GenerateMnemonic(bitSize int) (string, error) {
	entropy, err := bip39.NewEntropy(bitSize)
	if err != nil {
		return "", fmt.Errorf("生成熵失败: %w", err)
	}
	mnemonic, err := bip39.NewMnemonic(entropy)
	if err != nil {
		return "", fmt.Errorf("生成助记词失败: %w", err)
	}
	return mnemonic, nil
}

// NewMnemonicSigner derives the key at path from a BIP-39 mnemonic and passphrase.
// An empty path means DefaultDerivationPath.
func NewMnemonicSigner(mnemonic, passphrase, path string) (*KeySigner, error) {
	if !bip39.IsMnemonicValid(mnemonic) {
		return nil, ErrInvalidMnemonic
	}
	if path == "" {
		path = DefaultDerivationPath
	}
	seed := bip39.NewSeed(mnemonic, passphrase)

	// 以太坊不使用网络参数，主网参数仅用于 xprv 序列化
	master, err := hdkeychain.NewMaster(seed, &chaincfg.MainNetParams)
	if err != nil {
		return nil, fmt.Errorf("生成主密钥失败: %w", err)
	}
	child, err := DerivePath(master, path)
	if err != nil {
		return nil, err
	}
	key, err := child.ECPrivKey()
	if err != nil {
		return nil, fmt.Errorf("获取私钥失败: %w", err)
	}
	return NewKeySigner(key)
}

// DerivePath 解析路径并逐级派生，支持 m/44'/60'/0'/0/0 或 m/44h/60h/0h/0/0
func DerivePath(master *hdkeychain.ExtendedKey, path string) (*hdkeychain.ExtendedKey, error) {
	path = strings.TrimSpace(path)
	if path == "m" || path == "" {
		return master, nil
	}
	if !strings.HasPrefix(path, "m/") {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPath, path)
	}

	key := master
	for _, segment := range strings.Split(path[2:], "/") {
		hardened := strings.HasSuffix(segment, "'") || strings.HasSuffix(segment, "h")
		if hardened {
			segment = segment[:len(segment)-1]
		}
		val, err := strconv.ParseUint(segment, 10, 31)
		if err != nil {
			return nil, fmt.Errorf("%w: segment %q", ErrInvalidPath, segment)
		}
		index := uint32(val)
		if hardened {
			index += hdkeychain.HardenedKeyStart
		}
		if key, err = key.Derive(index); err != nil {
			return nil, fmt.Errorf("派生子密钥失败: %w", err)
		}
	}
	return key, nil
}

// AccountPath returns the BIP-44 path of the i-th external Ethereum address.
func AccountPath(i uint32) string {
	return fmt.Sprintf("m/44'/60'/0'/0/%d", i)
}
