package signer

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"golang.org/x/crypto/scrypt"
)

// Scrypt 参数，与 geth keystore 的 Standard / Light 两档一致
const (
	StandardScryptN = 1 << 18
	LightScryptN    = 1 << 12
	scryptR         = 8
	scryptP         = 1
	scryptDKLen     = 32
)

var ErrDecrypt = errors.New("keystore: invalid password or corrupted data")

// EncryptedKeyJSON 沿用 Keystore V3 的结构，存储的是助记词而不是单个私钥
type EncryptedKeyJSON struct {
	Address string     `json:"address,omitempty"`
	Crypto  CryptoJSON `json:"crypto"`
	ID      string     `json:"id"`
	Version int        `json:"version"`
}

type CryptoJSON struct {
	Cipher       string       `json:"cipher"`
	CipherText   string       `json:"ciphertext"`
	CipherParams CipherParams `json:"cipherparams"`
	KDF          string       `json:"kdf"`
	KDFParams    KDFParams    `json:"kdfparams"`
	MAC          string       `json:"mac"`
}

type CipherParams struct {
	IV string `json:"iv"`
}

type KDFParams struct {
	DKLen int    `json:"dklen"`
	N     int    `json:"n"`
	R     int    `json:"r"`
	P     int    `json:"p"`
	Salt  string `json:"salt"`
}

// EncryptMnemonic 将助记词使用密码加密，scryptN 为 0 时使用 StandardScryptN
func EncryptMnemonic(mnemonic, password string, scryptN int) (*EncryptedKeyJSON, error) {
	if scryptN == 0 {
		scryptN = StandardScryptN
	}

	// 1. 随机 salt
	salt := make([]byte, 32)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, err
	}

	// 2. scrypt 派生 AES-256 密钥
	derivedKey, err := scrypt.Key([]byte(password), salt, scryptN, scryptR, scryptP, scryptDKLen)
	if err != nil {
		return nil, err
	}

	// 3. AES-256-GCM 加密
	gcm, err := newGCM(derivedKey)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}
	ciphertext := gcm.Seal(nil, nonce, []byte(mnemonic), nil)

	// 4. MAC = SHA256(derivedKey || ciphertext)
	mac := computeMAC(derivedKey, ciphertext)

	key := &EncryptedKeyJSON{
		Version: 3,
		ID:      uuid.NewString(),
		Crypto: CryptoJSON{
			Cipher:       "aes-256-gcm",
			CipherText:   hex.EncodeToString(ciphertext),
			CipherParams: CipherParams{IV: hex.EncodeToString(nonce)},
			KDF:          "scrypt",
			KDFParams: KDFParams{
				DKLen: scryptDKLen,
				N:     scryptN,
				R:     scryptR,
				P:     scryptP,
				Salt:  hex.EncodeToString(salt),
			},
			MAC: hex.EncodeToString(mac),
		},
	}

	// 记录默认路径的地址，便于离线识别 keystore
	if s, err := NewMnemonicSigner(mnemonic, "", DefaultDerivationPath); err == nil {
		key.Address = s.Address().Hex()
	}
	return key, nil
}

// DecryptMnemonic 解密 keystore 获取助记词
func DecryptMnemonic(key *EncryptedKeyJSON, password string) (string, error) {
	if key.Crypto.KDF != "scrypt" || key.Crypto.Cipher != "aes-256-gcm" {
		return "", fmt.Errorf("keystore: unsupported kdf %q or cipher %q", key.Crypto.KDF, key.Crypto.Cipher)
	}

	// 1. 解析 hex 参数
	salt, err := hex.DecodeString(key.Crypto.KDFParams.Salt)
	if err != nil {
		return "", fmt.Errorf("keystore: invalid salt: %w", err)
	}
	nonce, err := hex.DecodeString(key.Crypto.CipherParams.IV)
	if err != nil {
		return "", fmt.Errorf("keystore: invalid iv: %w", err)
	}
	ciphertext, err := hex.DecodeString(key.Crypto.CipherText)
	if err != nil {
		return "", fmt.Errorf("keystore: invalid ciphertext: %w", err)
	}
	mac, err := hex.DecodeString(key.Crypto.MAC)
	if err != nil {
		return "", fmt.Errorf("keystore: invalid mac: %w", err)
	}

	// 2. 重新派生密钥
	p := key.Crypto.KDFParams
	derivedKey, err := scrypt.Key([]byte(password), salt, p.N, p.R, p.P, p.DKLen)
	if err != nil {
		return "", err
	}

	// 3. 校验 MAC
	if subtle.ConstantTimeCompare(mac, computeMAC(derivedKey, ciphertext)) != 1 {
		return "", ErrDecrypt
	}

	// 4. 解密
	gcm, err := newGCM(derivedKey)
	if err != nil {
		return "", err
	}
	if len(nonce) != gcm.NonceSize() {
		return "", ErrDecrypt
	}
	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", ErrDecrypt
	}
	return string(plaintext), nil
}

// SaveToFile 以 0600 权限写入文件
func (k *EncryptedKeyJSON) SaveToFile(filename string) error {
	data, err := json.MarshalIndent(k, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filename, data, 0600)
}

// LoadKeystore 从文件加载 keystore
func LoadKeystore(filename string) (*EncryptedKeyJSON, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	var k EncryptedKeyJSON
	if err := json.Unmarshal(data, &k); err != nil {
		return nil, fmt.Errorf("keystore: %w", err)
	}
	return &k, nil
}

// NewKeystoreSigner decrypts the keystore at filename and derives the key at path.
func NewKeystoreSigner(filename, password, path string) (*KeySigner, error) {
	key, err := LoadKeystore(filename)
	if err != nil {
		return nil, err
	}
	mnemonic, err := DecryptMnemonic(key, password)
	if err != nil {
		return nil, err
	}
	return NewMnemonicSigner(mnemonic, "", path)
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

func computeMAC(derivedKey, ciphertext []byte) []byte {
	h := sha256.New()
	h.Write(derivedKey)
	h.Write(ciphertext)
	return h.Sum(nil)
}
