package signer

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wallet-tx/pkg/transaction"
)

// Hardhat 默认助记词及其前两个账户
const (
	testMnemonic = "test test test test test test test test test test test junk"
	testKeyHex   = "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"
	testAddr0    = "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"
	testAddr1    = "0x70997970C51812dc3A010C7d01b50e0d17dc79C8"
)

func TestKeySignerMatchesGeth(t *testing.T) {
	s, err := NewKeySignerFromHex("0x" + testKeyHex)
	require.NoError(t, err)
	assert.Equal(t, testAddr0, s.Address().Hex())

	key, err := crypto.HexToECDSA(testKeyHex)
	require.NoError(t, err)

	hash := crypto.Keccak256Hash([]byte("wallet-tx"))
	sig, err := s.SignHash(hash)
	require.NoError(t, err)

	want, err := crypto.Sign(hash[:], key)
	require.NoError(t, err)
	assert.Equal(t, want[:32], sig.R[:])
	assert.Equal(t, want[32:64], sig.S[:])
	assert.Equal(t, want[64], sig.RecoveryID)
}

func TestNewKeySignerFromHexInvalid(t *testing.T) {
	for _, in := range []string{"", "0x1234", "zz", "0x" + strings.Repeat("ab", 31)} {
		_, err := NewKeySignerFromHex(in)
		assert.True(t, errors.Is(err, ErrInvalidPrivateKey), "input %q", in)
	}
	_, err := NewKeySignerFromHex("0x0000000000000000000000000000000000000000000000000000000000000000")
	assert.True(t, errors.Is(err, ErrInvalidPrivateKey))
}

func TestSignTransactionRecoversSigner(t *testing.T) {
	s, err := NewKeySignerFromHex(testKeyHex)
	require.NoError(t, err)

	to := common.HexToAddress("0x3535353535353535353535353535353535353535")
	tp := transaction.LegacyTxType
	for _, f := range []transaction.Fields{
		{Type: &tp, ChainID: common.Big1, Nonce: common.Big0, GasPrice: common.Big1, Gas: common.Big32, To: &to},
		{Type: &tp, Nonce: common.Big0, GasPrice: common.Big1, Gas: common.Big32, To: &to},
		{ChainID: common.Big3, Nonce: common.Big1, MaxPriorityFeePerGas: common.Big1, MaxFeePerGas: common.Big2, Gas: common.Big32, To: &to},
	} {
		p, err := transaction.New(f)
		require.NoError(t, err)
		signed, err := transaction.Sign(p, s)
		require.NoError(t, err)
		from, err := transaction.FromAddress(signed)
		require.NoError(t, err)
		assert.Equal(t, s.Address(), from)
	}
}

func TestNewMnemonicSigner(t *testing.T) {
	s0, err := NewMnemonicSigner(testMnemonic, "", "")
	require.NoError(t, err)
	assert.Equal(t, testAddr0, s0.Address().Hex())

	s1, err := NewMnemonicSigner(testMnemonic, "", AccountPath(1))
	require.NoError(t, err)
	assert.Equal(t, testAddr1, s1.Address().Hex())

	_, err = NewMnemonicSigner("not a mnemonic", "", "")
	assert.True(t, errors.Is(err, ErrInvalidMnemonic))

	for _, path := range []string{"44'/60'", "m/x", "m/44'/-1"} {
		_, err = NewMnemonicSigner(testMnemonic, "", path)
		assert.True(t, errors.Is(err, ErrInvalidPath), "path %q", path)
	}
}

func TestGenerateMnemonic(t *testing.T) {
	m, err := GenerateMnemonic(128)
	require.NoError(t, err)
	_, err = NewMnemonicSigner(m, "", "")
	assert.NoError(t, err)

	_, err = GenerateMnemonic(100)
	assert.Error(t, err)
}

func TestKeystoreRoundTrip(t *testing.T) {
	key, err := EncryptMnemonic(testMnemonic, "correct horse", LightScryptN)
	require.NoError(t, err)
	assert.Equal(t, testAddr0, key.Address)
	assert.NotEmpty(t, key.ID)

	file := filepath.Join(t.TempDir(), "keystore.json")
	require.NoError(t, key.SaveToFile(file))

	s, err := NewKeystoreSigner(file, "correct horse", AccountPath(1))
	require.NoError(t, err)
	assert.Equal(t, testAddr1, s.Address().Hex())

	_, err = NewKeystoreSigner(file, "wrong", "")
	assert.True(t, errors.Is(err, ErrDecrypt))
}
