package address

import (
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromPublicKey(t *testing.T) {
	// Hardhat 默认账户 #0
	key, err := crypto.HexToECDSA("ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80")
	require.NoError(t, err)
	pub := crypto.FromECDSAPub(&key.PublicKey)

	addr, err := FromPublicKey(pub)
	require.NoError(t, err)
	assert.Equal(t, "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266", Checksum(addr))

	addr64, err := FromPublicKey(pub[1:])
	require.NoError(t, err)
	assert.Equal(t, addr, addr64)

	_, err = FromPublicKey(pub[:33])
	assert.True(t, errors.Is(err, ErrInvalidPublicKey))
}

func TestChecksumMatchesGeth(t *testing.T) {
	for _, s := range []string{
		"0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed",
		"0xfb6916095ca1df60bb79ce92ce3ea74c37c5d359",
		"0xdbf03b407c01e7cd3cbea99509d93f8dddc8c6fb",
		"0xd1220a0cf47c7b9be7a2e6ba89f429762e7b9adb",
	} {
		addr := common.HexToAddress(s)
		assert.Equal(t, addr.Hex(), Checksum(addr), s)
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr error
	}{
		{"checksummed", "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed", nil},
		{"lowercase", "0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed", nil},
		{"uppercase", "0x5AAEB6053F3E94C9B9A09F33669435E7EF1BEAED", nil},
		{"bad checksum", "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAeD", ErrChecksumMismatch},
		{"short", "0x5aaeb6053f3e94c9b9a09f33669435e7ef1bea", ErrInvalidAddress},
		{"no prefix", "5aaeb6053f3e94c9b9a09f33669435e7ef1beaed00", ErrInvalidAddress},
		{"not hex", "0x5aaeb6053f3e94c9b9a09f33669435e7ef1beazz", ErrInvalidAddress},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			addr, err := Parse(tt.input)
			if tt.wantErr != nil {
				assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, common.HexToAddress(tt.input), addr)
		})
	}
}
