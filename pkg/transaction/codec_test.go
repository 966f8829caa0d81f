package transaction

import (
	"bytes"
	"errors"
	"math/big"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeUnsignedDynamicFee(t *testing.T) {
	to := common.HexToAddress("0x00008FDEE72ac11b5c542428B35EEF5769C409f0")
	f := Fields{
		Type:                 typePtr(DynamicFeeTxType),
		ChainID:              bi(1337),
		Gas:                  bi(4660),
		MaxFeePerGas:         bi(87_119_557_365),
		MaxPriorityFeePerGas: bi(0),
		Nonce:                bi(1),
		To:                   &to,
		Value:                bi(0),
		Input:                hexutil.MustDecode("0x0006fdde03"),
	}
	raw, err := Encode(mustNew(t, f))
	require.NoError(t, err)
	assert.Equal(t,
		"0x02eb8205390180851448baf2f58212349400008fdee72ac11b5c542428b35eef5769c409f080850006fdde03c0",
		hexutil.Encode(raw))
}

func TestEncodeSignedLegacyMainnet(t *testing.T) {
	value, _ := new(big.Int).SetString("25173818188182582", 10)
	f := Fields{
		Type:     typePtr(LegacyTxType),
		ChainID:  bi(1),
		Nonce:    bi(198),
		GasPrice: bi(54_000_000_000),
		Gas:      bi(21000),
		To:       addrPtr("0xe48C9A989438606a79a7560cfba3d34BAfBAC38E"),
		Value:    value,
	}
	p := mustNew(t, f)

	// r、s 取满 32 字节的任意值，v = 0 + 1*2 + 35
	r := new(uint256.Int).SetBytes32(bytes.Repeat([]byte{0xaa}, 32))
	s := new(uint256.Int).SetBytes32(bytes.Repeat([]byte{0x55}, 32))
	v, err := CalculateYParityOrV(p, 0)
	require.NoError(t, err)
	require.Equal(t, uint64(37), v.Uint64())

	raw, err := Encode(NewSignedTx(p, r, s, v))
	require.NoError(t, err)
	const prefix = "0xf86c81c6850c92a69c0082520894e48c9a989438606a79a7560cfba3d34bafbac38e87596f744abf34368025a0"
	assert.True(t, strings.HasPrefix(hexutil.Encode(raw), prefix), "got %s", hexutil.Encode(raw))
}

var cmpOpts = []cmp.Option{cmpopts.EquateEmpty()}

func TestRoundTripUnsigned(t *testing.T) {
	for name, p := range allPayloads(t) {
		t.Run(name, func(t *testing.T) {
			raw, err := Encode(p)
			require.NoError(t, err)

			decoded, err := Decode(raw)
			require.NoError(t, err)
			if diff := cmp.Diff(Transaction(p), decoded, cmpOpts...); diff != "" {
				t.Errorf("解码结果不一致 (-want +got):\n%s", diff)
			}

			again, err := Encode(decoded)
			require.NoError(t, err)
			assert.Equal(t, raw, again)
		})
	}
}

func TestRoundTripSigned(t *testing.T) {
	signer := ecdsaSigner{key: testKey(t)}
	for name, p := range allPayloads(t) {
		t.Run(name, func(t *testing.T) {
			signed, err := Sign(p, signer)
			require.NoError(t, err)
			raw, err := Encode(signed)
			require.NoError(t, err)

			decoded, err := Decode(raw)
			require.NoError(t, err)
			if diff := cmp.Diff(Transaction(signed), decoded, cmpOpts...); diff != "" {
				t.Errorf("解码结果不一致 (-want +got):\n%s", diff)
			}

			again, err := Encode(decoded)
			require.NoError(t, err)
			assert.Equal(t, raw, again)

			h1, err := Hash(signed)
			require.NoError(t, err)
			h2, err := Hash(decoded)
			require.NoError(t, err)
			assert.Equal(t, h1, h2)
		})
	}
}

func TestHashIsStable(t *testing.T) {
	p := mustNew(t, eip1559Fields())
	h1, err := Hash(p)
	require.NoError(t, err)
	h2, err := Hash(mustNew(t, eip1559Fields()))
	require.NoError(t, err)
	assert.Equal(t, h1, h2)

	other, err := Hash(mustNew(t, eip1559Fields().With(FieldNonce, bi(43))))
	require.NoError(t, err)
	assert.NotEqual(t, h1, other)
}

func TestDecodeHex(t *testing.T) {
	tx, err := DecodeHex("0x02eb8205390180851448baf2f58212349400008fdee72ac11b5c542428b35eef5769c409f080850006fdde03c0")
	require.NoError(t, err)
	p, ok := tx.(*EIP1559Tx)
	require.True(t, ok, "got %T", tx)
	assert.Equal(t, uint64(1337), p.ChainID.Uint64())
	assert.Equal(t, uint64(4660), p.Gas)
	assert.Equal(t, hexutil.MustDecode("0x0006fdde03"), p.Input)

	_, err = DecodeHex("02eb")
	var derr *DecodeError
	assert.True(t, errors.As(err, &derr))
}

func TestDecodeErrors(t *testing.T) {
	valid, err := Encode(mustNew(t, eip1559Fields()))
	require.NoError(t, err)

	tests := []struct {
		name        string
		raw         string
		unsupported bool
	}{
		{name: "empty", raw: "0x"},
		{name: "unknown envelope", raw: "0x05c0", unsupported: true},
		{name: "rlp string instead of list", raw: "0x8401020304"},
		{name: "trailing bytes", raw: hexutil.Encode(append(append([]byte{}, valid...), 0x00))},
		{name: "typed body too short", raw: "0x02c3010203"},
		{name: "legacy too short", raw: "0xc3010203"},
		// nonce 编码为 0x00（非规范整数）
		{name: "non-canonical integer", raw: "0xc6" + "00" + "01" + "01" + "80" + "01" + "80"},
		{name: "address of wrong length", raw: "0xc8" + "01" + "01" + "01" + "8201ff" + "01" + "80"},
		{name: "tail of two items", raw: "0xc8" + "01" + "01" + "01" + "80" + "01" + "80" + "01" + "01"},
		{name: "access list not a list", raw: "0x01c8" + "01" + "01" + "01" + "01" + "80" + "01" + "80" + "01"},
		{name: "blob tx without to", raw: "0x03cb" + "01" + "01" + "01" + "01" + "01" + "80" + "01" + "80" + "c0" + "01" + "c0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(hexutil.MustDecode(tt.raw))
			require.Error(t, err)
			if tt.unsupported {
				var uerr *UnsupportedTransactionError
				assert.True(t, errors.As(err, &uerr), "got %v", err)
				return
			}
			var derr *DecodeError
			assert.True(t, errors.As(err, &derr), "got %v", err)
		})
	}
}

func TestDecodeUnsupportedReportsEnvelopeByte(t *testing.T) {
	for raw, want := range map[string]string{"0x00c0": "0x00", "0x05c0": "0x05", "0x7fc0": "0x7f"} {
		_, err := Decode(hexutil.MustDecode(raw))
		var uerr *UnsupportedTransactionError
		require.ErrorAs(t, err, &uerr, raw)
		assert.Equal(t, want, uerr.Type)
		assert.NotContains(t, err.Error(), "legacy")
	}
}

func TestDecodeEIP155Preimage(t *testing.T) {
	p := mustNew(t, legacyFields(bi(1337)))
	raw, err := Encode(p)
	require.NoError(t, err)

	decoded, err := Decode(raw)
	require.NoError(t, err)
	legacy, ok := decoded.(*LegacyTx)
	require.True(t, ok, "got %T", decoded)
	assert.Equal(t, uint256.NewInt(1337), legacy.ChainID)
}
