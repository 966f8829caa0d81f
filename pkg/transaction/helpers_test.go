package transaction

import (
	"crypto/ecdsa"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"
)

// Hardhat 默认账户 #0
const (
	testKeyHex  = "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"
	testAddrHex = "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"
)

type ecdsaSigner struct {
	key *ecdsa.PrivateKey
}

func (s ecdsaSigner) SignHash(hash common.Hash) (Signature, error) {
	sig, err := crypto.Sign(hash[:], s.key)
	if err != nil {
		return Signature{}, err
	}
	var out Signature
	copy(out.R[:], sig[:32])
	copy(out.S[:], sig[32:64])
	out.RecoveryID = sig[64]
	return out, nil
}

func testKey(t *testing.T) *ecdsa.PrivateKey {
	t.Helper()
	key, err := crypto.HexToECDSA(testKeyHex)
	require.NoError(t, err)
	return key
}

func bi(v int64) *big.Int { return big.NewInt(v) }

func addrPtr(s string) *common.Address {
	a := common.HexToAddress(s)
	return &a
}

func typePtr(t Type) *Type { return &t }

var (
	testTo     = addrPtr("0x3535353535353535353535353535353535353535")
	testInput  = hexutil.MustDecode("0xa9059cbb000000000000000000000000")
	testAccess = AccessList{
		{
			Address: common.HexToAddress("0x1111111111111111111111111111111111111111"),
			StorageKeys: []common.Hash{
				common.HexToHash("0x01"),
				common.HexToHash("0xff"),
			},
		},
		{Address: common.HexToAddress("0x2222222222222222222222222222222222222222")},
	}
	testBlobHashes = []common.Hash{
		common.HexToHash("0x0100000000000000000000000000000000000000000000000000000000000abc"),
	}
)

func legacyFields(chainID *big.Int) Fields {
	return Fields{
		Type:     typePtr(LegacyTxType),
		ChainID:  chainID,
		Nonce:    bi(9),
		GasPrice: bi(20_000_000_000),
		Gas:      bi(21000),
		To:       testTo,
		Value:    new(big.Int).Exp(bi(10), bi(18), nil),
	}
}

func eip2930Fields() Fields {
	return Fields{
		Type:       typePtr(AccessListTxType),
		ChainID:    bi(5),
		Nonce:      bi(3),
		GasPrice:   bi(1_000_000_000),
		Gas:        bi(60000),
		To:         testTo,
		Value:      bi(1),
		Input:      testInput,
		AccessList: testAccess,
	}
}

func eip1559Fields() Fields {
	return Fields{
		Type:                 typePtr(DynamicFeeTxType),
		ChainID:              bi(1),
		Nonce:                bi(42),
		MaxPriorityFeePerGas: bi(2_000_000_000),
		MaxFeePerGas:         bi(30_000_000_000),
		Gas:                  bi(100000),
		To:                   testTo,
		Value:                bi(0),
		Input:                testInput,
		AccessList:           testAccess,
	}
}

func eip4844Fields() Fields {
	return Fields{
		Type:                 typePtr(BlobTxType),
		ChainID:              bi(11155111),
		Nonce:                bi(7),
		MaxPriorityFeePerGas: bi(1_000_000_000),
		MaxFeePerGas:         bi(50_000_000_000),
		Gas:                  bi(21000),
		To:                   testTo,
		Value:                bi(0),
		MaxFeePerBlobGas:     bi(3),
		BlobVersionedHashes:  testBlobHashes,
	}
}

func mustNew(t *testing.T, f Fields) Payload {
	t.Helper()
	p, err := New(f)
	require.NoError(t, err)
	return p
}

func allPayloads(t *testing.T) map[string]Payload {
	t.Helper()
	return map[string]Payload{
		"legacy pre-155":  mustNew(t, legacyFields(nil)),
		"legacy eip-155":  mustNew(t, legacyFields(bi(1))),
		"eip2930":         mustNew(t, eip2930Fields()),
		"eip1559":         mustNew(t, eip1559Fields()),
		"eip4844":         mustNew(t, eip4844Fields()),
		"contract create": mustNew(t, eip1559Fields().withoutTo()),
	}
}

func (f Fields) withoutTo() Fields {
	f.To = nil
	return f
}
