package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/spf13/cobra"

	"wallet-tx/pkg/ethrpc"
	"wallet-tx/pkg/transaction"
)

var broadcastCmd = &cobra.Command{
	Use:   "broadcast",
	Short: "广播已签名的交易 (Online)",
	Long:  `读取 sign 输出的文件，校验签名后通过 eth_sendRawTransaction 广播。`,
	RunE: func(cmd *cobra.Command, args []string) error {
		inputFile, _ := cmd.Flags().GetString("input")
		rpcURL, _ := cmd.Flags().GetString("rpc")
		wait, _ := cmd.Flags().GetDuration("wait")

		// 1. 读取并校验 Signed Tx
		var sf signedFile
		if err := readJSONFile(inputFile, &sf); err != nil {
			return err
		}
		raw, err := hexutil.Decode(sf.Raw)
		if err != nil {
			return fmt.Errorf("raw 不是合法的十六进制: %w", err)
		}
		tx, err := transaction.Decode(raw)
		if err != nil {
			return err
		}
		signed, ok := tx.(*transaction.SignedTx)
		if !ok {
			return transaction.ErrNoSignature
		}
		from, err := transaction.FromAddress(signed)
		if err != nil {
			return err
		}

		// 2. 连接节点并广播
		ctx := cmd.Context()
		client, err := ethrpc.Dial(ctx, rpcURL, 15*time.Second)
		if err != nil {
			return err
		}
		defer client.Close()

		fmt.Printf("正在广播交易 (from %s) ...\n", from.Hex())
		hash, err := client.SendRawTransaction(ctx, raw)
		if err != nil {
			return fmt.Errorf("❌ 广播失败: %w", err)
		}
		fmt.Printf("✅ 广播成功! Hash: %s\n", hash.Hex())

		// 3. 可选: 等待回执
		if wait <= 0 {
			return nil
		}
		receipt, err := waitReceipt(ctx, client, hash, wait)
		if err != nil {
			return err
		}
		status := "成功"
		if receipt.Status != types.ReceiptStatusSuccessful {
			status = "执行失败"
		}
		fmt.Printf("已上链: 区块 %s, gasUsed %d, %s\n", receipt.BlockNumber, receipt.GasUsed, status)
		return nil
	},
}

var errNotMined = errors.New("交易尚未上链")

func waitReceipt(ctx context.Context, client *ethrpc.Client, hash common.Hash, timeout time.Duration) (*types.Receipt, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()
	for {
		receipt, err := client.Receipt(ctx, hash)
		if err != nil {
			return nil, err
		}
		if receipt != nil {
			return receipt, nil
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %v", errNotMined, ctx.Err())
		case <-ticker.C:
		}
	}
}

func init() {
	rootCmd.AddCommand(broadcastCmd)
	broadcastCmd.Flags().StringP("input", "i", "signed.json", "已签名的交易文件")
	broadcastCmd.Flags().String("rpc", "http://localhost:8545", "RPC 节点地址")
	broadcastCmd.Flags().Duration("wait", 0, "等待回执的最长时间，0 表示不等待")
}
