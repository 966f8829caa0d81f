package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"wallet-tx/pkg/transaction"
)

var decodeCmd = &cobra.Command{
	Use:   "decode <raw-hex>",
	Short: "解析原始交易",
	Long:  `解析 0x 开头的原始交易字节，输出 JSON-RPC 形式；已签名交易同时恢复发送方地址。`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		tx, err := transaction.DecodeHex(strings.TrimSpace(args[0]))
		if err != nil {
			return err
		}
		m, err := transaction.ToRPCMap(tx)
		if err != nil {
			return err
		}
		hash, err := transaction.Hash(tx)
		if err != nil {
			return err
		}
		out := map[string]interface{}{
			"type": transaction.TypeID(tx).String(),
			"hash": hash,
			"tx":   m,
		}
		if signed, ok := tx.(*transaction.SignedTx); ok {
			from, err := transaction.FromAddress(signed)
			if err != nil {
				return fmt.Errorf("恢复发送方失败: %w", err)
			}
			out["from"] = from.Hex()
		}
		return printJSON(cmd, out)
	},
}

func init() {
	rootCmd.AddCommand(decodeCmd)
}
