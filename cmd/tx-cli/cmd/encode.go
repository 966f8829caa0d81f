package cmd

import (
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/spf13/cobra"

	"wallet-tx/pkg/transaction"
)

var encodeCmd = &cobra.Command{
	Use:   "encode",
	Short: "将 JSON-RPC 形式的交易编码为原始字节",
	Long:  `读取交易 JSON 文件（字段名与 eth_signTransaction 一致，可包含 v/r/s），输出原始字节与哈希。`,
	RunE: func(cmd *cobra.Command, args []string) error {
		inputFile, _ := cmd.Flags().GetString("input")

		var m transaction.RPCMap
		if err := readJSONFile(inputFile, &m); err != nil {
			return err
		}
		tx, err := transaction.FromRPCMap(m)
		if err != nil {
			return err
		}
		raw, err := transaction.Encode(tx)
		if err != nil {
			return err
		}
		hash, err := transaction.Hash(tx)
		if err != nil {
			return err
		}
		_, signed := tx.(*transaction.SignedTx)
		return printJSON(cmd, map[string]interface{}{
			"type":   transaction.TypeID(tx).String(),
			"signed": signed,
			"hash":   hash,
			"raw":    hexutil.Encode(raw),
		})
	},
}

func init() {
	rootCmd.AddCommand(encodeCmd)
	encodeCmd.Flags().StringP("input", "i", "tx.json", "交易 JSON 文件")
}
