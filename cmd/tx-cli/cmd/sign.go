package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/spf13/cobra"

	"wallet-tx/pkg/ethrpc"
	"wallet-tx/pkg/filler"
	"wallet-tx/pkg/signer"
	"wallet-tx/pkg/transaction"
	"wallet-tx/pkg/units"
)

var signCmd = &cobra.Command{
	Use:   "sign",
	Short: "离线签名交易 (Offline Signing)",
	Long: `读取 JSON-RPC 形式的未签名交易，使用 Keystore 签名并输出原始交易。
指定 --rpc 时先从节点补全缺失字段 (chainId/nonce/费用/gas)，否则交易必须完整。`,
	RunE: func(cmd *cobra.Command, args []string) error {
		inputFile, _ := cmd.Flags().GetString("input")
		outputFile, _ := cmd.Flags().GetString("output")
		keystoreFile, _ := cmd.Flags().GetString("keystore")
		path, _ := cmd.Flags().GetString("path")
		rpcURL, _ := cmd.Flags().GetString("rpc")

		// 1. 读取未签名交易
		var m transaction.RPCMap
		if err := readJSONFile(inputFile, &m); err != nil {
			return err
		}
		fields, err := transaction.FieldsFromRPCMap(m)
		if err != nil {
			return err
		}

		// 2. 加载 Keystore 并解密
		password, err := readPassword("请输入 Keystore 密码以确认签名: ")
		if err != nil {
			return err
		}
		s, err := signer.NewKeystoreSigner(keystoreFile, password, path)
		if err != nil {
			return fmt.Errorf("解密失败 (密码错误?): %w", err)
		}
		account := s.Address()
		if fields.From != nil && *fields.From != account {
			return fmt.Errorf("from %s 与 Keystore 账户 %s 不一致", fields.From.Hex(), account.Hex())
		}
		fields.From = &account

		// 3. 补全字段 (在线) 或直接构建 (离线)
		var payload transaction.Payload
		if rpcURL != "" {
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()
			client, err := ethrpc.Dial(ctx, rpcURL, 10*time.Second)
			if err != nil {
				return err
			}
			defer client.Close()
			payload, err = filler.New(client).Build(ctx, fields)
			if err != nil {
				return err
			}
		} else {
			payload, err = transaction.New(fields)
			if err != nil {
				return err
			}
		}

		// 显示交易详情供用户确认 (Verify on Screen)
		f := transaction.FieldsOf(payload)
		fmt.Println("\n================ 待签名交易 ================")
		fmt.Printf("Type:       %s\n", transaction.TypeID(payload))
		fmt.Printf("From:       %s\n", account.Hex())
		if f.To != nil {
			fmt.Printf("To:         %s\n", f.To.Hex())
		} else {
			fmt.Printf("To:         (合约创建)\n")
		}
		fmt.Printf("Value:      %s ETH\n", units.FormatEther(f.Value))
		fmt.Printf("Nonce:      %s\n", f.Nonce)
		fmt.Printf("Gas:        %s\n", f.Gas)
		if f.ChainID != nil {
			fmt.Printf("ChainID:    %s\n", f.ChainID)
		}
		if f.GasPrice != nil {
			fmt.Printf("GasPrice:   %s gwei\n", units.FormatGwei(f.GasPrice))
		}
		if f.MaxFeePerGas != nil {
			fmt.Printf("MaxFee:     %s gwei (tip %s gwei)\n", units.FormatGwei(f.MaxFeePerGas), units.FormatGwei(f.MaxPriorityFeePerGas))
		}
		fmt.Println("============================================")

		// 4. 签名
		signed, err := transaction.Sign(payload, s)
		if err != nil {
			return err
		}
		raw, err := transaction.Encode(signed)
		if err != nil {
			return err
		}
		hash, err := transaction.Hash(signed)
		if err != nil {
			return err
		}

		// 5. 输出结果
		out, err := json.MarshalIndent(signedFile{Hash: hash.Hex(), From: account.Hex(), Raw: hexutil.Encode(raw)}, "", "  ")
		if err != nil {
			return err
		}
		if err := os.WriteFile(outputFile, out, 0o600); err != nil {
			return fmt.Errorf("保存结果失败: %w", err)
		}
		fmt.Printf("\n✅ 签名成功!\nTxHash: %s\n已保存到: %s\n", hash.Hex(), outputFile)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(signCmd)
	signCmd.Flags().StringP("input", "i", "unsigned.json", "未签名的交易文件路径")
	signCmd.Flags().StringP("output", "o", "signed.json", "签名后的输出文件路径")
	signCmd.Flags().StringP("keystore", "k", "wallet.json", "Keystore 文件路径")
	signCmd.Flags().String("path", signer.DefaultDerivationPath, "BIP-44 派生路径")
	signCmd.Flags().String("rpc", "", "用于补全缺失字段的 RPC 节点地址 (留空则完全离线)")
}
