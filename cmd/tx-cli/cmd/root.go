package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// rootCmd 代表基础命令，没有子命令时直接调用
var rootCmd = &cobra.Command{
	Use:   "tx-cli",
	Short: "以太坊交易命令行工具",
	Long: `构建、编码、离线签名、解析与广播以太坊交易。
支持 legacy (含 EIP-155)、EIP-2930、EIP-1559 与 EIP-4844 四种交易类型。`,
	SilenceUsage: true,
}

// Execute 将所有子命令添加到根命令并设置标志
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// signedFile sign 的输出、broadcast 的输入
type signedFile struct {
	Hash string `json:"hash"`
	From string `json:"from"`
	Raw  string `json:"raw"`
}

// readPassword 优先读取环境变量 WALLET_PASSWORD，否则在终端提示输入
func readPassword(prompt string) (string, error) {
	if pw := os.Getenv("WALLET_PASSWORD"); pw != "" {
		return pw, nil
	}
	fmt.Print(prompt)
	b, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("读取密码失败: %w", err)
	}
	return string(b), nil
}

func readJSONFile(path string, out interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("读取文件失败: %w", err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("解析 %s 失败: %w", path, err)
	}
	return nil
}

func printJSON(cmd *cobra.Command, v interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
