package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"wallet-tx/pkg/signer"
)

// newCmd 代表 new 命令
var newCmd = &cobra.Command{
	Use:   "new",
	Short: "创建一个新的签名账户",
	Long:  `生成随机 BIP-39 助记词，使用密码加密后写入 Keystore 文件，并显示派生的以太坊地址。`,
	RunE: func(cmd *cobra.Command, args []string) error {
		keystoreFile, _ := cmd.Flags().GetString("keystore")
		words, _ := cmd.Flags().GetInt("words")
		path, _ := cmd.Flags().GetString("path")
		light, _ := cmd.Flags().GetBool("light")

		// 1. 生成助记词
		bitSize := 128
		if words == 24 {
			bitSize = 256
		} else if words != 12 {
			return fmt.Errorf("仅支持 12 或 24 个单词")
		}
		mnemonic, err := signer.GenerateMnemonic(bitSize)
		if err != nil {
			return err
		}

		// 2. 派生地址
		s, err := signer.NewMnemonicSigner(mnemonic, "", path)
		if err != nil {
			return err
		}

		// 3. 输入密码并加密保存
		password, err := readPassword("请设置 Keystore 密码: ")
		if err != nil {
			return err
		}
		if password == "" {
			return errors.New("密码不能为空")
		}
		scryptN := signer.StandardScryptN
		if light {
			scryptN = signer.LightScryptN
		}
		encrypted, err := signer.EncryptMnemonic(mnemonic, password, scryptN)
		if err != nil {
			return err
		}
		if err := encrypted.SaveToFile(keystoreFile); err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "---------------------------------------------------")
		fmt.Fprintf(out, "助记词 (Mnemonic): \n%s\n", mnemonic)
		fmt.Fprintln(out, "---------------------------------------------------")
		fmt.Fprintf(out, "Ethereum Address [%s]: %s\n", path, s.Address().Hex())
		fmt.Fprintf(out, "Keystore 已保存到: %s\n", keystoreFile)
		fmt.Fprintln(out, "请妥善保管您的助记词！任何拥有助记词的人都可以控制该账户的所有资产。")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(newCmd)
	newCmd.Flags().StringP("keystore", "k", "wallet.json", "Keystore 文件路径")
	newCmd.Flags().Int("words", 12, "助记词单词数 (12 或 24)")
	newCmd.Flags().String("path", signer.DefaultDerivationPath, "BIP-44 派生路径")
	newCmd.Flags().Bool("light", false, "使用较低的 scrypt 参数 (仅用于测试)")
}
