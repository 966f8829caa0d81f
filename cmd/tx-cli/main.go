package main

import "wallet-tx/cmd/tx-cli/cmd"

func main() {
	cmd.Execute()
}
