package main

import "github.com/okilalu/Blockchain/app/wallet/cli/cmd"

func main() {
	cmd.Execute()
}
