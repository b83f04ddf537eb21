package cmd

import (
	"fmt"
	"log"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/okilalu/Blockchain/foundation/blockchain/signature"
	"github.com/spf13/cobra"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a new signing key pair",
	Run:   generateRun,
}

func init() {
	rootCmd.AddCommand(generateCmd)
}

func generateRun(cmd *cobra.Command, args []string) {
	privateKey, err := crypto.GenerateKey()
	if err != nil {
		log.Fatal(err)
	}

	path := getPrivateKeyPath()
	if err := crypto.SaveECDSA(path, privateKey); err != nil {
		log.Fatal(err)
	}

	fmt.Println("Key saved to:", path)
	fmt.Println("Address:", signature.Address(privateKey.PublicKey))
	fmt.Println("Public Key:", signature.PublicKeyString(&privateKey.PublicKey))
}
