package nameservice_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/okilalu/Blockchain/foundation/nameservice"
)

func Test_NameService(t *testing.T) {
	dir := t.TempDir()

	keys := map[string]string{
		"miner1": "fae85851bdf5c9f49923722ce38f3c1defcfd3619ef5453230a58ad805499959",
		"miner2": "8dc79feefd3b86e2f9991def0e5ccd9a5128e104682407b308594bc1032ac7f0",
	}

	for name, hex := range keys {
		if err := os.WriteFile(filepath.Join(dir, name+".ecdsa"), []byte(hex), 0600); err != nil {
			t.Fatalf("Should be able to write the key file: %s", err)
		}
	}
	if err := os.WriteFile(filepath.Join(dir, "README.txt"), []byte("not a key"), 0600); err != nil {
		t.Fatalf("Should be able to write the extra file: %s", err)
	}

	ns, err := nameservice.New(dir)
	if err != nil {
		t.Fatalf("Should be able to load the keys: %s", err)
	}

	if len(ns.Copy()) != 2 {
		t.Fatalf("Should get back two names, got %d.", len(ns.Copy()))
	}

	if name := ns.Lookup("0xdd6B972ffcc631a62CAE1BB9d80b7ff429c8ebA4"); name != "miner1" {
		t.Fatalf("Should get back the name for the address, got %q.", name)
	}

	privateKey, publicKey, err := ns.KeyPair("miner2")
	if err != nil {
		t.Fatalf("Should be able to get the key pair: %s", err)
	}

	exp, _ := crypto.HexToECDSA(keys["miner2"])
	if !privateKey.Equal(exp) {
		t.Fatalf("Should get back the stored private key.")
	}

	if name := ns.LookupPublicKey(publicKey); name != "miner2" {
		t.Fatalf("Should get back the name for the public key, got %q.", name)
	}

	if _, _, err := ns.KeyPair("miner9"); err == nil {
		t.Fatalf("Should fail for an unknown name.")
	}

	if ns.Lookup("0x0") != "0x0" {
		t.Fatalf("Should get back the address for an unknown address.")
	}
}
