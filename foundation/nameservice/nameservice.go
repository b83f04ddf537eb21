// Package nameservice reads the zblock/accounts folder and creates a name
// service lookup for the keys nodes sign blocks with.
package nameservice

import (
	"crypto/ecdsa"
	"fmt"
	"io/fs"
	"path"
	"path/filepath"
	"strings"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/okilalu/Blockchain/foundation/blockchain/signature"
)

// NameService maintains a map of addresses for name lookup and the keys
// loaded from disk.
type NameService struct {
	names map[string]string
	keys  map[string]*ecdsa.PrivateKey
}

// New constructs a name service with the keys from the zblock/accounts folder.
func New(root string) (*NameService, error) {
	ns := NameService{
		names: make(map[string]string),
		keys:  make(map[string]*ecdsa.PrivateKey),
	}

	fn := func(fileName string, info fs.FileInfo, err error) error {
		if err != nil {
			return fmt.Errorf("walkdir failure: %w", err)
		}

		if path.Ext(fileName) != ".ecdsa" {
			return nil
		}

		privateKey, err := crypto.LoadECDSA(fileName)
		if err != nil {
			return fmt.Errorf("%s: %w", fileName, err)
		}

		name := strings.TrimSuffix(path.Base(fileName), ".ecdsa")
		ns.names[signature.Address(privateKey.PublicKey)] = name
		ns.keys[name] = privateKey

		return nil
	}

	if err := filepath.Walk(root, fn); err != nil {
		return nil, fmt.Errorf("walking directory: %w", err)
	}

	return &ns, nil
}

// KeyPair returns the private key stored under the specified name and the
// hex encoded public key.
func (ns *NameService) KeyPair(name string) (*ecdsa.PrivateKey, string, error) {
	privateKey, exists := ns.keys[name]
	if !exists {
		return nil, "", fmt.Errorf("no key named %q", name)
	}

	return privateKey, signature.PublicKeyString(&privateKey.PublicKey), nil
}

// Lookup returns the name for the specified address.
func (ns *NameService) Lookup(address string) string {
	name, exists := ns.names[address]
	if !exists {
		return address
	}
	return name
}

// LookupPublicKey returns the name for the hex encoded public key.
func (ns *NameService) LookupPublicKey(publicKey string) string {
	pk, err := signature.ToPublicKey(publicKey)
	if err != nil {
		return publicKey
	}
	return ns.Lookup(signature.Address(*pk))
}

// Copy returns a copy of the map of addresses and names.
func (ns *NameService) Copy() map[string]string {
	cpy := make(map[string]string, len(ns.names))
	for address, name := range ns.names {
		cpy[address] = name
	}
	return cpy
}
