package storage_test

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/okilalu/Blockchain/foundation/blockchain/database"
	"github.com/okilalu/Blockchain/foundation/blockchain/database/storage/disk"
	"github.com/okilalu/Blockchain/foundation/blockchain/database/storage/level"
	"github.com/okilalu/Blockchain/foundation/blockchain/database/storage/memory"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

const MINER1_ECDSA = "fae85851bdf5c9f49923722ce38f3c1defcfd3619ef5453230a58ad805499959"

func buildChain(t *testing.T, blocks int) database.Chain {
	t.Helper()

	privateKey, err := crypto.HexToECDSA(MINER1_ECDSA)
	if err != nil {
		t.Fatalf("Should be able to load the private key: %s", err)
	}

	chain := database.NewChain()
	for i := 0; i < blocks; i++ {
		tip := chain.Tip()

		cand := database.Candidate{
			Index:        tip.Index + 1,
			PreviousHash: tip.Hash,
			TimeStamp:    1_700_000_000_000 + int64(i)*1000,
			Records:      []database.Record{{"number": fmt.Sprintf("CERT-%03d", i), "amount": 1.5}},
			Difficulty:   1,
		}

		block, err := database.POW(context.Background(), cand, nil)
		if err != nil {
			t.Fatalf("Should be able to mine block %d: %s", cand.Index, err)
		}

		if block, err = block.Sign(privateKey); err != nil {
			t.Fatalf("Should be able to sign block %d: %s", cand.Index, err)
		}

		chain = append(chain, block)
	}

	return chain
}

func Test_Storage(t *testing.T) {
	type table struct {
		name string
		open func(t *testing.T) database.Storage
	}

	tt := []table{
		{
			name: "memory",
			open: func(t *testing.T) database.Storage {
				return memory.New()
			},
		},
		{
			name: "disk",
			open: func(t *testing.T) database.Storage {
				d, err := disk.New(filepath.Join(t.TempDir(), "blocks"))
				if err != nil {
					t.Fatalf("Should be able to open the disk storage: %s", err)
				}
				return d
			},
		},
		{
			name: "level",
			open: func(t *testing.T) database.Storage {
				l, err := level.New(filepath.Join(t.TempDir(), "blocks.db"))
				if err != nil {
					t.Fatalf("Should be able to open the leveldb storage: %s", err)
				}
				return l
			},
		},
	}

	chain := buildChain(t, 3)
	want, err := database.Serialize(chain)
	if err != nil {
		t.Fatalf("Should be able to serialize the chain: %s", err)
	}

	t.Log("Given the need to store and reload the chain.")
	{
		for testID, tst := range tt {
			f := func(t *testing.T) {
				t.Logf("\tTest %d:\tWhen using %s storage.", testID, tst.name)
				{
					storage := tst.open(t)
					defer storage.Close()

					if err := database.WriteChain(storage, chain); err != nil {
						t.Fatalf("\t%s\tTest %d:\tShould be able to write the chain : %s", failed, testID, err)
					}
					t.Logf("\t%s\tTest %d:\tShould be able to write the chain.", success, testID)

					got, err := database.ReadChain(storage, nil)
					if err != nil {
						t.Fatalf("\t%s\tTest %d:\tShould be able to read the chain : %s", failed, testID, err)
					}
					t.Logf("\t%s\tTest %d:\tShould be able to read the chain.", success, testID)

					data, err := database.Serialize(got)
					if err != nil || string(data) != string(want) {
						t.Fatalf("\t%s\tTest %d:\tShould read back the same chain : %v", failed, testID, err)
					}
					t.Logf("\t%s\tTest %d:\tShould read back the same chain.", success, testID)

					if err := database.WriteChain(storage, chain[:2]); err != nil {
						t.Fatalf("\t%s\tTest %d:\tShould be able to replace the chain : %s", failed, testID, err)
					}

					got, err = database.ReadChain(storage, nil)
					if err != nil || got.Length() != 2 {
						t.Fatalf("\t%s\tTest %d:\tShould read back the shorter chain : %d %v", failed, testID, got.Length(), err)
					}
					t.Logf("\t%s\tTest %d:\tShould read back the shorter chain.", success, testID)

					if _, err := storage.GetBlock(2); err == nil {
						t.Fatalf("\t%s\tTest %d:\tShould not find a block that was reset.", failed, testID)
					}
					t.Logf("\t%s\tTest %d:\tShould not find a block that was reset.", success, testID)
				}
			}

			t.Run(tst.name, f)
		}
	}
}
