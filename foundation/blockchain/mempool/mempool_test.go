package mempool_test

import (
	"errors"
	"testing"

	"github.com/okilalu/Blockchain/foundation/blockchain/database"
	"github.com/okilalu/Blockchain/foundation/blockchain/mempool"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func TestCRUD(t *testing.T) {
	type table struct {
		name    string
		records []database.Record
		best    int
	}

	tt := []table{
		{
			name: "basic",
			records: []database.Record{
				{"sender": "alice", "recipient": "bob", "amount": 10, "number": "CERT-1"},
				{"sender": "bob", "recipient": "carol", "amount": 50, "number": "CERT-2"},
				{"sender": "carol", "recipient": "dave", "amount": 100},
				{"sender": "dave", "recipient": "alice", "amount": 10, "number": "CERT-4"},
			},
			best: 2,
		},
	}

	t.Log("Given the need to validate mempool api.")
	{
		for testID, tst := range tt {
			t.Logf("\tTest %d:\tWhen handling a set of records.", testID)
			{
				f := func(t *testing.T) {
					mp := mempool.New("number")

					for i, rec := range tst.records {
						n, err := mp.Add(rec, nil)
						if err != nil {
							t.Fatalf("\t%s\tTest %d:\tShould be able to add record: %v", failed, testID, err)
						}
						if n != i+1 {
							t.Fatalf("\t%s\tTest %d:\tShould get back the pool size, got %d, exp %d.", failed, testID, n, i+1)
						}
					}
					t.Logf("\t%s\tTest %d:\tShould be able to add records.", success, testID)

					for i, rec := range mp.Copy() {
						if rec.ID() != tst.records[i].ID() {
							t.Fatalf("\t%s\tTest %d:\tShould get back the records in order.", failed, testID)
						}
					}
					t.Logf("\t%s\tTest %d:\tShould get back the records in order.", success, testID)

					best := mp.PickBest(tst.best)
					if len(best) != tst.best || best[0]["number"] != "CERT-1" {
						t.Fatalf("\t%s\tTest %d:\tShould get back the oldest records first.", failed, testID)
					}
					t.Logf("\t%s\tTest %d:\tShould get back the oldest records first.", success, testID)

					mp.Remove(mp.Copy()[1:2])
					if mp.Count() != 3 {
						t.Fatalf("\t%s\tTest %d:\tShould be able to remove a record.", failed, testID)
					}
					t.Logf("\t%s\tTest %d:\tShould be able to remove a record.", success, testID)

					if _, err := mp.Add(tst.records[1], nil); err != nil {
						t.Fatalf("\t%s\tTest %d:\tShould be able to add a removed key again: %v", failed, testID, err)
					}
					t.Logf("\t%s\tTest %d:\tShould be able to add a removed key again.", success, testID)

					mp.Truncate()
					if mp.Count() != 0 || len(mp.Copy()) != 0 {
						t.Fatalf("\t%s\tTest %d:\tShould be able to truncate mempool.", failed, testID)
					}
					t.Logf("\t%s\tTest %d:\tShould be able to truncate mempool.", success, testID)
				}

				t.Run(tst.name, f)
			}
		}
	}
}

func TestDuplicateKey(t *testing.T) {
	used := map[string]struct{}{"CERT-9": {}}

	t.Log("Given the need to enforce uniqueness keys.")
	{
		mp := mempool.New("number")

		if _, err := mp.Add(database.Record{"number": "CERT-1", "owner": "alice"}, used); err != nil {
			t.Fatalf("\t%s\tShould be able to add the first record: %v", failed, err)
		}
		t.Logf("\t%s\tShould be able to add the first record.", success)

		_, err := mp.Add(database.Record{"number": "CERT-1", "owner": "bob"}, used)
		if !errors.Is(err, mempool.ErrDuplicateKey) {
			t.Fatalf("\t%s\tShould reject a key that is pending: %v", failed, err)
		}
		t.Logf("\t%s\tShould reject a key that is pending.", success)

		_, err = mp.Add(database.Record{"number": "CERT-9"}, used)
		if !errors.Is(err, mempool.ErrDuplicateKey) {
			t.Fatalf("\t%s\tShould reject a key that is on the chain: %v", failed, err)
		}
		t.Logf("\t%s\tShould reject a key that is on the chain.", success)

		if mp.Count() != 1 {
			t.Fatalf("\t%s\tShould leave the pool untouched on rejection, got %d.", failed, mp.Count())
		}
		t.Logf("\t%s\tShould leave the pool untouched on rejection.", success)

		for i := 0; i < 2; i++ {
			if _, err := mp.Add(database.Record{"sender": "alice", "amount": 1}, used); err != nil {
				t.Fatalf("\t%s\tShould accept records without a key: %v", failed, err)
			}
		}
		t.Logf("\t%s\tShould accept records without a key.", success)

		if _, err := mp.Add(database.Record{}, used); err == nil {
			t.Fatalf("\t%s\tShould reject an empty record.", failed)
		}
		t.Logf("\t%s\tShould reject an empty record.", success)
	}
}

func TestFilter(t *testing.T) {
	mp := mempool.New("number")
	for _, n := range []string{"A", "B", "C"} {
		if _, err := mp.Add(database.Record{"number": n}, nil); err != nil {
			t.Fatalf("%s\tShould be able to add record %s: %v", failed, n, err)
		}
	}

	dropped := mp.Filter(func(rec database.Record) bool {
		return rec["number"] != "B"
	})
	if dropped != 1 || mp.Count() != 2 {
		t.Fatalf("%s\tShould drop the filtered record, dropped %d count %d.", failed, dropped, mp.Count())
	}
	t.Logf("%s\tShould drop the filtered record.", success)

	if _, err := mp.Add(database.Record{"number": "B"}, nil); err != nil {
		t.Fatalf("%s\tShould release the key of a filtered record: %v", failed, err)
	}
	t.Logf("%s\tShould release the key of a filtered record.", success)
}
