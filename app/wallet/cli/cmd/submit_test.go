package cmd

import (
	"encoding/json"
	"testing"
)

func Test_BuildRecord(t *testing.T) {
	type table struct {
		name  string
		doc   string
		pairs []string
		exp   map[string]any
		fail  bool
	}

	tt := []table{
		{
			name:  "pairs",
			pairs: []string{"number=CERT-001", "owner=alice", "amount=5"},
			exp:   map[string]any{"number": "CERT-001", "owner": "alice", "amount": json.Number("5")},
		},
		{
			name:  "document",
			doc:   `{"sender":"alice","recipient":"bob","amount":5}`,
			pairs: []string{"memo=rent"},
			exp:   map[string]any{"sender": "alice", "recipient": "bob", "amount": json.Number("5"), "memo": "rent"},
		},
		{
			name:  "badpair",
			pairs: []string{"number"},
			fail:  true,
		},
		{
			name: "empty",
			fail: true,
		},
	}

	for _, tst := range tt {
		f := func(t *testing.T) {
			rec, err := buildRecord(tst.doc, tst.pairs)
			if tst.fail {
				if err == nil {
					t.Fatalf("Should fail to build the record: %v", rec)
				}
				return
			}

			if err != nil {
				t.Fatalf("Should be able to build the record: %s", err)
			}

			if len(rec) != len(tst.exp) {
				t.Fatalf("Should get %d fields, got %d: %v", len(tst.exp), len(rec), rec)
			}

			for field, exp := range tst.exp {
				if rec[field] != exp {
					t.Errorf("Field %s: got %#v, exp %#v", field, rec[field], exp)
				}
			}
		}

		t.Run(tst.name, f)
	}
}
