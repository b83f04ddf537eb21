package validate_test

import (
	"errors"
	"testing"

	"github.com/okilalu/Blockchain/business/sys/validate"
)

type newPeers struct {
	Nodes []string `json:"nodes" validate:"required,min=1,dive,required"`
	Note  string   `json:"note,omitempty" validate:"omitempty,max=5"`
}

func Test_Check(t *testing.T) {
	type table struct {
		name   string
		val    newPeers
		fields []string
	}

	tt := []table{
		{name: "valid", val: newPeers{Nodes: []string{"http://localhost:9080"}}},
		{name: "missing", val: newPeers{}, fields: []string{"nodes"}},
		{name: "empty", val: newPeers{Nodes: []string{""}}, fields: []string{"nodes[0]"}},
		{name: "long", val: newPeers{Nodes: []string{"a"}, Note: "too long"}, fields: []string{"note"}},
	}

	for _, tst := range tt {
		f := func(t *testing.T) {
			err := validate.Check(tst.val)

			if len(tst.fields) == 0 {
				if err != nil {
					t.Fatalf("Test %s:\tShould pass validation: %s", tst.name, err)
				}
				return
			}

			if !validate.IsFieldErrors(err) {
				t.Fatalf("Test %s:\tShould get field errors: %v", tst.name, err)
			}

			fields := validate.GetFieldErrors(err).Fields()
			for _, name := range tst.fields {
				if fields[name] == "" {
					t.Logf("Test %s:\tgot: %v", tst.name, fields)
					t.Fatalf("Test %s:\tShould get an error for field %s.", tst.name, name)
				}
			}
		}

		t.Run(tst.name, f)
	}

	if validate.IsFieldErrors(errors.New("plain")) {
		t.Fatalf("Should not treat a plain error as field errors.")
	}
}
