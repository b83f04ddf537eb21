package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/spf13/cobra"
)

var submitData string

var submitCmd = &cobra.Command{
	Use:   "submit [field=value ...]",
	Short: "Submit a record to the node",
	Long: `Submit a record to the node. The record is either the JSON document
given with --data or built from field=value pairs. Values that are valid JSON
keep their type, everything else is a string.`,
	Example: `  ledger submit number=CERT-001 owner=alice
  ledger submit --data '{"sender":"alice","recipient":"bob","amount":5}'`,
	Run: submitRun,
}

func init() {
	rootCmd.AddCommand(submitCmd)
	submitCmd.Flags().StringVarP(&submitData, "data", "d", "", "JSON document of the record.")
}

func submitRun(cmd *cobra.Command, args []string) {
	rec, err := buildRecord(submitData, args)
	if err != nil {
		log.Fatal(err)
	}

	data, err := send(http.MethodPost, "/v1/records", rec)
	if err != nil {
		log.Fatal(err)
	}

	if err := printJSON(data); err != nil {
		log.Fatal(err)
	}
}

// buildRecord constructs the record from a JSON document or from a set of
// field=value pairs.
func buildRecord(doc string, pairs []string) (map[string]any, error) {
	rec := make(map[string]any)

	if doc != "" {
		decoder := json.NewDecoder(strings.NewReader(doc))
		decoder.UseNumber()
		if err := decoder.Decode(&rec); err != nil {
			return nil, fmt.Errorf("invalid record document: %w", err)
		}
	}

	for _, pair := range pairs {
		field, value, found := strings.Cut(pair, "=")
		if !found || field == "" {
			return nil, fmt.Errorf("invalid pair %q, expecting field=value", pair)
		}
		rec[field] = parseValue(value)
	}

	if len(rec) == 0 {
		return nil, fmt.Errorf("record has no fields")
	}

	return rec, nil
}

func parseValue(value string) any {
	decoder := json.NewDecoder(bytes.NewReader([]byte(value)))
	decoder.UseNumber()

	var v any
	if err := decoder.Decode(&v); err != nil || decoder.More() {
		return value
	}

	return v
}
