package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
)

// errorResponse is the document the node returns on failure.
type errorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

// send performs the request against the node and returns the body of a
// successful response.
func send(method string, path string, dataSend any) ([]byte, error) {
	var body io.Reader
	if dataSend != nil {
		data, err := json.Marshal(dataSend)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, strings.TrimSuffix(url, "/")+path, body)
	if err != nil {
		return nil, err
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode >= http.StatusBadRequest {
		var er errorResponse
		if err := json.Unmarshal(data, &er); err != nil || er.Error == "" {
			return nil, fmt.Errorf("%s: %s", resp.Status, string(data))
		}

		if len(er.Fields) > 0 {
			return nil, fmt.Errorf("%s: %s: %v", resp.Status, er.Error, er.Fields)
		}
		return nil, fmt.Errorf("%s: %s", resp.Status, er.Error)
	}

	return data, nil
}

// printJSON writes the JSON document indented to stdout.
func printJSON(data []byte) error {
	var out bytes.Buffer
	if err := json.Indent(&out, data, "", "  "); err != nil {
		return err
	}
	out.WriteByte('\n')

	_, err := out.WriteTo(os.Stdout)
	return err
}
