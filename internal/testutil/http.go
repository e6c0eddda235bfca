package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"wakectl/internal/errors"

	"github.com/stretchr/testify/require"
)

// NewJSONRequest creates a new HTTP request with JSON body
func NewJSONRequest(method, url string, body interface{}) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

// DecodeJSON decodes JSON from a reader
func DecodeJSON(r io.Reader, v interface{}) error {
	return json.NewDecoder(r).Decode(v)
}

// ParseErrorResponse decodes the error body written by the API server. A
// body that is not JSON ends up as the message.
func ParseErrorResponse(resp *http.Response) (*errors.HTTPErrorResponse, error) {
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var errResp errors.HTTPErrorResponse
	if err := json.Unmarshal(data, &errResp); err != nil {
		errResp.Error.Message = strings.TrimSpace(string(data))
	}
	return &errResp, nil
}

// WriteRegistry writes doc as services.yaml in a temporary directory and
// returns its path
func WriteRegistry(t testing.TB, doc string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "services.yaml")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0644))
	return path
}
