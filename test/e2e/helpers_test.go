// Common helpers for E2E tests: raw HTTP calls, envelope decoding and
// catalog file rewrites.
package e2e_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// envelope mirrors the REST success/error wrapper.
type envelope struct {
	Success   bool            `json:"success"`
	Data      json.RawMessage `json:"data"`
	RequestID string          `json:"request_id"`
	Error     *struct {
		Code    string                 `json:"code"`
		Message string                 `json:"message"`
		Details map[string]interface{} `json:"details"`
	} `json:"error"`
}

// doGet sends a GET request to path and returns the response with its body
// read.
func doGet(t *testing.T, path string) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, env.baseURL+path, nil)
	require.NoError(t, err)
	req.Header.Set("Accept", "application/json")
	return do(t, req)
}

// doPost sends body as JSON to path.
func doPost(t *testing.T, path string, body interface{}) (*http.Response, []byte) {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	req, err := http.NewRequest(http.MethodPost, env.baseURL+path, bytes.NewReader(data))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	return do(t, req)
}

func do(t *testing.T, req *http.Request) (*http.Response, []byte) {
	t.Helper()
	resp, err := env.httpClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	t.Logf("%s %s -> %d", req.Method, req.URL.Path, resp.StatusCode)
	return resp, body
}

// decodeEnvelope unwraps a REST response, decoding data into v when set.
func decodeEnvelope(t *testing.T, body []byte, v interface{}) *envelope {
	t.Helper()
	var out envelope
	require.NoError(t, json.Unmarshal(body, &out), string(body))
	if v != nil && len(out.Data) > 0 {
		require.NoError(t, json.Unmarshal(out.Data, v))
	}
	return &out
}

// replaceCatalog swaps the watched catalog file by rename so the watcher
// never sees a half-written file.
func replaceCatalog(t *testing.T, content string) {
	t.Helper()
	tmp := filepath.Join(filepath.Dir(env.catalogPath), "catalog.yaml.tmp")
	require.NoError(t, os.WriteFile(tmp, []byte(content), 0o644))
	require.NoError(t, os.Rename(tmp, env.catalogPath))
}

//Personal.AI order the ending
