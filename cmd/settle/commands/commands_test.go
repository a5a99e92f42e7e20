package commands

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const receiptJSON = `{
  "id": "r1",
  "title": "Team lunch",
  "service_charge_percent": "10",
  "cover": "1.00",
  "total": "%TOTAL%",
  "version": 4,
  "participants": [
    {"id": "p-a", "display_name": "Alice", "user_id": "u-a"},
    {"id": "p-b", "display_name": "Bob", "pending": true}
  ],
  "items": [
    {"id": "i1", "description": "Noodles", "unit_cost": "10.00", "quantity": 3,
     "assignments": [{"participant_id": "p-a"}, {"participant_id": "p-b"}]}
  ]
}`

func writeReceipt(t *testing.T, total string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "receipt.json")
	require.NoError(t, os.WriteFile(path, []byte(strings.Replace(receiptJSON, "%TOTAL%", total, 1)), 0o600))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestCompute(t *testing.T) {
	out, err := run(t, "compute", "-f", writeReceipt(t, ""))
	require.NoError(t, err)

	assert.Contains(t, out, "Team lunch (version 4)")
	assert.Contains(t, out, "Bob (pending)")
	// 15.00 + 1.50 service + 0.50 cover each.
	assert.Equal(t, 2, strings.Count(out, "17.00"))
	assert.Contains(t, out, "34.00")
}

func TestCheck(t *testing.T) {
	out, err := run(t, "check", "-f", writeReceipt(t, "34.00"))
	require.NoError(t, err)
	assert.Contains(t, out, "ok: 2 people, total 34.00")

	out, err = run(t, "check", "-f", writeReceipt(t, "35.00"))
	require.Error(t, err)
	assert.Contains(t, out, "recorded total 35.00, computed 34.00")
}

func TestCheck_WrappedResponse(t *testing.T) {
	path := filepath.Join(t.TempDir(), "response.json")
	body := `{"receipt": ` + strings.Replace(receiptJSON, "%TOTAL%", "34.00", 1) + `}`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	out, err := run(t, "check", "-f", path)
	require.NoError(t, err)
	assert.Contains(t, out, "ok:")
}

func TestCheck_Stdin(t *testing.T) {
	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetIn(strings.NewReader(strings.Replace(receiptJSON, "%TOTAL%", "", 1)))
	cmd.SetArgs([]string{"check", "-f", "-"})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "total 34.00")
}

func TestInputErrors(t *testing.T) {
	_, err := run(t, "compute")
	assert.ErrorContains(t, err, "--file is required")

	_, err = run(t, "compute", "-f", filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"cover": "1.001", "title": "x"}`), 0o600))
	_, err = run(t, "compute", "-f", path)
	assert.Error(t, err)
}
