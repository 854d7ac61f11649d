package main

import (
	"bytes"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aretw0/parkdash/internal/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// run executes the root command with args. Flags keep their values between
// runs, so every run passes the flags it depends on.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetIn(strings.NewReader(""))
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func writeConfig(t *testing.T, baseURL string) []string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "parkdash.yaml")
	yaml := fmt.Sprintf("base_url: %s\nlog_level: error\nstore:\n  backend: file\n  path: %s\n",
		baseURL, filepath.Join(dir, "sessions"))
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))
	return []string{"--config", path, "--env-file", filepath.Join(dir, "missing.env")}
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "parkdash version ")
}

func TestLoginSessionDispatch(t *testing.T) {
	backend := testutils.NewBackend(t)
	backend.Handle(http.MethodPost, "/auth/login", testutils.JSON(http.StatusOK, map[string]any{
		"accessToken": "at-cli", "refreshToken": "rt-cli", "role": "admin",
	}))
	backend.Handle(http.MethodGet, "/dashboard/arrival", testutils.RequireBearer("at-cli",
		testutils.JSON(http.StatusOK, `{"data":[{"id":1,"rfid":"A1","fullName":"Ada"}],"total":1}`)))

	cfg := writeConfig(t, backend.URL)

	out, err := run(t, append([]string{"login", "-u", "admin", "--password", "pw", "-s", "ops"}, cfg...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "Logged in to session 'ops' as admin.")

	out, err = run(t, append([]string{"session", "ls"}, cfg...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "- ops")

	out, err = run(t, append([]string{"session", "inspect", "ops", "-o", "json"}, cfg...)...)
	require.NoError(t, err)
	assert.Contains(t, out, `"access_token": "***"`)
	assert.NotContains(t, out, "at-cli")

	out, err = run(t, append([]string{"dispatch", "arrival/getArrivals", "-s", "ops", "-o", "csv", "--page", "2"}, cfg...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "1,A1,Ada")
	assert.Equal(t, "2", backend.Last(t).Query.Get("page"))

	out, err = run(t, append([]string{"session", "rm", "ops"}, cfg...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "Removed session 'ops'")
}

func TestDispatch_UnknownOperation(t *testing.T) {
	cfg := writeConfig(t, "http://127.0.0.1:1")
	_, err := run(t, append([]string{"dispatch", "nope/nothing", "-o", "table"}, cfg...)...)
	assert.ErrorContains(t, err, "unknown operation")
}

func TestDispatch_InvalidBody(t *testing.T) {
	cfg := writeConfig(t, "http://127.0.0.1:1")
	_, err := run(t, append([]string{"dispatch", "user/createUser", "--body", "{nope", "-o", "table"}, cfg...)...)
	assert.ErrorContains(t, err, "not valid JSON")
	require.NoError(t, dispatchCmd.Flags().Set("body", ""))
}
