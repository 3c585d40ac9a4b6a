package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/testrig/internal/testutil"
)

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	out := &bytes.Buffer{}
	err := New(out, &bytes.Buffer{}).Run(context.Background(), args)
	return out.String(), err
}

func exitCode(t *testing.T, err error) int {
	t.Helper()
	var exitErr *ExitError
	require.True(t, errors.As(err, &exitErr), "expected ExitError, got %v", err)
	return exitErr.ExitCode()
}

func TestHelp(t *testing.T) {
	out, err := runCLI(t, "--help")
	require.NoError(t, err)
	assert.Contains(t, out, "USAGE")
	assert.Contains(t, out, "history")

	out, err = runCLI(t, "run", "--help")
	require.NoError(t, err)
	assert.Contains(t, out, "--workers")
}

func TestUsageErrors(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		message string
	}{
		{"missing paths", []string{"run"}, "at least one test case PATH is required"},
		{"unknown flag", []string{"run", "--this-is-not-a-valid-flag", "x.hcl"}, "flag provided but not defined"},
		{"log format", []string{"run", "--log-format", "xml", "x.hcl"}, "invalid log-format"},
		{"log level", []string{"history", "--log-level", "loud"}, "invalid log-level"},
		{"report format", []string{"run", "--no-history", "--report", "yaml", "x.hcl"}, "invalid ReportFormat"},
		{"show without id", []string{"show"}, "exactly one run ID"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runCLI(t, tt.args...)
			require.Error(t, err)
			assert.Equal(t, 2, exitCode(t, err))
			assert.Contains(t, err.Error(), tt.message)
		})
	}
}

func TestRunHistoryShow(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/ok" {
			fmt.Fprint(w, `{"ok":true}`)
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	historyDir := t.TempDir()
	passing := testutil.WriteHCL(t, fmt.Sprintf(`api_test "ok" { url = "%s/ok" }`, srv.URL))
	failing := testutil.WriteHCL(t, fmt.Sprintf(`api_test "broken" { url = "%s/broken" }`, srv.URL))

	out, err := runCLI(t, "run", "--history", historyDir, passing)
	require.NoError(t, err)
	assert.Contains(t, out, "1 passed, 0 failed")

	out, err = runCLI(t, "run", "--history", historyDir, "--report", "json", failing)
	require.Error(t, err)
	assert.Equal(t, 1, exitCode(t, err))
	assert.Contains(t, out, `"name": "broken"`)

	out, err = runCLI(t, "history", "--history", historyDir, "-n", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "broken")
	assert.NotContains(t, out, " ok ")

	out, err = runCLI(t, "show", "--history", historyDir, "1")
	require.NoError(t, err)
	assert.Contains(t, out, `"name": "ok"`)

	_, err = runCLI(t, "show", "--history", historyDir, "7")
	require.Error(t, err)
	assert.Equal(t, 1, exitCode(t, err))
}
