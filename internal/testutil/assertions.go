package testutil

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// AssertTestRan checks the text log output to confirm that a test case was
// dispatched to its engine and finished.
func AssertTestRan(t *testing.T, logOutput, name string) {
	t.Helper()

	for _, line := range strings.Split(logOutput, "\n") {
		if strings.Contains(line, "Test case finished.") && strings.Contains(line, fmt.Sprintf("test=%s ", name)) {
			return
		}
	}
	require.Fail(t, "test case did not finish", "expected a finished log line for test case %q", name)
}
