// Package testutil holds helpers shared by the package tests: a stub engine
// module that records when each test case ran, and temp-file writers for
// test-case sources.
package testutil

import "time"

// ExecutionRecord holds the start and end times for a single test case's execution.
type ExecutionRecord struct {
	Start time.Time
	End   time.Time
}
