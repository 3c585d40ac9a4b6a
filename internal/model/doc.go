// Package model defines the immutable inputs and the result values shared by
// the execution engines: test configurations, assertion and step specs, and
// the ExecutionResult every engine returns.
//
// Field names and JSON tags form the persisted, report-facing shape, so they
// must stay stable.
package model
