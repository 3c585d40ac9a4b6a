package model

import "fmt"

// TestType selects the engine that runs a test case.
type TestType string

const (
	TypeAPI  TestType = "api"
	TypeLoad TestType = "load"
	TypeUI   TestType = "ui"
)

// TestCase is a named configuration for exactly one engine.
type TestCase struct {
	Name string   `json:"name"`
	Type TestType `json:"type"`

	API  *APIConfig  `json:"api,omitempty"`
	Load *LoadConfig `json:"load,omitempty"`
	UI   *UIConfig   `json:"ui,omitempty"`
}

// Validate checks that the configuration matching Type is present.
func (tc *TestCase) Validate() error {
	var present bool
	switch tc.Type {
	case TypeAPI:
		present = tc.API != nil
	case TypeLoad:
		present = tc.Load != nil
	case TypeUI:
		present = tc.UI != nil
	default:
		return fmt.Errorf("test case %q: unknown test type %q", tc.Name, tc.Type)
	}
	if !present {
		return fmt.Errorf("test case %q: missing %s configuration", tc.Name, tc.Type)
	}
	return nil
}
