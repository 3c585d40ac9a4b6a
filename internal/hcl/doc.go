// Package hcl loads test cases from HCL files. Each file holds any number
// of api_test, load_test and ui_test blocks; dynamic attributes such as
// request bodies and expected values are decoded through go-cty and
// converted to plain Go values.
package hcl
