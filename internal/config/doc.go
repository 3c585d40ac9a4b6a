// Package config defines the format-agnostic boundary between test-case
// sources and the application. The app only sees model.TestCase values;
// concrete loaders, such as for HCL, are provided in separate packages.
package config
