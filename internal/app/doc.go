// Package app contains the core application logic. It defines the main App
// struct, its configuration, and the primary execution lifecycle: loading
// test cases, dispatching them to the engines on a worker pool, recording
// every result in the history store and reporting the outcome. It is
// decoupled from any specific entrypoint like a CLI or server.
package app
