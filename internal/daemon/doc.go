// Package daemon hosts the long-running adscope service: it owns the
// single-instance lock, runs the external-tool preflight, builds the feature
// assembler, and serves the HTTP API.
package daemon
