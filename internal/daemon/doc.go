// Package daemon runs the background publishing service: a single-instance
// lock, an interval scheduler that triggers pipeline runs, and an HTTP
// control surface for the CLI.
package daemon
