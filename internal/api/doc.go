// Package api defines the wire types for the daemon control surface and
// the HTTP client the CLI uses to talk to it.
package api
