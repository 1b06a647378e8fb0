// Command quill is the operator CLI for the Quill daemon: it triggers
// runs, inspects history and statistics, and manages the scheduler over
// the daemon's HTTP control surface.
package main
