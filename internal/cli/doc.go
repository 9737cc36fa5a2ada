// Package cli is responsible for parsing command-line arguments, validating
// user input, and handling process-level concerns like exit codes. It
// translates CLI flags into the bridge's configuration and renders the
// build artifacts for the terminal.
package cli
