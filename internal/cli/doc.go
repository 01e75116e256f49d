// Package cli implements the command-line interface for playback-monitord.
//
// The cli package provides the Cobra-based CLI: the root command runs the
// monitor daemon (upstream websocket connection, listener logging, diagnostic
// HTTP endpoint), and the state subcommand queries a running daemon for its
// recency-ordered client list. Configuration comes from PM_* environment
// variables with flags overriding.
package cli
