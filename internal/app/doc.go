// Package app wires configuration, the Real-Debrid client, the conversion
// workflow and the terminal UI into a single run.
//
// # Overview
//
// Run is the composition root used by cmd/rdlink:
//
//  1. Validate the magnet argument (ErrInvalidMagnet)
//  2. Load config.toml and read the access token (ErrMissingToken)
//  3. Build a rest.Registry, declare the Real-Debrid operations and create
//     the debrid.Client
//  4. Drive debrid.Converter.MagnetToURL to a hoster link
//  5. Unrestrict that link and print the direct download URL on stdout
//
// Steps 1 and 2 fail before any request is sent.
//
// # Output Modes
//
// When stderr is a terminal and -plain was not given, the workflow and the
// Bubble Tea progress view run side by side under an errgroup, sharing a
// state.Store. Otherwise each progress message is printed to stderr as a
// plain line.
//
//	┌──────────────┐      Observe/Message      ┌─────────────┐
//	│  Converter   │ ────────────────────────> │ state.Store │
//	└──────────────┘                           └──────┬──────┘
//	                                                  │ Snapshot (tick)
//	                                           ┌──────▼──────┐
//	                                           │   ui.Run    │
//	                                           └─────────────┘
//
// Quitting the UI cancels the workflow; a workflow error cancels the UI.
//
// # Logging
//
// zerolog at the configured level (-v forces debug). Logs go to log_file
// when set, to stderr in plain mode, and are discarded while the TUI is on
// screen.
package app
