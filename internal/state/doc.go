// Package state provides thread-safe storage for the conversion progress
// shown by the terminal UI.
//
// # Overview
//
// The conversion workflow runs in one goroutine and the UI in another. The
// workflow writes into a Store through its progress callbacks; the UI reads
// copies on every tick.
//
//	store := &state.Store{}
//	conv := debrid.NewConverter(client, debrid.WithObserver(store.Observe))
//	link, err := conv.MagnetToURL(ctx, magnet, store.Message)
//	store.Finish(link, err)
//
// # Update Semantics
//
//   - Observe replaces the structured progress (stage, status, percent).
//   - Message appends a progress line; only the last 50 are kept.
//   - Finish records the outcome and freezes the progress. A result is never
//     stored alongside an error.
//
// # Concurrency Model
//
// The Store uses a readers-writer lock. Snapshot copies the message slice
// and wraps the error so callers never share mutable state with the writer.
package state
