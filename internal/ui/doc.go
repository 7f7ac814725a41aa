// Package ui renders the progress of a magnet conversion in the terminal.
//
// The view is a small inline Bubble Tea program: a spinner with the current
// torrent status, a progress bar, a size/speed/seeders line and the most
// recent progress message. It never touches stdout, which carries the
// resulting link.
//
// The model does not talk to Real-Debrid. It polls a state.Store on a
// fixed tick and quits once the store reports the conversion as done.
// Pressing q, esc or ctrl+c calls Options.Cancel before quitting so the
// workflow goroutine stops too.
//
// Three themes are available: Nightfox (default), Kanagawa and Slate.
package ui
