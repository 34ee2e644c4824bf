// Package tui renders live progress for a query run in the terminal.
//
// The pipeline runs in its own goroutine and reports into the Bubbletea
// program through messages. The first cancel key cancels the pipeline and
// waits for it to unwind; a second one quits immediately.
package tui
