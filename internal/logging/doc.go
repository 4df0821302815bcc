// Package logging provides structured file logging with rotation for spor.
//
// Every command writes JSON lines to ~/.local/state/spor/logs/spor.log.
// Stderr is only added when --debug is set. In serve mode records go to the
// file alone.
package logging
