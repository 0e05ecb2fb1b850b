// Package ui writes the human-facing progress of a download run.
//
// A Console prints to stdout with optional ANSI colors. Colors are turned
// off when stdout is not a terminal or when the user asks for plain output,
// and quiet mode keeps only errors and the closing summary.
package ui
