// Package checkpoint lets an interrupted download resume where it stopped.
//
// One JSON file per feed target records the id of the last post of the last
// fully processed page together with the run counters. Files live under
// $XDG_DATA_HOME/redditdl/checkpoints (~/.local/share on Linux,
// ~/Library/Application Support on macOS, %APPDATA% on Windows) and are
// replaced atomically on every save.
package checkpoint
