// Package file persists configuration as TOML under the user's config
// directory. ConfigStore implements the driven ConfigStore port; Watcher
// reloads settings when the file changes on disk, so a running serve or
// TUI session picks up edits without a restart.
package file
