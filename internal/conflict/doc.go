// Package conflict decides what happens when a backup or restore would
// write over an existing file.
//
// A Resolver applies the configured Strategy to each Conflict. The prompt
// strategy defers to a Prompter, which the CLI implements with an
// interactive question; headless callers get a fixed fallback instead.
package conflict
