// Package config provides configuration management for the apm CLI.
//
// # Configuration File
//
// The default configuration file is config.toml in <XDG config home>/apm,
// or in $APM_DATA_DIR when set:
//
//	[backup]
//	destination_path = "~/AddonBackups"
//	create_timestamp_folder = true
//	validate_integrity = true
//	compress_backup = false
//	retention_count = 10
//
//	[scan]
//	paths = ["/Applications/World of Warcraft"]
//	include_beta = false
//	include_ptr = false
//	max_depth = 3
//	follow_symlinks = false
//
//	[conflicts]
//	strategy = "prompt"     # prompt, overwrite, skip or backup
//	backup_existing = true
//	backup_suffix = ".backup"
//
//	[logging]
//	level = "warn"
//	format = "text"
//	file = ""
//
// # Environment
//
// Every key can be overridden as APM_<SECTION>_<KEY>, for example
// APM_CONFLICTS_STRATEGY=skip. NO_COLOR or APM_NO_COLOR disable color.
// The environment is read here only; the rest of apm takes plain values.
//
// # Loading Configuration
//
//	config.Init()
//	cfg, err := config.Load("")
//
// Load validates the result; [Validate] returns every problem found, not
// just the first.
package config
