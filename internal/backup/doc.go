// Package backup copies addon saved data into backup directories, records
// what was copied, and restores it.
//
// # Backup Layout
//
// Each backup is a flat directory of copied files plus a manifest:
//
//	~/AddonBackups/
//	└── {profile}-{timestamp}/
//	    ├── backup_manifest.json
//	    ├── Bartender4.lua
//	    └── Bartender4.lua.bak
//
// With the timestamp folder disabled, files land directly in the
// destination and existing files go through the conflict policy.
//
// # Creating Backups
//
// Use [Engine.CreateBackup] with a [Profile] built from a scanned
// installation:
//
//	eng := backup.NewEngine(
//	    backup.WithDestination("~/AddonBackups"),
//	    backup.WithPolicy(conflict.DefaultPolicy()),
//	)
//	res, err := eng.CreateBackup(backup.Profile{
//	    Name:         "raid",
//	    Addons:       []string{"DBM-Core", "Details"},
//	    Installation: inst,
//	    AccountID:    "12345678#1",
//	}, nil)
//
// Files are copied one at a time through a temp file and rename, hashed
// while streaming. Per-file failures land in [Result.FailedFiles] and
// [Result.ValidationErrors]; only setup failures and an Abort decision are
// returned as errors. [Result.Err] renders the specifics.
//
// # Backup Manifest
//
// The [Manifest] is written last, so a crash mid-copy never leaves a
// manifest naming files that are not there. It lists each addon's files
// with SHA256 checksums and a snapshot of the source installation.
//
// # Integrity Verification
//
// [Verify] re-hashes a backup against its manifest. [Engine.Restore]
// checks each file before copying it back and reports mismatches as
// [ErrBackupCorrupted].
//
// # Retention Management
//
// [List] returns the backups under a destination root, newest first, and
// [Prune] removes the oldest beyond a retention count.
package backup
