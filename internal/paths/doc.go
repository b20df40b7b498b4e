// Package paths provides cross-platform path resolution for apm's own
// directories and for the default game installation locations.
//
// # XDG Base Directory Compliance
//
// The package wraps github.com/adrg/xdg for cross-platform XDG Base Directory
// Specification compliance. The configuration file lives in
// <ConfigHome>/apm/config.toml unless APM_DATA_DIR overrides the directory.
//
// # Scan Roots
//
// [DefaultScanRoots] lists "World of Warcraft*" folders that exist in the
// usual places for the running OS:
//
//	| OS      | Searched bases                                          |
//	|---------|---------------------------------------------------------|
//	| Windows | C:\Program Files, C:\Program Files (x86), C:\Games      |
//	| macOS   | /Applications, ~/Applications                           |
//	| Linux   | Steam common dirs, ~/.wine/drive_c, Lutris, ~/Games     |
package paths
