// Package addon enumerates per-addon saved data in an account directory.
package addon
