package fileutil

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/thoreinstein/apm/internal/errors"
)

// CopyResult describes a completed copy.
type CopyResult struct {
	// SHA256 is the hex-encoded hash of the bytes written.
	SHA256 string
	// Size is the number of bytes written.
	Size int64
	// Mode is the source file's permission bits.
	Mode fs.FileMode
}

// AtomicCopyFile copies src to dst through a temp file in dst's directory
// followed by a rename, so an interrupted copy never leaves a truncated dst.
// The hash is computed while streaming. The source modification time and
// permissions are carried over.
//
// The caller is responsible for ensuring the parent directory exists.
func AtomicCopyFile(src, dst string) (*CopyResult, error) {
	in, err := os.Open(src)
	if err != nil {
		return nil, errors.Wrap(err, "opening source file")
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return nil, errors.Wrap(err, "stat source file")
	}
	if info.IsDir() {
		return nil, errors.Newf("%s is a directory", src)
	}

	tmp, err := os.CreateTemp(filepath.Dir(dst), ".apm-copy-*.tmp")
	if err != nil {
		return nil, errors.Wrap(err, "creating temp file")
	}
	tmpName := tmp.Name()
	defer func() {
		// Only remove if rename failed (file still exists)
		if _, statErr := os.Stat(tmpName); statErr == nil {
			os.Remove(tmpName)
		}
	}()

	h := sha256.New()
	n, err := io.Copy(io.MultiWriter(tmp, h), in)
	if err != nil {
		tmp.Close()
		return nil, errors.Wrap(err, "copying file")
	}

	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return nil, errors.Wrap(err, "syncing temp file")
	}

	if err := tmp.Chmod(info.Mode().Perm()); err != nil {
		tmp.Close()
		return nil, errors.Wrap(err, "setting file permissions")
	}

	if err := tmp.Close(); err != nil {
		return nil, errors.Wrap(err, "closing temp file")
	}

	if err := os.Chtimes(tmpName, info.ModTime(), info.ModTime()); err != nil {
		return nil, errors.Wrap(err, "setting modification time")
	}

	if err := os.Rename(tmpName, dst); err != nil {
		return nil, errors.Wrap(err, "renaming temp file")
	}

	return &CopyResult{
		SHA256: hex.EncodeToString(h.Sum(nil)),
		Size:   n,
		Mode:   info.Mode().Perm(),
	}, nil
}

// HashFile returns the hex-encoded SHA256 of a file and its size.
func HashFile(path string) (string, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", 0, errors.Wrap(err, "opening file")
	}
	defer f.Close()

	h := sha256.New()
	n, err := io.Copy(h, f)
	if err != nil {
		return "", 0, errors.Wrap(err, "reading file")
	}

	return hex.EncodeToString(h.Sum(nil)), n, nil
}

// Exists reports whether path names an existing entry, without following
// a trailing symlink.
func Exists(path string) (bool, error) {
	_, err := os.Lstat(path)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, errors.Wrapf(err, "stat %s", path)
}
