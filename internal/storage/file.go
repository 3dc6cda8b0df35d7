package storage

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/muurk/camcfg/internal/cfgerr"
)

// ReadFile reads a configuration file, refusing anything larger than
// MaxFileSize. A missing file is an Io error wrapping fs.ErrNotExist.
func ReadFile(path string) ([]byte, error) {
	if path == "" {
		return nil, cfgerr.New(cfgerr.InvalidParameter, "read", "path is required")
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, cfgerr.Wrap(cfgerr.Io, "read", path, err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, MaxFileSize+1))
	if err != nil {
		return nil, cfgerr.Wrap(cfgerr.Io, "read", path, err)
	}
	if len(data) > MaxFileSize {
		return nil, &cfgerr.Error{
			Kind: cfgerr.InvalidFormat, Op: "read", Path: path,
			Message: fmt.Sprintf("file exceeds %d bytes", MaxFileSize),
		}
	}
	return data, nil
}

// AtomicWrite replaces path with data. The data is written to path+".tmp"
// in the same directory, synced, closed and renamed over path; the
// directory tree is created when missing. On any failure the temporary
// file is removed and the previous content of path is untouched.
func AtomicWrite(path string, data []byte) (err error) {
	const op = "atomic_write"
	if path == "" || len(data) == 0 {
		return cfgerr.New(cfgerr.InvalidParameter, op, "path and data are required")
	}
	if len(data) > MaxFileSize {
		return &cfgerr.Error{
			Kind: cfgerr.InvalidFormat, Op: op, Path: path,
			Message: fmt.Sprintf("%d bytes exceeds the %d byte limit", len(data), MaxFileSize),
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return cfgerr.Wrap(cfgerr.Io, op, path, err)
	}

	tmpPath := path + ".tmp"
	f, err := os.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return cfgerr.Wrap(cfgerr.Io, op, tmpPath, err)
	}
	defer func() {
		if err != nil {
			os.Remove(tmpPath)
		}
	}()

	if _, err = f.Write(data); err != nil {
		f.Close()
		return cfgerr.Wrap(cfgerr.Io, op, tmpPath, err)
	}
	if err = f.Sync(); err != nil {
		f.Close()
		return cfgerr.Wrap(cfgerr.Io, op, tmpPath, err)
	}
	if err = f.Close(); err != nil {
		return cfgerr.Wrap(cfgerr.Io, op, tmpPath, err)
	}
	if err = os.Rename(tmpPath, path); err != nil {
		return cfgerr.Wrap(cfgerr.Io, op, path, err)
	}

	syncDir(filepath.Dir(path))
	return nil
}

// syncDir makes the rename durable where the platform allows it
func syncDir(dir string) {
	d, err := os.Open(dir)
	if err != nil {
		return
	}
	_ = d.Sync()
	d.Close()
}

// ValidateFile checks that path exists, is a readable regular file no
// larger than MaxFileSize and contains at least one section header. It
// does not touch any live state.
func ValidateFile(path string) error {
	const op = "validate_file"

	info, err := os.Stat(path)
	if err != nil {
		return cfgerr.Wrap(cfgerr.Io, op, path, err)
	}
	if !info.Mode().IsRegular() {
		return &cfgerr.Error{Kind: cfgerr.InvalidFormat, Op: op, Path: path, Message: "not a regular file"}
	}
	if info.Size() > MaxFileSize {
		return &cfgerr.Error{
			Kind: cfgerr.InvalidFormat, Op: op, Path: path,
			Message: fmt.Sprintf("file exceeds %d bytes", MaxFileSize),
		}
	}

	data, err := ReadFile(path)
	if err != nil {
		var cerr *cfgerr.Error
		if errors.As(err, &cerr) {
			cerr.Op = op
		}
		return err
	}

	sc := NewScanner(data)
	for sc.Next() {
		if sc.Line().Kind == LineSection {
			return nil
		}
	}
	return &cfgerr.Error{Kind: cfgerr.InvalidFormat, Op: op, Path: path, Message: "no section header"}
}

// IsNotExist reports whether err means the file does not exist
func IsNotExist(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}

// Checksum returns a 32-bit one-at-a-time hash of data, used only to
// compare file contents opportunistically. Empty input yields 0.
func Checksum(data []byte) uint32 {
	if len(data) == 0 {
		return 0
	}
	var sum uint32
	for _, b := range data {
		sum += uint32(b)
		sum += sum << 10
		sum ^= sum >> 6
	}
	sum += sum << 3
	sum ^= sum >> 11
	sum += sum << 15
	return sum
}
