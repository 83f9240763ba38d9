// Package store centralizes low-level filesystem writes under MOOSE_HOME.
package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

var (
	pathLocksMu sync.Mutex
	pathLocks   = map[string]*sync.Mutex{}
)

// AppendFile appends bytes to a file, creating it and its directory if
// missing. Appends to the same path are serialized within the process.
func AppendFile(path string, data []byte) error {
	cleanPath, err := cleanPath(path)
	if err != nil {
		return err
	}

	lock := lockForPath(cleanPath)
	lock.Lock()
	defer lock.Unlock()

	dir := filepath.Dir(cleanPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory %q: %w", dir, err)
	}

	f, err := os.OpenFile(cleanPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open file %q for append: %w", cleanPath, err)
	}
	defer f.Close()

	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("append file %q: %w", cleanPath, err)
	}
	return nil
}

// CreateFile writes data to a new file with perm. It reports false and
// leaves the file untouched when it already exists.
func CreateFile(path string, data []byte, perm os.FileMode) (bool, error) {
	cleanPath, err := cleanPath(path)
	if err != nil {
		return false, err
	}

	lock := lockForPath(cleanPath)
	lock.Lock()
	defer lock.Unlock()

	f, err := os.OpenFile(cleanPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, perm)
	if errors.Is(err, os.ErrExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("create file %q: %w", cleanPath, err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(cleanPath)
		return false, fmt.Errorf("write file %q: %w", cleanPath, err)
	}
	if err := f.Close(); err != nil {
		return false, fmt.Errorf("close file %q: %w", cleanPath, err)
	}
	return true, nil
}

func lockForPath(path string) *sync.Mutex {
	pathLocksMu.Lock()
	defer pathLocksMu.Unlock()

	lock, ok := pathLocks[path]
	if ok {
		return lock
	}
	lock = &sync.Mutex{}
	pathLocks[path] = lock
	return lock
}

func cleanPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", errors.New("path is required")
	}
	return filepath.Clean(trimmed), nil
}
