package models

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// DefaultLockTimeout is the default timeout for acquiring file locks.
const DefaultLockTimeout = 30 * time.Second

// Locker provides mutual exclusion for file operations.
type Locker interface {
	// Lock acquires an exclusive lock on the file.
	// Blocks until lock is acquired or timeout expires.
	Lock() error

	// Unlock releases the lock.
	// Safe to call multiple times.
	Unlock() error
}

// storageInterface defines operations for local filesystem management.
// Implemented by *storage for production and mock storages in tests.
type storageInterface interface {
	// modelPath returns the absolute path to a model's directory.
	modelPath(name string) string

	// sessionFilePath returns the path of the persisted session state file.
	sessionFilePath() string

	// ensureDir creates a directory and all parents if they don't exist.
	ensureDir(path string) error

	// removeModelDir removes a model's directory and all its contents.
	removeModelDir(name string) error

	// modelSize returns the sum of regular file sizes under the model
	// directory, or 0 if the directory does not exist.
	modelSize(name string) int64

	// tempArchive creates a temporary file for an in-flight archive download.
	tempArchive(name string) (*os.File, error)

	// atomicWrite writes data to a file using write-then-rename.
	atomicWrite(path string, data []byte) error
}

// storage handles all local filesystem operations.
// Implements storageInterface.
type storage struct {
	// baseDir is the cache root for all storage operations.
	baseDir string

	// appName is the application name, used for env overrides.
	appName string
}

// Ensure storage implements storageInterface.
var _ storageInterface = (*storage)(nil)

// envVarName constructs an environment variable name from the app name.
// Example: envVarName("offlinespeech") returns "OFFLINESPEECH_CACHE_DIR".
func envVarName(appName string) string {
	return strings.ToUpper(appName) + "_CACHE_DIR"
}

// newStorage creates a new storage instance for the given configuration.
func newStorage(cfg Config) (*storage, error) {
	var baseDir string

	// Priority: env var > Config.CacheDir > platform default
	if envDir := os.Getenv(envVarName(cfg.AppName)); envDir != "" {
		baseDir = envDir
	} else if cfg.CacheDir != "" {
		baseDir = cfg.CacheDir
	} else {
		defaultDir, err := getDefaultCacheDir(cfg.AppName)
		if err != nil {
			return nil, fmt.Errorf("failed to get default cache dir: %w", err)
		}
		baseDir = defaultDir
	}

	s := &storage{baseDir: baseDir, appName: cfg.AppName}

	// Ensure cache root exists
	if err := s.ensureDir(baseDir); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	return s, nil
}

// modelPath returns the absolute path to a model's directory:
// <cacheRoot>/model/<modelName>
func (s *storage) modelPath(name string) string {
	return filepath.Join(s.baseDir, "model", name)
}

// sessionFilePath returns the path of the persisted session state file.
func (s *storage) sessionFilePath() string {
	return filepath.Join(s.baseDir, "downloads.json")
}

// ensureDir creates a directory and all parent directories if they don't exist.
func (s *storage) ensureDir(path string) error {
	if err := os.MkdirAll(path, 0755); err != nil {
		return fmt.Errorf("%w: failed to create directory %s: %v", ErrStorageError, path, err)
	}
	return nil
}

// removeModelDir removes a model's directory and all its contents.
func (s *storage) removeModelDir(name string) error {
	if err := os.RemoveAll(s.modelPath(name)); err != nil {
		return fmt.Errorf("%w: failed to remove model directory: %v", ErrStorageError, err)
	}
	return nil
}

// modelSize walks the model directory and sums regular file sizes.
// Unreadable entries are skipped rather than failing the whole walk.
func (s *storage) modelSize(name string) int64 {
	var total int64
	root := s.modelPath(name)
	filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return filepath.SkipAll
			}
			return nil
		}
		if d.Type().IsRegular() {
			if info, err := d.Info(); err == nil {
				total += info.Size()
			}
		}
		return nil
	})
	return total
}

// tempArchive creates a temporary file in the cache root for an in-flight
// archive download. The caller must remove it when done.
func (s *storage) tempArchive(name string) (*os.File, error) {
	f, err := os.CreateTemp(s.baseDir, "temp_"+name+"_*.zip")
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create temp file: %v", ErrStorageError, err)
	}
	return f, nil
}

// atomicWrite writes data to a file using write-then-rename for atomicity.
func (s *storage) atomicWrite(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("%w: failed to create directory: %v", ErrStorageError, err)
	}

	// Write to temp file first
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("%w: failed to write temp file: %v", ErrStorageError, err)
	}

	// Atomic rename
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp) // cleanup on failure
		return fmt.Errorf("%w: failed to rename temp file: %v", ErrStorageError, err)
	}

	return nil
}
