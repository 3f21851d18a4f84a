package models

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"
)

// Persisted key prefixes, one entry per model name.
const (
	keyInProgress = "download_in_progress_"
	keySession    = "download_session_"
	keyProgress   = "download_progress_"
)

// sessionStore persists per-model download state in a flat key/value JSON
// file so that an interrupted download survives process restarts. Writes are
// atomic and guarded by a cross-process file lock.
type sessionStore struct {
	// storage provides the file location and atomic writes.
	storage storageInterface

	// lockTimeout is the maximum duration to wait for the file lock.
	lockTimeout time.Duration

	// mu protects concurrent in-process access to the state file.
	mu sync.RWMutex
}

// newSessionStore creates a session store backed by the given storage.
func newSessionStore(storage storageInterface) *sessionStore {
	return &sessionStore{
		storage:     storage,
		lockTimeout: DefaultLockTimeout,
	}
}

// load reads and parses the state file.
// Returns an empty map if the file doesn't exist.
func (s *sessionStore) load() (map[string]json.RawMessage, error) {
	data, err := os.ReadFile(s.storage.sessionFilePath())
	if os.IsNotExist(err) {
		return make(map[string]json.RawMessage), nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorageError, err)
	}

	state := make(map[string]json.RawMessage)
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("%w: invalid session state file: %v", ErrStorageError, err)
	}
	return state, nil
}

// save atomically writes the state file under the cross-process lock.
func (s *sessionStore) save(state map[string]json.RawMessage) error {
	lockPath := s.storage.sessionFilePath() + ".lock"
	lock, err := newFileLock(lockPath, s.lockTimeout)
	if err != nil {
		return fmt.Errorf("%w: failed to create lock: %v", ErrStorageError, err)
	}
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("%w: failed to acquire lock: %v", ErrStorageError, err)
	}
	defer lock.Unlock()

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: failed to marshal session state: %v", ErrStorageError, err)
	}

	return s.storage.atomicWrite(s.storage.sessionFilePath(), data)
}

// markInProgress records the start of a download tagged with the process's
// live session identifier and resets progress to zero.
func (s *sessionStore) markInProgress(modelName, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, err := s.load()
	if err != nil {
		return err
	}

	state[keyInProgress+modelName] = mustMarshal(true)
	state[keySession+modelName] = mustMarshal(sessionID)
	state[keyProgress+modelName] = mustMarshal(0)

	return s.save(state)
}

// clearInProgress removes the in-progress flag and session identifier for a
// model, leaving only the last persisted progress value.
func (s *sessionStore) clearInProgress(modelName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, err := s.load()
	if err != nil {
		return err
	}

	delete(state, keyInProgress+modelName)
	delete(state, keySession+modelName)

	return s.save(state)
}

// setProgress persists the download progress for a model, clamped to 0-100.
func (s *sessionStore) setProgress(modelName string, percent int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}

	state, err := s.load()
	if err != nil {
		return err
	}

	state[keyProgress+modelName] = mustMarshal(percent)

	return s.save(state)
}

// session returns the persisted download state for a model.
// Missing keys yield the zero DownloadSession.
func (s *sessionStore) session(modelName string) (DownloadSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state, err := s.load()
	if err != nil {
		return DownloadSession{}, err
	}

	sess := DownloadSession{ModelName: modelName}
	if raw, ok := state[keyInProgress+modelName]; ok {
		json.Unmarshal(raw, &sess.InProgress)
	}
	if raw, ok := state[keySession+modelName]; ok {
		json.Unmarshal(raw, &sess.SessionID)
	}
	if raw, ok := state[keyProgress+modelName]; ok {
		json.Unmarshal(raw, &sess.ProgressPercent)
	}

	return sess, nil
}

// mustMarshal marshals a primitive value that cannot fail.
func mustMarshal(v any) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		panic(fmt.Sprintf("models: marshal primitive: %v", err))
	}
	return data
}
