package models

import (
	"context"
	"fmt"
	"os"
)

// manager is the concrete implementation of the Manager interface.
type manager struct {
	// cfg holds the module configuration.
	cfg Config

	// registry maps model names to their descriptors.
	registry *Registry

	// httpClient is used for all archive fetches.
	httpClient HTTPClient

	// logger receives diagnostic messages. May be nil.
	logger Logger

	// probe reports whether a network transport is currently up.
	probe ConnectivityProbe

	// storage handles local filesystem operations.
	storage storageInterface

	// sessions persists per-model download state across restarts.
	sessions *sessionStore

	// sessionID is this process's live session identifier. A persisted
	// in-progress flag tagged with a different identifier is stale.
	sessionID string

	// worker serializes downloads on a dedicated goroutine.
	worker *downloadWorker
}

// DownloadModel starts an asynchronous download for the named model.
// Connectivity is checked synchronously: if no transport is up, OnError is
// invoked before DownloadModel returns and no I/O is performed. Otherwise
// the work runs on the background worker and terminates in exactly one of
// OnSuccess or OnError, after all OnProgress calls.
func (m *manager) DownloadModel(name string, cb DownloadCallbacks) {
	if !m.probe() {
		m.notifyError(cb, ErrNoConnectivity)
		return
	}

	queued := m.worker.submit(func() {
		err := m.Download(context.Background(), name, WithProgress(cb.OnProgress))
		if err != nil {
			m.notifyError(cb, err)
			return
		}
		if cb.OnSuccess != nil {
			cb.OnSuccess()
		}
	})
	if !queued {
		m.notifyError(cb, ErrDownloadInProgress)
	}
}

// notifyError delivers a terminal error if a handler is registered.
func (m *manager) notifyError(cb DownloadCallbacks, err error) {
	if m.logger != nil {
		m.logger.Error("download failed", "error", err)
	}
	if cb.OnError != nil {
		cb.OnError(err)
	}
}

// Download synchronously downloads, extracts, and verifies the named model.
// Any existing directory for the model is deleted first, so a re-download
// always starts from a clean slate.
func (m *manager) Download(ctx context.Context, name string, opts ...DownloadOption) error {
	cfg := &downloadConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	desc, err := m.registry.Lookup(name)
	if err != nil {
		return err
	}

	if !m.probe() {
		return ErrNoConnectivity
	}

	if m.logger != nil {
		m.logger.Info("starting download", "model", name, "url", desc.SourceURL)
	}

	// Idempotent cleanup of partial prior state.
	if err := m.storage.removeModelDir(name); err != nil {
		return err
	}
	dir := m.storage.modelPath(name)
	if err := m.storage.ensureDir(dir); err != nil {
		return err
	}

	if err := m.sessions.markInProgress(name, m.sessionID); err != nil {
		return err
	}

	if err := m.runPipeline(ctx, desc, dir, cfg.progressFn); err != nil {
		// The partially-extracted directory is left in place; the next
		// download call deletes it before starting over.
		if clearErr := m.sessions.clearInProgress(name); clearErr != nil && m.logger != nil {
			m.logger.Warn("failed to clear session state", "model", name, "error", clearErr)
		}
		return err
	}

	if err := m.sessions.setProgress(name, 100); err != nil && m.logger != nil {
		m.logger.Warn("failed to persist final progress", "model", name, "error", err)
	}
	if err := m.sessions.clearInProgress(name); err != nil && m.logger != nil {
		m.logger.Warn("failed to clear session state", "model", name, "error", err)
	}

	if m.logger != nil {
		m.logger.Info("model downloaded and verified", "model", name)
	}
	return nil
}

// runPipeline performs fetch → extract → verify for one model.
// The temporary archive is removed in all outcomes.
func (m *manager) runPipeline(ctx context.Context, desc ModelDescriptor, dir string, onPercent func(int)) error {
	tmp, err := m.storage.tempArchive(desc.Name)
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	fetchErr := fetchArchive(ctx, m.httpClient, desc.SourceURL, tmp, onPercent)
	closeErr := tmp.Close()
	if fetchErr != nil {
		return classifyDownloadError(fetchErr)
	}
	if closeErr != nil {
		return fmt.Errorf("%w: %v", ErrStorageError, closeErr)
	}

	// Download complete; the remaining headroom covers extraction.
	if onPercent != nil {
		onPercent(fetchProgressCap)
	}

	if err := extractArchive(tmpPath, dir); err != nil {
		return fmt.Errorf("%w: %v", ErrExtractionFailed, err)
	}

	root, ok := resolveModelRoot(dir)
	if !ok {
		if m.logger != nil {
			result := VerifyDir(dir)
			m.logger.Warn("model verification failed",
				"model", desc.Name, "files", result.FileCount, "matched", result.MatchedGroups)
		}
		return ErrVerificationFailed
	}

	if m.logger != nil {
		m.logger.Debug("model verified", "model", desc.Name, "root", root)
	}

	if onPercent != nil {
		onPercent(100)
	}
	return nil
}

// IsModelDownloaded reports whether the model's directory exists and passes
// structural verification. Partially downloaded or corrupted directories
// are never reported as downloaded.
func (m *manager) IsModelDownloaded(name string) bool {
	dir := m.storage.modelPath(name)
	if _, err := os.Stat(dir); err != nil {
		return false
	}
	_, ok := resolveModelRoot(dir)
	return ok
}

// IsDownloadInProgress reports whether a download for the model is running
// in this process. A persisted in-progress flag tagged with a different
// session identifier was left by a killed process instance: the stale
// directory is deleted, the flag cleared, and false returned.
func (m *manager) IsDownloadInProgress(name string) bool {
	sess, err := m.sessions.session(name)
	if err != nil {
		if m.logger != nil {
			m.logger.Warn("failed to read session state", "model", name, "error", err)
		}
		return false
	}

	if !sess.InProgress {
		return false
	}
	if sess.SessionID == m.sessionID {
		return true
	}

	if m.logger != nil {
		m.logger.Info("discarding stale download session", "model", name, "session", sess.SessionID)
	}
	if err := m.storage.removeModelDir(name); err != nil && m.logger != nil {
		m.logger.Warn("failed to remove stale model directory", "model", name, "error", err)
	}
	if err := m.sessions.clearInProgress(name); err != nil && m.logger != nil {
		m.logger.Warn("failed to clear stale session state", "model", name, "error", err)
	}
	return false
}

// ModelSize returns the sum of file sizes under the model's directory,
// or 0 if the directory does not exist.
func (m *manager) ModelSize(name string) int64 {
	return m.storage.modelSize(name)
}

// ModelDir returns the deterministic directory path for a model name.
// No existence check is performed.
func (m *manager) ModelDir(name string) string {
	return m.storage.modelPath(name)
}

// ResolvedModelDir returns the directory that actually contains the model's
// file structure, descending into a nested wrapper folder if extraction
// produced one. Returns ErrDirectoryMissing if the model was never
// downloaded and ErrVerificationFailed if the directory exists but is not a
// usable model, so callers can message the user accurately.
func (m *manager) ResolvedModelDir(name string) (string, error) {
	dir := m.storage.modelPath(name)
	if _, err := os.Stat(dir); err != nil {
		return "", fmt.Errorf("%w: %s", ErrDirectoryMissing, dir)
	}
	root, ok := resolveModelRoot(dir)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrVerificationFailed, dir)
	}
	return root, nil
}

// ListDownloaded returns every registered model that is downloaded and
// verified locally, sorted by name.
func (m *manager) ListDownloaded() []InstalledModel {
	var installed []InstalledModel
	for _, desc := range m.registry.All() {
		if !m.IsModelDownloaded(desc.Name) {
			continue
		}
		installed = append(installed, InstalledModel{
			Descriptor: desc,
			Size:       m.storage.modelSize(desc.Name),
			Path:       m.storage.modelPath(desc.Name),
		})
	}
	return installed
}

// Remove deletes a locally downloaded model and its session state.
// Returns ErrDirectoryMissing if the model is not present.
func (m *manager) Remove(name string) error {
	if _, err := m.registry.Lookup(name); err != nil {
		return err
	}
	if _, err := os.Stat(m.storage.modelPath(name)); err != nil {
		return ErrDirectoryMissing
	}
	if err := m.storage.removeModelDir(name); err != nil {
		return err
	}
	return m.sessions.clearInProgress(name)
}

// Registry returns the static model registry shared with this Manager.
func (m *manager) Registry() *Registry {
	return m.registry
}

// Close shuts down the background worker, waiting for a running download
// to finish. The Manager must not be used afterwards.
func (m *manager) Close() {
	m.worker.close()
}
