package models

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// Manager provides programmatic access to language model management.
// All methods are safe for concurrent use; downloads are serialized on a
// single background worker. For CLI integration, use NewCommand instead.
type Manager interface {
	// DownloadModel starts an asynchronous download for the named model.
	// Progress and the terminal outcome are delivered through cb; exactly
	// one of OnSuccess or OnError is invoked, after all OnProgress calls.
	// Callers should consult IsDownloadInProgress first - DownloadModel
	// itself does not re-check, to allow forced retries.
	DownloadModel(name string, cb DownloadCallbacks)

	// Download synchronously downloads, extracts, and verifies a model.
	// Returns ErrUnknownModel, ErrNoConnectivity, ErrDownloadFailed,
	// ErrExtractionFailed, or ErrVerificationFailed.
	Download(ctx context.Context, name string, opts ...DownloadOption) error

	// IsModelDownloaded reports whether the model's directory exists and
	// passes verification.
	IsModelDownloaded(name string) bool

	// IsDownloadInProgress reports whether a download is running in this
	// process. As a side effect it detects and cleans up a stale session
	// left by a killed process instance.
	IsDownloadInProgress(name string) bool

	// ModelSize returns the total size in bytes of the model's files,
	// or 0 if the model is absent.
	ModelSize(name string) int64

	// ModelDir returns the deterministic directory path for a model name,
	// without checking existence.
	ModelDir(name string) string

	// ResolvedModelDir returns the directory containing the model's file
	// structure, after optionally descending into a nested wrapper folder.
	// Returns ErrDirectoryMissing or ErrVerificationFailed.
	ResolvedModelDir(name string) (string, error)

	// ListDownloaded returns every registered model present and verified
	// locally, sorted by name.
	ListDownloaded() []InstalledModel

	// Remove deletes a downloaded model and its session state.
	// Returns ErrUnknownModel or ErrDirectoryMissing.
	Remove(name string) error

	// Registry returns the static model registry shared with this Manager.
	Registry() *Registry

	// Close shuts down the background worker, waiting for a running
	// download to finish.
	Close()
}

// Ensure manager implements Manager interface.
var _ Manager = (*manager)(nil)

// NewManager creates a new Manager with the given configuration.
// Returns an error if the configuration is invalid (empty AppName).
//
// Each Manager carries its own live session identifier, so create at most
// one Manager per process for a given cache directory; a second Manager
// treats the first one's in-flight downloads as stale.
func NewManager(cfg Config, opts ...ManagerOption) (Manager, error) {
	if cfg.AppName == "" {
		return nil, errors.New("models: AppName is required")
	}

	// Apply options
	mcfg := &managerConfig{}
	for _, opt := range opts {
		opt(mcfg)
	}
	if mcfg.httpClient == nil {
		mcfg.httpClient = defaultHTTPClient()
	}
	if mcfg.probe == nil {
		mcfg.probe = defaultConnectivityProbe
	}
	if mcfg.registry == nil {
		mcfg.registry = DefaultRegistry()
	}

	storage, err := newStorage(cfg)
	if err != nil {
		return nil, err
	}

	return &manager{
		cfg:        cfg,
		registry:   mcfg.registry,
		httpClient: mcfg.httpClient,
		logger:     mcfg.logger,
		probe:      mcfg.probe,
		storage:    storage,
		sessions:   newSessionStore(storage),
		sessionID:  uuid.NewString(),
		worker:     newDownloadWorker(),
	}, nil
}
