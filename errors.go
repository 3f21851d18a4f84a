package models

import "errors"

// Sentinel errors for model management operations.
// Use errors.Is() to check for specific error conditions.
var (
	// ErrUnknownModel indicates the model name is not in the static registry.
	ErrUnknownModel = errors.New("models: unknown model")

	// ErrNoConnectivity indicates no network transport is currently available.
	ErrNoConnectivity = errors.New("models: no internet connection available")

	// ErrDownloadFailed indicates the network fetch failed.
	ErrDownloadFailed = errors.New("models: download failed")

	// ErrExtractionFailed indicates the downloaded archive could not be extracted.
	ErrExtractionFailed = errors.New("models: failed to extract model files")

	// ErrVerificationFailed indicates the extracted directory is not a usable model.
	ErrVerificationFailed = errors.New("models: model verification failed - required files missing")

	// ErrDirectoryMissing indicates the model directory does not exist locally.
	ErrDirectoryMissing = errors.New("models: model directory not found")

	// ErrDownloadInProgress indicates a download for the model is already running.
	ErrDownloadInProgress = errors.New("models: download already in progress")

	// ErrStorageError indicates a filesystem operation failed.
	ErrStorageError = errors.New("models: storage error")

	// ErrEngineLoadFailed indicates the speech engine rejected a verified model.
	ErrEngineLoadFailed = errors.New("models: failed to load model into engine")
)
