// Command speech-models is a CLI harness for the models package.
// It demonstrates the CLI integration and provides a working example.
//
// Configuration is loaded from environment variables:
//   - SPEECH_CACHE_DIR: Override for the model cache directory (optional)
//   - SPEECH_LOG_LEVEL: Log level: debug, info, warn, error (default "warn")
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/kelseyhightower/envconfig"
	"github.com/sirupsen/logrus"

	models "github.com/gaudravi09/capacitor-offline-speech-recognition"
)

// CLI exit codes for standardized error reporting.
const (
	// ExitSuccess indicates the operation completed successfully.
	ExitSuccess = 0

	// ExitGeneralError indicates an unspecified error occurred.
	ExitGeneralError = 1

	// ExitInvalidArgs indicates invalid command line arguments.
	ExitInvalidArgs = 2

	// ExitUnknownModel indicates the model name or language is not registered.
	ExitUnknownModel = 3

	// ExitNotDownloaded indicates the model is not present locally.
	ExitNotDownloaded = 4

	// ExitNetworkError indicates a connectivity or download failure.
	ExitNetworkError = 5

	// ExitVerificationFailed indicates the model failed structural checks.
	ExitVerificationFailed = 6

	// ExitStorageError indicates a filesystem operation failed.
	ExitStorageError = 7
)

// envSettings is the environment configuration for the harness.
type envSettings struct {
	// CacheDir overrides the default model cache directory.
	CacheDir string `envconfig:"CACHE_DIR"`

	// LogLevel selects the logrus level.
	LogLevel string `envconfig:"LOG_LEVEL" default:"warn"`
}

func main() {
	var settings envSettings
	if err := envconfig.Process("speech", &settings); err != nil {
		fmt.Fprintf(os.Stderr, "Error: invalid environment configuration: %v\n", err)
		os.Exit(ExitInvalidArgs)
	}

	logger := logrus.New()
	level, err := logrus.ParseLevel(settings.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: invalid SPEECH_LOG_LEVEL %q\n", settings.LogLevel)
		os.Exit(ExitInvalidArgs)
	}
	logger.SetLevel(level)

	cfg := models.Config{
		AppName:  "speech",
		CacheDir: settings.CacheDir,
	}

	cmd := models.NewCommand(cfg, models.WithLogger(models.NewLogrusLogger(logger)))
	if err := cmd.Execute(); err != nil {
		os.Exit(exitCodeFromError(err))
	}
}

// exitCodeFromError maps error types to exit codes.
func exitCodeFromError(err error) int {
	if err == nil {
		return ExitSuccess
	}

	switch {
	case errors.Is(err, models.ErrUnknownModel):
		return ExitUnknownModel
	case errors.Is(err, models.ErrDirectoryMissing):
		return ExitNotDownloaded
	case errors.Is(err, models.ErrNoConnectivity),
		errors.Is(err, models.ErrDownloadFailed),
		errors.Is(err, models.ErrDownloadInProgress):
		return ExitNetworkError
	case errors.Is(err, models.ErrVerificationFailed),
		errors.Is(err, models.ErrExtractionFailed):
		return ExitVerificationFailed
	case errors.Is(err, models.ErrStorageError):
		return ExitStorageError
	default:
		return ExitGeneralError
	}
}
