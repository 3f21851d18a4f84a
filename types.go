package models

import "fmt"

// Config configures the models module.
type Config struct {
	// AppName determines the cache directory name.
	// Example: "offlinespeech" → ~/.cache/offlinespeech/ on Linux
	AppName string

	// CacheDir overrides the default cache directory.
	// If empty, uses platform-appropriate default.
	// Can also be set via environment variable: <APPNAME>_CACHE_DIR
	CacheDir string
}

// ModelDescriptor identifies a downloadable language model.
// Descriptors are immutable and defined once in the static registry.
type ModelDescriptor struct {
	// Name is the unique model key, e.g. "model-de".
	Name string

	// Language is the BCP-47-ish language code, e.g. "de" or "en-us".
	Language string

	// LanguageName is the human-readable language name, e.g. "German".
	LanguageName string

	// SourceURL is the fixed download URL for the model archive.
	SourceURL string
}

// DownloadSession is the per-model download state persisted across process
// restarts. It lets the system detect a session abandoned by a killed
// process: a persisted InProgress flag whose SessionID does not match the
// current process's identifier is stale.
type DownloadSession struct {
	// ModelName is the model this session belongs to.
	ModelName string

	// SessionID is an opaque value generated once per process lifetime.
	SessionID string

	// ProgressPercent is the last persisted progress, 0-100.
	ProgressPercent int

	// InProgress reports whether a download was running when last persisted.
	InProgress bool
}

// InstalledModel describes a locally downloaded, verified model.
type InstalledModel struct {
	// Descriptor identifies the model.
	Descriptor ModelDescriptor

	// Size is the total size in bytes of all files under the model directory.
	Size int64

	// Path is the absolute path to the model directory.
	Path string
}

// VerifyResult carries the outcome of a structural model verification.
// The matched group names are diagnostic only; callers must rely solely on
// Valid.
type VerifyResult struct {
	// Valid reports whether the directory constitutes a usable model.
	Valid bool

	// MatchedGroups lists the signature groups that were found, for logging.
	MatchedGroups []string

	// FileCount is the number of regular files inspected.
	FileCount int
}

// DownloadCallbacks receives progress and the terminal outcome of an
// asynchronous download. Exactly one of OnSuccess or OnError is invoked,
// after all OnProgress calls. Any field may be nil.
type DownloadCallbacks struct {
	// OnProgress receives percent values in non-decreasing order.
	// Values during the fetch phase never exceed 95; on success the final
	// reported value is 100.
	OnProgress func(percent int)

	// OnSuccess is invoked once when the model is downloaded and verified.
	OnSuccess func()

	// OnError is invoked once with a user-safe error on any failure.
	OnError func(err error)
}

// formatBytes renders a byte count in human-readable decimal units.
func formatBytes(n int64) string {
	switch {
	case n >= 1_000_000_000:
		return fmt.Sprintf("%.1f GB", float64(n)/1_000_000_000)
	case n >= 1_000_000:
		return fmt.Sprintf("%.1f MB", float64(n)/1_000_000)
	case n >= 1_000:
		return fmt.Sprintf("%.1f KB", float64(n)/1_000)
	default:
		return fmt.Sprintf("%d B", n)
	}
}
