// Package models manages acquisition and local caching of Vosk speech
// recognition models: versioned zip bundles fetched over HTTP, extracted
// into a per-model cache directory, and structurally verified before they
// are handed to the recognition engine.
//
// The package serves two primary use cases:
//
//  1. Programmatic API via the Manager interface - Applications can use
//     NewManager to create a Manager that downloads, verifies, and queries
//     language models.
//
//  2. Embeddable CLI via NewCommand - Parent CLI tools can attach a complete
//     "models" subcommand tree to their Cobra root command, providing
//     commands like "mytool models download", "mytool models list", etc.
//
// # Thread Safety
//
// The Manager interface is fully thread-safe. Downloads are serialized on a
// single background worker; queries may be called concurrently from any
// goroutine.
//
// # Verification
//
// A model directory is considered downloaded only if it passes a structural
// signature check: the acoustic model artifact must be present, plus at
// least two supporting artifact groups (graph, config, ivector, phones,
// disambiguation). Partially extracted or corrupted directories are never
// reported as downloaded.
//
// # Storage
//
// Models are cached in platform-appropriate directories:
//   - Linux: $XDG_CACHE_HOME/<app>/model/ or ~/.cache/<app>/model/
//   - macOS: ~/Library/Caches/<app>/model/
//   - Windows: %LOCALAPPDATA%\<app>\model\
//
// The cache location can be overridden via Config.CacheDir or the
// <APPNAME>_CACHE_DIR environment variable. Download session state is
// persisted next to the model directories so an interrupted download left
// by a killed process is detected and cleaned up on the next query.
package models
