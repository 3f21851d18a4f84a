package models

import "fmt"

// DefaultSampleRate is the PCM sample rate the recognition engine expects.
const DefaultSampleRate = 16000

// Engine is the consumer of a verified model directory: a speech
// recognition engine that loads the model tree from disk. Implementations
// live outside this package.
type Engine interface {
	// LoadModel loads the model at dir for the given sample rate.
	LoadModel(dir string, sampleRate float64) error
}

// LoadForEngine resolves a model's directory and hands it to the engine.
// The three failure modes stay distinct so the caller can message the user
// accurately: ErrDirectoryMissing (never downloaded), ErrVerificationFailed
// (present but incomplete or corrupted), and ErrEngineLoadFailed (rejected
// by the engine itself). Returns the resolved directory on success.
func LoadForEngine(m Manager, engine Engine, name string, sampleRate float64) (string, error) {
	dir, err := m.ResolvedModelDir(name)
	if err != nil {
		return "", err
	}

	if err := engine.LoadModel(dir, sampleRate); err != nil {
		return "", fmt.Errorf("%w: %v", ErrEngineLoadFailed, err)
	}
	return dir, nil
}
