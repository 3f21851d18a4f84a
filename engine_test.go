package models

import (
	"errors"
	"testing"
)

type stubEngine struct {
	loadedDir  string
	loadedRate float64
	err        error
}

func (e *stubEngine) LoadModel(dir string, sampleRate float64) error {
	e.loadedDir = dir
	e.loadedRate = sampleRate
	return e.err
}

func TestLoadForEngine(t *testing.T) {
	t.Run("model never downloaded", func(t *testing.T) {
		env := newTestEnv(t, validModelZip(t))
		engine := &stubEngine{}

		_, err := LoadForEngine(env.mgr, engine, "model-xx", DefaultSampleRate)
		if !errors.Is(err, ErrDirectoryMissing) {
			t.Errorf("LoadForEngine() error = %v, want ErrDirectoryMissing", err)
		}
		if engine.loadedDir != "" {
			t.Error("engine invoked despite missing model")
		}
	})

	t.Run("model present but incomplete", func(t *testing.T) {
		env := newTestEnv(t, validModelZip(t))
		writeFiles(t, env.mgr.ModelDir("model-xx"), "junk.txt")

		_, err := LoadForEngine(env.mgr, &stubEngine{}, "model-xx", DefaultSampleRate)
		if !errors.Is(err, ErrVerificationFailed) {
			t.Errorf("LoadForEngine() error = %v, want ErrVerificationFailed", err)
		}
	})

	t.Run("engine rejects the model", func(t *testing.T) {
		env := newTestEnv(t, validModelZip(t))
		writeFiles(t, env.mgr.ModelDir("model-xx"),
			"am/final.mdl", "graph/HCLG.fst", "conf/model.conf")
		engine := &stubEngine{err: errors.New("bad model format")}

		_, err := LoadForEngine(env.mgr, engine, "model-xx", DefaultSampleRate)
		if !errors.Is(err, ErrEngineLoadFailed) {
			t.Errorf("LoadForEngine() error = %v, want ErrEngineLoadFailed", err)
		}
	})

	t.Run("success hands resolved dir to the engine", func(t *testing.T) {
		env := newTestEnv(t, validModelZip(t))
		writeFiles(t, env.mgr.ModelDir("model-xx"),
			"am/final.mdl", "graph/HCLG.fst", "conf/model.conf")
		engine := &stubEngine{}

		dir, err := LoadForEngine(env.mgr, engine, "model-xx", DefaultSampleRate)
		if err != nil {
			t.Fatalf("LoadForEngine() error = %v", err)
		}
		if engine.loadedDir != dir {
			t.Errorf("engine loaded %q, want %q", engine.loadedDir, dir)
		}
		if engine.loadedRate != DefaultSampleRate {
			t.Errorf("sample rate = %v, want %v", engine.loadedRate, DefaultSampleRate)
		}
	})
}
