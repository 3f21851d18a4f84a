package models

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"
)

// validModelZip builds a minimal valid model archive wrapped in a single
// top-level folder, the way vosk archives ship.
func validModelZip(t *testing.T) []byte {
	t.Helper()
	return zipBytes(t, map[string]string{
		"vosk-model-small-xx-0.1/am/final.mdl":    "acoustic",
		"vosk-model-small-xx-0.1/graph/HCLG.fst":  "graph",
		"vosk-model-small-xx-0.1/conf/model.conf": "conf",
	})
}

// zipBytes builds an in-memory zip archive from name → body pairs.
func zipBytes(t *testing.T, files map[string]string) []byte {
	t.Helper()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, body := range files {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("zip Create(%q) error = %v", name, err)
		}
		if _, err := w.Write([]byte(body)); err != nil {
			t.Fatalf("zip Write(%q) error = %v", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("zip Close() error = %v", err)
	}
	return buf.Bytes()
}

// testEnv bundles a Manager wired to an httptest server.
type testEnv struct {
	mgr     Manager
	hits    *atomic.Int64
	baseDir string
}

// newTestEnv creates a Manager whose single registered model "model-xx" is
// served by an httptest server returning archive.
func newTestEnv(t *testing.T, archive []byte, opts ...ManagerOption) *testEnv {
	t.Helper()

	var hits atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if archive == nil {
			http.NotFound(w, r)
			return
		}
		w.Write(archive)
	}))
	t.Cleanup(server.Close)

	baseDir := t.TempDir()
	registry := NewRegistry([]ModelDescriptor{{
		Name:         "model-xx",
		Language:     "xx",
		LanguageName: "Testish",
		SourceURL:    server.URL + "/vosk-model-small-xx-0.1.zip",
	}})

	defaults := []ManagerOption{
		WithRegistry(registry),
		WithConnectivityProbe(func() bool { return true }),
	}
	mgr, err := NewManager(Config{AppName: "testapp", CacheDir: baseDir}, append(defaults, opts...)...)
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}
	t.Cleanup(mgr.Close)

	return &testEnv{mgr: mgr, hits: &hits, baseDir: baseDir}
}

func TestDownload(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		env := newTestEnv(t, validModelZip(t))

		var progress []int
		err := env.mgr.Download(context.Background(), "model-xx", WithProgress(func(p int) {
			progress = append(progress, p)
		}))
		if err != nil {
			t.Fatalf("Download() error = %v", err)
		}

		if !env.mgr.IsModelDownloaded("model-xx") {
			t.Error("IsModelDownloaded() = false after successful download")
		}
		if size := env.mgr.ModelSize("model-xx"); size == 0 {
			t.Error("ModelSize() = 0 after successful download")
		}

		// Wrapper folder stripped: acoustic file at the directory root.
		if _, err := os.Stat(filepath.Join(env.mgr.ModelDir("model-xx"), "am", "final.mdl")); err != nil {
			t.Errorf("am/final.mdl not at model root: %v", err)
		}

		if len(progress) == 0 {
			t.Fatal("no progress reported")
		}
		for i := 1; i < len(progress); i++ {
			if progress[i] < progress[i-1] {
				t.Errorf("progress not monotonic: %v", progress)
				break
			}
		}
		if final := progress[len(progress)-1]; final != 100 {
			t.Errorf("final progress = %d, want 100", final)
		}
		for _, p := range progress[:len(progress)-1] {
			if p > fetchProgressCap {
				t.Errorf("pre-terminal progress %d exceeds %d", p, fetchProgressCap)
			}
		}

		// Temp archive cleaned up.
		matches, _ := filepath.Glob(filepath.Join(env.baseDir, "temp_*.zip"))
		if len(matches) != 0 {
			t.Errorf("temp archives left behind: %v", matches)
		}

		// Session committed: progress 100, flag cleared.
		mm := env.mgr.(*manager)
		sess, err := mm.sessions.session("model-xx")
		if err != nil {
			t.Fatalf("session() error = %v", err)
		}
		if sess.InProgress {
			t.Error("InProgress = true after commit, want false")
		}
		if sess.ProgressPercent != 100 {
			t.Errorf("ProgressPercent = %d, want 100", sess.ProgressPercent)
		}
	})

	t.Run("unknown model performs no network I/O", func(t *testing.T) {
		env := newTestEnv(t, validModelZip(t))

		err := env.mgr.Download(context.Background(), "model-nope")
		if !errors.Is(err, ErrUnknownModel) {
			t.Errorf("Download() error = %v, want ErrUnknownModel", err)
		}
		if env.hits.Load() != 0 {
			t.Errorf("server hits = %d, want 0", env.hits.Load())
		}
	})

	t.Run("no connectivity performs no network I/O", func(t *testing.T) {
		env := newTestEnv(t, validModelZip(t),
			WithConnectivityProbe(func() bool { return false }))

		err := env.mgr.Download(context.Background(), "model-xx")
		if !errors.Is(err, ErrNoConnectivity) {
			t.Errorf("Download() error = %v, want ErrNoConnectivity", err)
		}
		if env.hits.Load() != 0 {
			t.Errorf("server hits = %d, want 0", env.hits.Load())
		}
	})

	t.Run("incomplete archive fails verification", func(t *testing.T) {
		// Missing the acoustic group entirely.
		archive := zipBytes(t, map[string]string{
			"model/graph/HCLG.fst":  "graph",
			"model/conf/model.conf": "conf",
		})
		env := newTestEnv(t, archive)

		err := env.mgr.Download(context.Background(), "model-xx")
		if !errors.Is(err, ErrVerificationFailed) {
			t.Errorf("Download() error = %v, want ErrVerificationFailed", err)
		}
		if env.mgr.IsModelDownloaded("model-xx") {
			t.Error("IsModelDownloaded() = true for unverified model")
		}

		// In-progress flag cleared on failure.
		mm := env.mgr.(*manager)
		sess, _ := mm.sessions.session("model-xx")
		if sess.InProgress {
			t.Error("InProgress = true after failed download, want false")
		}
	})

	t.Run("http error is classified as download failure", func(t *testing.T) {
		env := newTestEnv(t, nil) // server responds 404

		err := env.mgr.Download(context.Background(), "model-xx")
		if !errors.Is(err, ErrDownloadFailed) {
			t.Errorf("Download() error = %v, want ErrDownloadFailed", err)
		}
	})

	t.Run("corrupt archive fails extraction", func(t *testing.T) {
		env := newTestEnv(t, []byte("this is not a zip archive"))

		err := env.mgr.Download(context.Background(), "model-xx")
		if !errors.Is(err, ErrExtractionFailed) {
			t.Errorf("Download() error = %v, want ErrExtractionFailed", err)
		}
	})

	t.Run("repeat download replaces prior directory", func(t *testing.T) {
		env := newTestEnv(t, validModelZip(t))
		ctx := context.Background()

		if err := env.mgr.Download(ctx, "model-xx"); err != nil {
			t.Fatalf("first Download() error = %v", err)
		}

		// Plant a marker; the second download must start from a clean slate.
		marker := filepath.Join(env.mgr.ModelDir("model-xx"), "marker.bin")
		if err := os.WriteFile(marker, []byte("x"), 0644); err != nil {
			t.Fatalf("WriteFile() error = %v", err)
		}

		if err := env.mgr.Download(ctx, "model-xx"); err != nil {
			t.Fatalf("second Download() error = %v", err)
		}
		if _, err := os.Stat(marker); !os.IsNotExist(err) {
			t.Error("marker survived re-download, want clean replace")
		}
		if !env.mgr.IsModelDownloaded("model-xx") {
			t.Error("IsModelDownloaded() = false after re-download")
		}
	})
}

func TestDownloadModel(t *testing.T) {
	t.Run("delivers progress then exactly one success", func(t *testing.T) {
		env := newTestEnv(t, validModelZip(t))

		var progress []int
		var successCount, errorCount atomic.Int64
		done := make(chan struct{})

		env.mgr.DownloadModel("model-xx", DownloadCallbacks{
			OnProgress: func(p int) { progress = append(progress, p) },
			OnSuccess: func() {
				successCount.Add(1)
				close(done)
			},
			OnError: func(err error) {
				errorCount.Add(1)
				close(done)
			},
		})

		select {
		case <-done:
		case <-time.After(10 * time.Second):
			t.Fatal("no terminal callback within 10s")
		}
		// Give a misbehaving second terminal a chance to fire.
		env.mgr.Close()

		if successCount.Load() != 1 || errorCount.Load() != 0 {
			t.Errorf("terminals = %d success, %d error; want exactly one success",
				successCount.Load(), errorCount.Load())
		}
		if len(progress) == 0 || progress[len(progress)-1] != 100 {
			t.Errorf("progress = %v, want non-empty ending at 100", progress)
		}
	})

	t.Run("no connectivity reports error synchronously", func(t *testing.T) {
		env := newTestEnv(t, validModelZip(t),
			WithConnectivityProbe(func() bool { return false }))

		var gotErr error
		env.mgr.DownloadModel("model-xx", DownloadCallbacks{
			OnError: func(err error) { gotErr = err },
		})

		// Delivered before DownloadModel returned; no waiting required.
		if !errors.Is(gotErr, ErrNoConnectivity) {
			t.Errorf("OnError = %v, want ErrNoConnectivity", gotErr)
		}
		if env.hits.Load() != 0 {
			t.Errorf("server hits = %d, want 0", env.hits.Load())
		}
	})

	t.Run("unknown model terminates via OnError", func(t *testing.T) {
		env := newTestEnv(t, validModelZip(t))

		errCh := make(chan error, 1)
		env.mgr.DownloadModel("model-nope", DownloadCallbacks{
			OnError: func(err error) { errCh <- err },
		})

		select {
		case err := <-errCh:
			if !errors.Is(err, ErrUnknownModel) {
				t.Errorf("OnError = %v, want ErrUnknownModel", err)
			}
		case <-time.After(5 * time.Second):
			t.Fatal("no terminal callback within 5s")
		}
		if env.hits.Load() != 0 {
			t.Errorf("server hits = %d, want 0", env.hits.Load())
		}
	})
}

func TestIsDownloadInProgress(t *testing.T) {
	t.Run("false with no session", func(t *testing.T) {
		env := newTestEnv(t, validModelZip(t))

		if env.mgr.IsDownloadInProgress("model-xx") {
			t.Error("IsDownloadInProgress() = true with no session")
		}
	})

	t.Run("true for live session", func(t *testing.T) {
		env := newTestEnv(t, validModelZip(t))
		mm := env.mgr.(*manager)

		if err := mm.sessions.markInProgress("model-xx", mm.sessionID); err != nil {
			t.Fatalf("markInProgress() error = %v", err)
		}

		if !env.mgr.IsDownloadInProgress("model-xx") {
			t.Error("IsDownloadInProgress() = false for live session")
		}
	})

	t.Run("stale session is discarded and directory deleted", func(t *testing.T) {
		env := newTestEnv(t, validModelZip(t))
		mm := env.mgr.(*manager)

		// Simulate a flag left by a killed process instance.
		if err := mm.sessions.markInProgress("model-xx", "dead-process-session"); err != nil {
			t.Fatalf("markInProgress() error = %v", err)
		}
		writeFiles(t, env.mgr.ModelDir("model-xx"), "partial.bin")

		if env.mgr.IsDownloadInProgress("model-xx") {
			t.Error("IsDownloadInProgress() = true for stale session, want false")
		}
		if _, err := os.Stat(env.mgr.ModelDir("model-xx")); !os.IsNotExist(err) {
			t.Error("stale model directory not deleted")
		}

		sess, err := mm.sessions.session("model-xx")
		if err != nil {
			t.Fatalf("session() error = %v", err)
		}
		if sess.InProgress {
			t.Error("stale in-progress flag not cleared")
		}
	})
}

func TestResolvedModelDir(t *testing.T) {
	t.Run("missing directory", func(t *testing.T) {
		env := newTestEnv(t, validModelZip(t))

		_, err := env.mgr.ResolvedModelDir("model-xx")
		if !errors.Is(err, ErrDirectoryMissing) {
			t.Errorf("ResolvedModelDir() error = %v, want ErrDirectoryMissing", err)
		}
	})

	t.Run("unverified directory", func(t *testing.T) {
		env := newTestEnv(t, validModelZip(t))
		writeFiles(t, env.mgr.ModelDir("model-xx"), "junk.txt")

		_, err := env.mgr.ResolvedModelDir("model-xx")
		if !errors.Is(err, ErrVerificationFailed) {
			t.Errorf("ResolvedModelDir() error = %v, want ErrVerificationFailed", err)
		}
	})

	t.Run("verified directory", func(t *testing.T) {
		env := newTestEnv(t, validModelZip(t))
		writeFiles(t, env.mgr.ModelDir("model-xx"),
			"am/final.mdl", "graph/HCLG.fst", "conf/model.conf")

		dir, err := env.mgr.ResolvedModelDir("model-xx")
		if err != nil {
			t.Fatalf("ResolvedModelDir() error = %v", err)
		}
		if !VerifyDir(dir).Valid {
			t.Errorf("ResolvedModelDir() = %q, which does not verify", dir)
		}
	})
}

func TestListDownloaded(t *testing.T) {
	env := newTestEnv(t, validModelZip(t))

	if got := env.mgr.ListDownloaded(); len(got) != 0 {
		t.Errorf("ListDownloaded() = %v, want empty", got)
	}

	writeFiles(t, env.mgr.ModelDir("model-xx"),
		"am/final.mdl", "graph/HCLG.fst", "conf/model.conf")

	got := env.mgr.ListDownloaded()
	if len(got) != 1 {
		t.Fatalf("ListDownloaded() returned %d models, want 1", len(got))
	}
	if got[0].Descriptor.Name != "model-xx" {
		t.Errorf("Descriptor.Name = %q, want model-xx", got[0].Descriptor.Name)
	}
	if got[0].Size == 0 {
		t.Error("Size = 0, want > 0")
	}
}

func TestRemove(t *testing.T) {
	t.Run("unknown model", func(t *testing.T) {
		env := newTestEnv(t, validModelZip(t))

		if err := env.mgr.Remove("model-nope"); !errors.Is(err, ErrUnknownModel) {
			t.Errorf("Remove() error = %v, want ErrUnknownModel", err)
		}
	})

	t.Run("not downloaded", func(t *testing.T) {
		env := newTestEnv(t, validModelZip(t))

		if err := env.mgr.Remove("model-xx"); !errors.Is(err, ErrDirectoryMissing) {
			t.Errorf("Remove() error = %v, want ErrDirectoryMissing", err)
		}
	})

	t.Run("removes directory and session state", func(t *testing.T) {
		env := newTestEnv(t, validModelZip(t))
		writeFiles(t, env.mgr.ModelDir("model-xx"), "am/final.mdl")

		if err := env.mgr.Remove("model-xx"); err != nil {
			t.Fatalf("Remove() error = %v", err)
		}
		if _, err := os.Stat(env.mgr.ModelDir("model-xx")); !os.IsNotExist(err) {
			t.Error("model directory not removed")
		}
	})
}

func TestNewManager(t *testing.T) {
	t.Run("requires app name", func(t *testing.T) {
		if _, err := NewManager(Config{}); err == nil {
			t.Error("NewManager() error = nil, want error for empty AppName")
		}
	})

	t.Run("distinct managers get distinct session ids", func(t *testing.T) {
		dir := t.TempDir()
		a, err := NewManager(Config{AppName: "testapp", CacheDir: dir})
		if err != nil {
			t.Fatalf("NewManager() error = %v", err)
		}
		defer a.Close()
		b, err := NewManager(Config{AppName: "testapp", CacheDir: dir})
		if err != nil {
			t.Fatalf("NewManager() error = %v", err)
		}
		defer b.Close()

		if a.(*manager).sessionID == b.(*manager).sessionID {
			t.Error("two managers share a session id, want distinct")
		}
	})
}
