package models

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// copyBufferSize is the chunk size for streaming entry contents to disk.
const copyBufferSize = 32 * 1024

// extractArchive streams a zip archive into targetDir. Extraction is always
// a clean replace, never a merge: any existing contents of targetDir are
// removed first. If every entry lives under one common top-level folder,
// that folder is stripped from the extracted paths. Entries whose resolved
// path would escape targetDir are silently skipped.
func extractArchive(archivePath, targetDir string) error {
	r, err := zip.OpenReader(archivePath)
	if err != nil {
		return fmt.Errorf("opening archive: %w", err)
	}
	defer r.Close()

	if err := os.RemoveAll(targetDir); err != nil {
		return fmt.Errorf("clearing target directory: %w", err)
	}
	if err := os.MkdirAll(targetDir, 0755); err != nil {
		return fmt.Errorf("creating target directory: %w", err)
	}

	prefix := commonTopLevelDir(r.File)

	buf := make([]byte, copyBufferSize)
	for _, f := range r.File {
		name := f.Name
		if prefix != "" {
			if name == prefix || name == prefix+"/" {
				continue
			}
			name = strings.TrimPrefix(name, prefix+"/")
		}
		if name == "" {
			continue
		}

		destPath := filepath.Join(targetDir, filepath.FromSlash(name))
		if !isWithinDir(targetDir, destPath) {
			// Path-traversal payload, e.g. "../../evil". Skip it.
			continue
		}

		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(destPath, 0755); err != nil {
				return fmt.Errorf("creating directory %s: %w", name, err)
			}
			continue
		}

		if err := os.MkdirAll(filepath.Dir(destPath), 0755); err != nil {
			return fmt.Errorf("creating directory for %s: %w", name, err)
		}

		if err := writeEntry(f, destPath, buf); err != nil {
			return fmt.Errorf("extracting %s: %w", name, err)
		}
	}

	return nil
}

// writeEntry copies one archive entry's decompressed stream to destPath.
func writeEntry(f *zip.File, destPath string, buf []byte) error {
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	out, err := os.OpenFile(destPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}

	_, err = io.CopyBuffer(out, rc, buf)
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}
	return err
}

// commonTopLevelDir pre-scans the archive's entry names and returns the
// single folder every entry lives under, or "" if any entry sits at the
// archive root or the entries span multiple top-level folders.
func commonTopLevelDir(files []*zip.File) string {
	seen := make(map[string]struct{})
	for _, f := range files {
		name := strings.TrimSuffix(f.Name, "/")
		if idx := strings.Index(name, "/"); idx > 0 {
			seen[name[:idx]] = struct{}{}
		} else if !f.FileInfo().IsDir() {
			// A file at the archive root; no common top-level dir.
			return ""
		} else {
			seen[name] = struct{}{}
		}
	}
	if len(seen) != 1 {
		return ""
	}
	for dir := range seen {
		return dir
	}
	return ""
}

// isWithinDir reports whether destPath resolves to a location under dir.
func isWithinDir(dir, destPath string) bool {
	rel, err := filepath.Rel(filepath.Clean(dir), filepath.Clean(destPath))
	if err != nil {
		return false
	}
	rel = filepath.ToSlash(rel)
	return rel != ".." && !strings.HasPrefix(rel, "../")
}
