package models

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// signatureGroup names one structural category of model artifact and the
// relative-path suffixes that indicate its presence.
type signatureGroup struct {
	// name identifies the group in diagnostics.
	name string

	// suffixes are acceptable lower-case, slash-normalized path suffixes.
	suffixes []string
}

// signatureGroups describes the file layout of a usable Vosk model.
// The acoustic model is the non-negotiable core artifact; the remaining
// groups tolerate layout variation across model vendors and versions.
var signatureGroups = []signatureGroup{
	{name: "acoustic", suffixes: []string{"am/final.mdl", "final.mdl"}},
	{name: "graph", suffixes: []string{"graph/hclg.fst", "hclg.fst", "gr.fst"}},
	{name: "config", suffixes: []string{"conf/model.conf", "conf/mfcc.conf", "mfcc.conf"}},
	{name: "ivector", suffixes: []string{"ivector/final.ie", "ivector/final.dubm", "ivector/final.mat"}},
	{name: "phones", suffixes: []string{"graph/phones/word_boundary.int", "word_boundary.int", "phones.txt"}},
	{name: "disambig", suffixes: []string{"disambig_tid.int"}},
}

// minSupportingGroups is the number of non-acoustic groups that must be
// present for a directory to verify.
const minSupportingGroups = 2

// VerifyDir inspects a directory's file set and decides whether it
// constitutes a complete, usable model: the acoustic group must be present
// plus at least two supporting groups. An empty file set is always invalid.
func VerifyDir(dir string) VerifyResult {
	paths := collectRelativeFiles(dir)
	if len(paths) == 0 {
		return VerifyResult{}
	}

	var result VerifyResult
	result.FileCount = len(paths)

	acoustic := false
	supporting := 0
	for _, group := range signatureGroups {
		if !groupPresent(paths, group) {
			continue
		}
		result.MatchedGroups = append(result.MatchedGroups, group.name)
		if group.name == "acoustic" {
			acoustic = true
		} else {
			supporting++
		}
	}

	result.Valid = acoustic && supporting >= minSupportingGroups
	return result
}

// groupPresent reports whether any collected path ends with any of the
// group's suffixes.
func groupPresent(paths []string, group signatureGroup) bool {
	for _, p := range paths {
		for _, suffix := range group.suffixes {
			if strings.HasSuffix(p, suffix) {
				return true
			}
		}
	}
	return false
}

// collectRelativeFiles returns every regular file's path relative to dir,
// lower-cased, with path separators normalized to "/".
func collectRelativeFiles(dir string) []string {
	var paths []string
	filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == dir {
				return filepath.SkipAll
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return nil
		}
		paths = append(paths, strings.ToLower(filepath.ToSlash(rel)))
		return nil
	})
	return paths
}

// resolveModelRoot finds the directory that actually contains the model's
// expected file structure, accommodating archives that nest the payload in
// one or more wrapper folders even after extraction-time prefix stripping.
//
// Resolution order: the directory itself, then exactly one verifying
// immediate subdirectory, then a deeper recursive search for the first
// subdirectory that verifies.
func resolveModelRoot(dir string) (string, bool) {
	if VerifyDir(dir).Valid {
		return dir, true
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", false
	}

	var verified []string
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		sub := filepath.Join(dir, entry.Name())
		if VerifyDir(sub).Valid {
			verified = append(verified, sub)
		}
	}
	if len(verified) == 1 {
		return verified[0], true
	}

	// Deeper search for more heavily nested payloads.
	var found string
	filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || !d.IsDir() || path == dir {
			return nil
		}
		if VerifyDir(path).Valid {
			found = path
			return filepath.SkipAll
		}
		return nil
	})
	if found != "" {
		return found, true
	}

	return "", false
}
