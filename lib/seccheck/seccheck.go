// Package seccheck scans the working tree for leaked credentials
// before code is pushed: hard-coded JWTs in source or configuration,
// and local credential files missing from .gitignore.
package seccheck

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Findings separates push-blocking problems from advisories.
type Findings struct {
	Problems []string
	Warnings []string
}

func (f Findings) Clean() bool {
	return len(f.Problems) == 0
}

// jwtMarker is the base64 of `{"alg"`, the start of every JWT header.
const jwtMarker = "eyJhbGc"

// localConfigName is the override file that carries real credentials
// and must never be committed.
const localConfigName = "config.local.json5"

// Check walks root looking for credential leaks. Only source and
// configuration files are inspected; the local override file itself is
// exempt since it is expected to hold the real token.
func Check(root string) (Findings, error) {
	var f Findings

	gitignore, err := os.ReadFile(filepath.Join(root, ".gitignore"))
	switch {
	case os.IsNotExist(err):
		f.Warnings = append(f.Warnings, ".gitignore not found")
	case err != nil:
		return f, err
	case !strings.Contains(string(gitignore), localConfigName):
		f.Problems = append(f.Problems, fmt.Sprintf("%s is not listed in .gitignore", localConfigName))
	}

	if _, err := os.Stat(filepath.Join(root, localConfigName)); os.IsNotExist(err) {
		f.Warnings = append(f.Warnings, fmt.Sprintf("%s does not exist locally, copy config.json5 and fill in the token", localConfigName))
	}

	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == ".git" || d.Name() == "node_modules" {
				return filepath.SkipDir
			}
			return nil
		}
		if !inspectable(d.Name()) {
			return nil
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			rel = path
		}
		for i, line := range strings.Split(string(data), "\n") {
			trimmed := strings.TrimSpace(line)
			if strings.HasPrefix(trimmed, "//") || strings.HasPrefix(trimmed, "#") {
				continue
			}
			if strings.Contains(line, jwtMarker) {
				f.Problems = append(f.Problems, fmt.Sprintf("hard-coded JWT in %s:%d", rel, i+1))
			}
		}
		return nil
	})
	return f, err
}

func inspectable(name string) bool {
	if name == localConfigName {
		return false
	}
	switch filepath.Ext(name) {
	case ".go", ".json5", ".json":
		return true
	}
	return false
}
