package seccheck

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestCheckCleanTree(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, ".gitignore", "config.local.json5\ndatos/\n")
	writeFile(t, dir, "config.json5", `{api: {token: ""}}`)
	writeFile(t, dir, "config.local.json5", `{api: {token: "eyJhbGciOiJIUzI1NiJ9.real"}}`)

	f, err := Check(dir)
	if err != nil {
		t.Fatal(err)
	}
	require.True(t, f.Clean())
	require.Empty(t, f.Warnings)
}

func TestCheckFindsHardcodedJWT(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, ".gitignore", "config.local.json5\n")
	writeFile(t, dir, "main.go", "package main\n\nvar token = \"eyJhbGciOiJIUzI1NiJ9.leaked\"\n")

	f, err := Check(dir)
	if err != nil {
		t.Fatal(err)
	}
	require.False(t, f.Clean())
	require.Contains(t, f.Problems[0], "main.go:3")
}

func TestCheckIgnoresCommentedTokens(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, ".gitignore", "config.local.json5\n")
	writeFile(t, dir, "config.json5", "{\n  // token: \"eyJhbGciOiJIUzI1NiJ9.example\"\n  api: {}\n}\n")

	f, err := Check(dir)
	if err != nil {
		t.Fatal(err)
	}
	require.True(t, f.Clean())
}

func TestCheckMissingGitignoreEntry(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, ".gitignore", "datos/\n")

	f, err := Check(dir)
	if err != nil {
		t.Fatal(err)
	}
	require.False(t, f.Clean())
	require.Contains(t, f.Problems[0], "config.local.json5")
}

func TestCheckMissingFilesAreWarnings(t *testing.T) {
	f, err := Check(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	require.True(t, f.Clean())
	require.Len(t, f.Warnings, 2)
}

func TestCheckSkipsUninspectableFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, ".gitignore", "config.local.json5\n")
	writeFile(t, dir, "notas.txt", "eyJhbGciOiJIUzI1NiJ9.not-code\n")

	f, err := Check(dir)
	if err != nil {
		t.Fatal(err)
	}
	require.True(t, f.Clean())
}
