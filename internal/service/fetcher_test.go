package service

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arturoeanton/codechat/internal/port"
)

func TestFetch_EnumeratesFiles(t *testing.T) {
	root := t.TempDir()
	cloner := &fakeCloner{files: map[string][]byte{
		".git/HEAD":       []byte("ref: refs/heads/main\n"),
		"README":          []byte("hello"),
		"cmd/main.go":     []byte("package main"),
		"assets/logo.png": {0x89, 0x50, 0x4e, 0x47, 0xff, 0xfe},
	}}

	ws, err := NewFetcher(cloner, root).Fetch(context.Background(), "https://github.com/acme/widget")
	require.NoError(t, err)
	defer ws.Remove()

	assert.Equal(t, filepath.Dir(ws.Dir), root)
	assert.True(t, strings.HasPrefix(filepath.Base(ws.Dir), "repo-"))
	assert.Equal(t, []string{".git/HEAD", "README", "assets/logo.png", "cmd/main.go"}, ws.Listing())
	assert.Len(t, ws.TextFiles, 3)
	for _, f := range ws.TextFiles {
		assert.NotEqual(t, "logo.png", filepath.Base(f))
	}
}

func TestFetch_UniqueWorkspaces(t *testing.T) {
	root := t.TempDir()
	f := NewFetcher(&fakeCloner{files: map[string][]byte{"a": []byte("a")}}, root)

	ws1, err := f.Fetch(context.Background(), "https://github.com/acme/widget")
	require.NoError(t, err)
	ws2, err := f.Fetch(context.Background(), "https://github.com/acme/widget")
	require.NoError(t, err)
	assert.NotEqual(t, ws1.Dir, ws2.Dir)

	require.NoError(t, ws1.Remove())
	require.NoError(t, ws2.Remove())
	assert.Empty(t, dirEntries(t, root))
}

func TestFetch_CloneFailureRemovesWorkspace(t *testing.T) {
	root := t.TempDir()
	cloner := &fakeCloner{err: errors.New("not found")}

	ws, err := NewFetcher(cloner, root).Fetch(context.Background(), "https://github.com/acme/missing")
	require.Error(t, err)
	assert.Nil(t, ws)

	var fe *port.FetchError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "not found", err.Error())
	assert.Equal(t, "https://github.com/acme/missing", fe.URL)
	assert.Empty(t, dirEntries(t, root))
}

func TestFilterEligible(t *testing.T) {
	root := t.TempDir()
	cloner := &fakeCloner{files: map[string][]byte{
		".git/config":   []byte("[core]"),
		"small.txt":     []byte("ok"),
		"exact.txt":     []byte(strings.Repeat("x", 64)),
		"big.txt":       []byte(strings.Repeat("x", 65)),
		"docs/.gitkeep": []byte(""),
	}}
	ws, err := NewFetcher(cloner, root).Fetch(context.Background(), "https://github.com/acme/widget")
	require.NoError(t, err)
	defer ws.Remove()

	candidates := append(ws.TextFiles, filepath.Join(ws.Dir, "vanished.txt"))
	eligible := FilterEligible(ws.Dir, candidates, 64)

	var names []string
	for _, f := range eligible {
		assert.True(t, f.Eligible)
		rel, _ := filepath.Rel(ws.Dir, f.Path)
		names = append(names, filepath.ToSlash(rel))
	}
	assert.ElementsMatch(t, []string{"small.txt", "exact.txt", "docs/.gitkeep"}, names)
	assert.Contains(t, ws.Listing(), ".git/config", "metadata stays in the listing")
}

func TestBuildAggregateInput(t *testing.T) {
	got := BuildAggregateInput([]string{"S1", "S2"}, []string{"README", "main"})
	assert.Equal(t, "S1 S2\n\nREADME\nmain", got)
	assert.Equal(t, "\n\nREADME", BuildAggregateInput(nil, []string{"README"}))
}

func TestIsText(t *testing.T) {
	dir := t.TempDir()
	// A multibyte rune straddling the reader's buffer boundary.
	straddle := append(bytes.Repeat([]byte("a"), 4095), []byte("é tail")...)
	cases := map[string][]byte{
		"empty":    {},
		"ascii":    []byte("package main\n"),
		"straddle": straddle,
		"replaced": []byte("\uFFFD is a valid rune"),
		"binary":   {0x89, 0x50, 0x4e, 0x47, 0xff, 0xfe},
		"late-bad": append(bytes.Repeat([]byte("b"), 10000), 0xc3),
	}
	for name, content := range cases {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, content, 0o644))
		assert.Equal(t, utf8.Valid(content), isText(path), name)
	}
	assert.False(t, isText(filepath.Join(dir, "missing")))
}
