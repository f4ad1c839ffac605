package service

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"unicode/utf8"

	"github.com/arturoeanton/codechat/internal/port"
)

// Workspace is a scratch directory holding one clone.
type Workspace struct {
	Dir       string
	Files     []string // every regular file, absolute paths
	TextFiles []string // subset of Files that decodes as text
}

// Listing returns every file path relative to the workspace root, slash separated.
func (w *Workspace) Listing() []string {
	out := make([]string, 0, len(w.Files))
	for _, f := range w.Files {
		rel, err := filepath.Rel(w.Dir, f)
		if err != nil {
			rel = f
		}
		out = append(out, filepath.ToSlash(rel))
	}
	return out
}

// Remove deletes the workspace and everything in it.
func (w *Workspace) Remove() error {
	return os.RemoveAll(w.Dir)
}

// Fetcher clones repositories into fresh scratch workspaces.
type Fetcher struct {
	cloner port.Cloner
	root   string
}

// NewFetcher creates a fetcher that places workspaces under root.
func NewFetcher(cloner port.Cloner, root string) *Fetcher {
	return &Fetcher{cloner: cloner, root: root}
}

// Fetch clones url into a new workspace and enumerates its files.
// Failures return *port.FetchError and leave nothing on disk.
func (f *Fetcher) Fetch(ctx context.Context, url string) (*Workspace, error) {
	if err := os.MkdirAll(f.root, 0o755); err != nil {
		return nil, &port.FetchError{URL: url, Err: fmt.Errorf("create workspace root: %w", err)}
	}
	dir, err := os.MkdirTemp(f.root, "repo-*")
	if err != nil {
		return nil, &port.FetchError{URL: url, Err: fmt.Errorf("create workspace: %w", err)}
	}

	ws := &Workspace{Dir: dir}
	if err := f.cloner.Clone(ctx, url, dir); err != nil {
		removeWorkspace(ws)
		return nil, &port.FetchError{URL: url, Err: err}
	}

	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		ws.Files = append(ws.Files, path)
		if isText(path) {
			ws.TextFiles = append(ws.TextFiles, path)
		}
		return nil
	})
	if err != nil {
		removeWorkspace(ws)
		return nil, &port.FetchError{URL: url, Err: fmt.Errorf("enumerate files: %w", err)}
	}
	return ws, nil
}

// isText reports whether the file decodes as UTF-8. Unreadable files count as
// binary. The file is streamed so large binaries stop at their first bad byte.
func isText(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()
	return validUTF8(bufio.NewReader(f))
}

func validUTF8(r io.RuneReader) bool {
	for {
		c, size, err := r.ReadRune()
		if err == io.EOF {
			return true
		}
		if err != nil {
			return false
		}
		if c == utf8.RuneError && size == 1 {
			return false
		}
	}
}

func removeWorkspace(ws *Workspace) {
	if err := ws.Remove(); err != nil {
		slog.Warn("workspace cleanup failed", "dir", ws.Dir, "error", err)
	}
}
