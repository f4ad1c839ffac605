package service

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/arturoeanton/codechat/internal/domain"
)

// vcsMetadataDir is never summarized, though its files stay in the listing.
const vcsMetadataDir = ".git"

// FilterEligible keeps the text candidates at or under maxSize bytes that live
// outside the version-control metadata directory. It never fails: files that
// cannot be stat'ed are logged and dropped.
func FilterEligible(workspace string, candidates []string, maxSize int64) []domain.WorkspaceFile {
	var eligible []domain.WorkspaceFile
	for _, path := range candidates {
		if inMetadataDir(workspace, path) {
			continue
		}
		info, err := os.Stat(path)
		if err != nil {
			slog.Warn("stat failed, skipping file", "file", path, "error", err)
			continue
		}
		if info.Size() > maxSize {
			continue
		}
		eligible = append(eligible, domain.WorkspaceFile{Path: path, Size: info.Size(), Eligible: true})
	}
	return eligible
}

func inMetadataDir(workspace, path string) bool {
	rel, err := filepath.Rel(workspace, path)
	if err != nil {
		return false
	}
	first, _, _ := strings.Cut(filepath.ToSlash(rel), "/")
	return first == vcsMetadataDir
}
