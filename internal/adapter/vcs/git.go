package vcs

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/transport"
)

// ErrAuthRequired is returned when the remote asks for credentials, which
// for a public-repository service means the repository is private or missing.
var ErrAuthRequired = errors.New("repository requires authentication")

// GitProvider implements port.Cloner using go-git.
type GitProvider struct {
	depth int
}

// NewGitProvider creates a new Git VCS provider. depth <= 0 clones full history.
func NewGitProvider(depth int) *GitProvider {
	if depth < 0 {
		depth = 0
	}
	return &GitProvider{depth: depth}
}

// Clone clones a repository into dest.
func (g *GitProvider) Clone(ctx context.Context, url string, dest string) error {
	url = strings.TrimSpace(url)
	if url == "" {
		return fmt.Errorf("git clone: empty url")
	}

	_, err := git.PlainCloneContext(ctx, dest, false, &git.CloneOptions{
		URL:          url,
		Depth:        g.depth,
		SingleBranch: true,
		Tags:         git.NoTags,
	})
	switch {
	case err == nil:
		return nil
	case errors.Is(err, transport.ErrAuthenticationRequired),
		errors.Is(err, transport.ErrAuthorizationFailed),
		errors.Is(err, transport.ErrRepositoryNotFound):
		return fmt.Errorf("git clone %s: %w", url, ErrAuthRequired)
	case errors.Is(err, transport.ErrEmptyRemoteRepository):
		return fmt.Errorf("git clone %s: repository is empty", url)
	default:
		return fmt.Errorf("git clone %s: %w", url, err)
	}
}
