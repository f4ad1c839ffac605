package port

import "context"

// Cloner abstracts the version-control remote.
type Cloner interface {
	// Clone clones a repository from url into dest. dest must exist and be empty.
	Clone(ctx context.Context, url string, dest string) error
}

// RepoInfo is what a hosting provider reports about a repository before it is cloned.
type RepoInfo struct {
	Private bool
	SizeKB  int
}

// RepoInspector checks a submission against the hosting provider.
type RepoInspector interface {
	// Supports reports whether url is hosted where this inspector can look.
	Supports(url string) bool

	// Inspect fetches repository metadata. A missing or private repository
	// returns ErrRepoPrivate.
	Inspect(ctx context.Context, url string) (*RepoInfo, error)
}
