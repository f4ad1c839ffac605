package github

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/arturoeanton/codechat/internal/port"
)

const defaultAPIBase = "https://api.github.com"

// Inspector implements port.RepoInspector against the GitHub REST API.
type Inspector struct {
	apiBase    string
	token      string
	maxSizeKB  int
	httpClient *http.Client
}

// NewInspector creates a GitHub pre-check. maxSizeKB <= 0 disables the size limit.
func NewInspector(token string, maxSizeKB int) *Inspector {
	return &Inspector{
		apiBase:    defaultAPIBase,
		token:      token,
		maxSizeKB:  maxSizeKB,
		httpClient: &http.Client{},
	}
}

// Supports reports whether url points at github.com.
func (g *Inspector) Supports(rawURL string) bool {
	_, _, ok := ownerRepo(rawURL)
	return ok
}

// Inspect fetches repository metadata and rejects private, empty or
// oversized repositories.
func (g *Inspector) Inspect(ctx context.Context, rawURL string) (*port.RepoInfo, error) {
	owner, repo, ok := ownerRepo(rawURL)
	if !ok {
		return nil, fmt.Errorf("%w: not a github repository", port.ErrInvalidURL)
	}

	endpoint := fmt.Sprintf("%s/repos/%s/%s", g.apiBase, url.PathEscape(owner), url.PathEscape(repo))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("github: create repo request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	if g.token != "" {
		req.Header.Set("Authorization", "Bearer "+g.token)
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("github: fetch repo: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, port.ErrRepoPrivate
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("github: repo fetch failed (%d): %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var meta struct {
		Private bool `json:"private"`
		Size    int  `json:"size"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&meta); err != nil {
		return nil, fmt.Errorf("github: decode repo: %w", err)
	}

	info := &port.RepoInfo{Private: meta.Private, SizeKB: meta.Size}
	switch {
	case info.Private:
		return nil, port.ErrRepoPrivate
	case info.SizeKB == 0:
		return nil, port.ErrRepoEmpty
	case g.maxSizeKB > 0 && info.SizeKB > g.maxSizeKB:
		return nil, fmt.Errorf("%w: %d KB exceeds %d KB", port.ErrRepoTooLarge, info.SizeKB, g.maxSizeKB)
	}
	return info, nil
}

// ownerRepo extracts owner and name from a github.com URL.
func ownerRepo(rawURL string) (string, string, bool) {
	u, err := url.Parse(rawURL)
	if err != nil || !strings.EqualFold(u.Hostname(), "github.com") {
		return "", "", false
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return "", "", false
	}
	return parts[0], strings.TrimSuffix(parts[1], ".git"), true
}
