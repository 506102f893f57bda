// Package git inspects the local checkout so the CLI can default the
// repository identity from the origin remote instead of requiring
// flags on every invocation.
package git

import (
	"fmt"
	"strings"

	goGit "github.com/go-git/go-git/v5"
)

// Engine reads repository metadata from a local checkout via go-git.
type Engine struct {
	repoDir string
}

// NewEngine constructs an engine for the provided repository directory.
func NewEngine(repoDir string) *Engine {
	return &Engine{repoDir: repoDir}
}

// OriginSlug returns the "owner/repo" slug parsed from the origin
// remote URL. Both SSH and HTTPS remote forms are handled.
func (e *Engine) OriginSlug() (owner, repo string, err error) {
	r, err := goGit.PlainOpenWithOptions(e.repoDir, &goGit.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return "", "", fmt.Errorf("open repo: %w", err)
	}

	remote, err := r.Remote("origin")
	if err != nil {
		return "", "", fmt.Errorf("resolve origin remote: %w", err)
	}

	urls := remote.Config().URLs
	if len(urls) == 0 {
		return "", "", fmt.Errorf("origin remote has no URL")
	}

	return parseRemoteSlug(urls[0])
}

// HeadSHA returns the SHA of the local HEAD commit.
func (e *Engine) HeadSHA() (string, error) {
	r, err := goGit.PlainOpenWithOptions(e.repoDir, &goGit.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return "", fmt.Errorf("open repo: %w", err)
	}

	head, err := r.Head()
	if err != nil {
		return "", fmt.Errorf("resolve HEAD: %w", err)
	}
	return head.Hash().String(), nil
}

// parseRemoteSlug extracts owner/repo from the common remote URL
// forms:
//
//	git@github.com:owner/repo.git
//	https://github.com/owner/repo.git
//	https://github.com/owner/repo
func parseRemoteSlug(url string) (owner, repo string, err error) {
	path := url
	if idx := strings.Index(path, "://"); idx >= 0 {
		path = path[idx+3:]
		// Strip host from https://host/owner/repo
		if slash := strings.Index(path, "/"); slash >= 0 {
			path = path[slash+1:]
		}
	} else if idx := strings.Index(path, ":"); idx >= 0 {
		// SSH form host:owner/repo
		path = path[idx+1:]
	}

	path = strings.TrimSuffix(path, ".git")
	path = strings.Trim(path, "/")

	parts := strings.Split(path, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("cannot parse owner/repo from remote URL %q", url)
	}
	return parts[0], parts[1], nil
}
