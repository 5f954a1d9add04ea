// Package contribution looks up authorship and edit-history data for source
// documents from the docset's git repository.
package contribution

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// Info is the contribution data attached to a built page.
type Info struct {
	Author                string    `json:"author,omitempty"`
	UpdatedAt             time.Time `json:"updated_at,omitempty"`
	ContentGitURL         string    `json:"content_git_url,omitempty"`
	OriginalContentGitURL string    `json:"original_content_git_url,omitempty"`
}

// Provider answers contribution queries per document. Implementations must
// be safe for concurrent use.
type Provider interface {
	// Contribution returns contribution data for a root-relative path. A
	// non-empty authorOverride (from front matter) replaces the git author.
	Contribution(relPath, authorOverride string) (Info, error)
}

// Noop returns empty contribution data; used when the docset is not a git
// checkout or contribution lookup is disabled.
type Noop struct{}

// Contribution implements Provider.
func (Noop) Contribution(relPath, authorOverride string) (Info, error) {
	return Info{Author: authorOverride}, nil
}

// Git is a Provider backed by the docset's git repository.
type Git struct {
	repo      *git.Repository
	remoteURL string
	branch    string
	prefix    string
}

// OpenGit opens the repository containing docsetRoot. prefix is the docset
// root's path inside the repository (empty when the docset is the repo root).
func OpenGit(docsetRoot, prefix string) (*Git, error) {
	repo, err := git.PlainOpenWithOptions(docsetRoot, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("open git repository at %s: %w", docsetRoot, err)
	}

	g := &Git{repo: repo, prefix: strings.Trim(prefix, "/")}
	if remote, err := repo.Remote("origin"); err == nil && len(remote.Config().URLs) > 0 {
		g.remoteURL = normalizeRemoteURL(remote.Config().URLs[0])
	}
	if head, err := repo.Head(); err == nil {
		g.branch = head.Name().Short()
	}
	return g, nil
}

// Contribution implements Provider. The author is the most recent committer
// touching the file unless the front matter overrides it.
func (g *Git) Contribution(relPath, authorOverride string) (Info, error) {
	repoPath := relPath
	if g.prefix != "" {
		repoPath = g.prefix + "/" + relPath
	}

	info := Info{Author: authorOverride}
	if g.remoteURL != "" && g.branch != "" {
		info.ContentGitURL = fmt.Sprintf("%s/blob/%s/%s", g.remoteURL, g.branch, repoPath)
		info.OriginalContentGitURL = info.ContentGitURL
	}

	iter, err := g.repo.Log(&git.LogOptions{FileName: &repoPath, Order: git.LogOrderCommitterTime})
	if err != nil {
		return info, fmt.Errorf("git log for %s: %w", repoPath, err)
	}
	defer iter.Close()

	commit, err := iter.Next()
	if err != nil {
		// File not committed yet; contribution data stays empty.
		return info, nil
	}
	return g.fill(info, commit, authorOverride), nil
}

func (g *Git) fill(info Info, commit *object.Commit, authorOverride string) Info {
	info.UpdatedAt = commit.Author.When.UTC()
	if authorOverride == "" {
		info.Author = commit.Author.Name
	}
	return info
}

// normalizeRemoteURL converts ssh-style remotes to their https form and
// strips the ".git" suffix so blob URLs compose cleanly.
func normalizeRemoteURL(raw string) string {
	raw = strings.TrimSuffix(raw, ".git")
	if after, ok := strings.CutPrefix(raw, "git@"); ok {
		host, path, found := strings.Cut(after, ":")
		if found {
			return "https://" + host + "/" + path
		}
	}
	return raw
}
