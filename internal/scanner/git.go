package scanner

import (
	"fmt"
	"sort"
	"strings"

	"github.com/go-git/go-git/v5"
)

// maxChangedFiles caps the file list kept in GitMetadata.Changed
const maxChangedFiles = 5

// GitMetadata describes the git repository a vault lives in, if any
type GitMetadata struct {
	IsGitRepo     bool     `json:"is_git_repo"`
	RemoteURL     string   `json:"remote_url,omitempty"`
	CurrentBranch string   `json:"current_branch,omitempty"`
	ChangedCount  int      `json:"changed_count,omitempty"`
	Changed       []string `json:"changed,omitempty"`
}

// Summary renders the uncommitted state in one line
func (g GitMetadata) Summary() string {
	if !g.IsGitRepo {
		return "not a git repository"
	}
	if g.ChangedCount == 0 {
		return "clean"
	}
	s := strings.Join(g.Changed, "; ")
	if more := g.ChangedCount - len(g.Changed); more > 0 {
		s += fmt.Sprintf(" ... (%d more)", more)
	}
	return s
}

// CollectGitMetadata inspects the repository rooted at or above root.
// A directory outside any repository yields IsGitRepo=false and no error.
func CollectGitMetadata(root string) (GitMetadata, error) {
	repo, err := git.PlainOpenWithOptions(root, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		if err == git.ErrRepositoryNotExists {
			return GitMetadata{}, nil
		}
		return GitMetadata{}, fmt.Errorf("failed to open git repository: %w", err)
	}

	meta := GitMetadata{IsGitRepo: true}

	// Prefer origin, fall back to the first remote
	if remotes, err := repo.Remotes(); err == nil {
		for _, r := range remotes {
			if urls := r.Config().URLs; len(urls) > 0 {
				if r.Config().Name == "origin" {
					meta.RemoteURL = urls[0]
					break
				}
				if meta.RemoteURL == "" {
					meta.RemoteURL = urls[0]
				}
			}
		}
	}

	if head, err := repo.Head(); err == nil {
		meta.CurrentBranch = head.Name().Short()
	}

	wt, err := repo.Worktree()
	if err != nil {
		return meta, nil
	}
	status, err := wt.Status()
	if err != nil {
		return meta, nil
	}

	files := make([]string, 0, len(status))
	for file, st := range status {
		if st.Staging == git.Unmodified && st.Worktree == git.Unmodified {
			continue
		}
		files = append(files, fmt.Sprintf("%c%c %s", st.Staging, st.Worktree, file))
	}
	sort.Strings(files)
	meta.ChangedCount = len(files)
	if len(files) > maxChangedFiles {
		files = files[:maxChangedFiles]
	}
	if len(files) > 0 {
		meta.Changed = files
	}
	return meta, nil
}
