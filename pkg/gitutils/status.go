package gitutils

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

var (
	plainOpen = func(dir string) (*git.Repository, error) {
		return git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	}
	repoHead = func(repo *git.Repository) (*plumbing.Reference, error) {
		return repo.Head()
	}
	worktreeStatus = func(wt *git.Worktree) (git.Status, error) {
		return wt.Status()
	}
)

// Status describes a directory's repository state: the checked-out
// branch and a per-entry change marker for entries directly inside it.
type Status struct {
	Branch string
	ByName map[string]rune
}

// Marker returns the change rune for a direct child entry, or 0.
func (s *Status) Marker(name string) rune {
	if s == nil {
		return 0
	}
	return s.ByName[name]
}

// Summary renders the branch and change count for the status bar.
func (s *Status) Summary() string {
	if s == nil {
		return ""
	}
	if len(s.ByName) == 0 {
		return fmt.Sprintf("[gray]%s ±0[-]", s.Branch)
	}
	return fmt.Sprintf("[gray]%s[-] [yellow]±%d[-]", s.Branch, len(s.ByName))
}

const (
	MarkerModified  = 'M'
	MarkerAdded     = 'A'
	MarkerUntracked = '?'
)

// Scan reports the git status of dir, or (nil, nil) when dir is not
// inside a work tree. It walks the whole worktree status once and
// folds nested changes up to dir's direct children, so a dirty
// subdirectory is marked like a dirty file.
func Scan(ctx context.Context, dir string) (*Status, error) {
	repo, err := plainOpen(dir)
	if err != nil {
		if err == git.ErrRepositoryNotExists {
			return nil, nil
		}
		return nil, err
	}

	res := &Status{ByName: map[string]rune{}}

	head, err := repoHead(repo)
	switch {
	case err == plumbing.ErrReferenceNotFound:
		res.Branch = "(no commits)"
	case err != nil:
		return nil, err
	case head.Name().IsBranch():
		res.Branch = head.Name().Short()
	default:
		res.Branch = head.Hash().String()[:7]
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	wt, err := repo.Worktree()
	if err != nil {
		return res, nil
	}
	status, err := worktreeStatus(wt)
	if err != nil {
		return res, nil
	}
	if status.IsClean() {
		return res, nil
	}

	root := wt.Filesystem.Root()
	rel, err := filepath.Rel(root, dir)
	if err != nil {
		return res, nil
	}
	prefix := filepath.ToSlash(rel)
	if prefix == "." {
		prefix = ""
	} else {
		prefix += "/"
	}

	for path, fileStatus := range status {
		if fileStatus.Worktree == git.Unmodified && fileStatus.Staging == git.Unmodified {
			continue
		}
		if !strings.HasPrefix(path, prefix) {
			continue
		}
		name := strings.SplitN(path[len(prefix):], "/", 2)[0]
		if name == "" {
			continue
		}
		marker := markerFor(fileStatus)
		// Modified dominates untracked when a directory holds both.
		if existing, ok := res.ByName[name]; !ok || rank(marker) > rank(existing) {
			res.ByName[name] = marker
		}
	}
	return res, nil
}

func markerFor(fs *git.FileStatus) rune {
	switch {
	case fs.Worktree == git.Untracked:
		return MarkerUntracked
	case fs.Staging == git.Added:
		return MarkerAdded
	default:
		return MarkerModified
	}
}

func rank(marker rune) int {
	switch marker {
	case MarkerModified:
		return 3
	case MarkerAdded:
		return 2
	default:
		return 1
	}
}
