// Copyright 2026 The Typeshift Authors
// SPDX-License-Identifier: MIT

// Package repository wraps working-copy and changeset operations behind the
// narrow surface the conversion loop needs: staging new files, reverting
// everything, running the formatter, and committing or submitting the final
// changeset. Git access goes through go-git; submission opens a GitHub pull
// request when a token is available.
package repository

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	githttp "github.com/go-git/go-git/v5/plumbing/transport/http"
	"github.com/google/go-github/v68/github"
	"github.com/google/uuid"

	"github.com/davetashner/typeshift/internal/testable"
)

// formatTimeout bounds one formatter invocation.
const formatTimeout = 10 * time.Minute

var sshRemotePattern = regexp.MustCompile(`^git@github\.com:([^/]+)/(.+?)(?:\.git)?$`)

// Repository is the production version-control collaborator.
type Repository struct {
	repo      *git.Repository
	worktree  *git.Worktree
	root      string
	exec      testable.CommandExecutor
	formatter []string

	// prAPI is swapped by tests to avoid real GitHub calls.
	prAPI pullRequestAPI
}

// pullRequestAPI abstracts the one GitHub call submission makes.
type pullRequestAPI interface {
	CreatePullRequest(ctx context.Context, owner, repo string, pr *github.NewPullRequest) (*github.PullRequest, error)
}

type realPullRequestAPI struct {
	client *github.Client
}

func (a *realPullRequestAPI) CreatePullRequest(ctx context.Context, owner, repo string, pr *github.NewPullRequest) (*github.PullRequest, error) {
	created, _, err := a.client.PullRequests.Create(ctx, owner, repo, pr)
	return created, err
}

// Open locates the git repository enclosing dir. The formatter command, when
// non-empty, is what Format runs; it must print changed files to stdout.
func Open(dir string, execr testable.CommandExecutor, formatter []string) (*Repository, error) {
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("opening repository at %s: %w", dir, err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("resolving worktree: %w", err)
	}
	return &Repository{
		repo:      repo,
		worktree:  wt,
		root:      wt.Filesystem.Root(),
		exec:      execr,
		formatter: formatter,
	}, nil
}

// Root returns the worktree root directory.
func (r *Repository) Root() string { return r.root }

// AddPaths stages the given files, registering newly created ones with
// version control.
func (r *Repository) AddPaths(paths []string) error {
	for _, p := range paths {
		rel, err := r.relToRoot(p)
		if err != nil {
			return err
		}
		if _, err := r.worktree.Add(rel); err != nil {
			return fmt.Errorf("staging %s: %w", p, err)
		}
	}
	return nil
}

// RevertAll discards every uncommitted change in the working copy. With
// removeUntracked set, newly created untracked files are deleted too.
func (r *Repository) RevertAll(removeUntracked bool) error {
	if err := r.worktree.Reset(&git.ResetOptions{Mode: git.HardReset}); err != nil {
		return fmt.Errorf("reverting working copy: %w", err)
	}
	if removeUntracked {
		if err := r.worktree.Clean(&git.CleanOptions{Dir: true}); err != nil {
			return fmt.Errorf("removing untracked files: %w", err)
		}
	}
	return nil
}

// Format runs the configured formatter over the working copy and reports
// whether it changed anything. Formatters are expected to name the files
// they rewrote on stdout; no output means no changes. Without a configured
// formatter this is a no-op.
func (r *Repository) Format(ctx context.Context) (bool, error) {
	if len(r.formatter) == 0 {
		return false, nil
	}
	ctx, cancel := context.WithTimeout(ctx, formatTimeout)
	defer cancel()

	cmd := r.exec.CommandContext(ctx, r.formatter[0], r.formatter[1:]...)
	cmd.Dir = r.root
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return false, fmt.Errorf("%s: %w: %s", strings.Join(r.formatter, " "), err, stderr.String())
	}
	return strings.TrimSpace(stdout.String()) != "", nil
}

// SubmitChanges finalizes the run: commits the working copy when commit is
// set, and when submit is set pushes a branch and opens a pull request with
// the given title and summary. Submission degrades to commit-only with a
// warning when no GitHub token is available.
func (r *Repository) SubmitChanges(ctx context.Context, commit, submit bool, title, summary string) error {
	if commit {
		message := title + "\n\n" + summary
		if _, err := r.worktree.Commit(message, &git.CommitOptions{
			All:    true,
			Author: signature(),
		}); err != nil {
			return fmt.Errorf("committing changes: %w", err)
		}
		slog.Info("Committed changes", "title", title)
	}
	if !submit {
		return nil
	}

	token := os.Getenv("GITHUB_TOKEN")
	if token == "" {
		slog.Warn("GITHUB_TOKEN not set; leaving changes as a local commit")
		return nil
	}
	return r.submitPullRequest(ctx, token, title, summary)
}

func (r *Repository) submitPullRequest(ctx context.Context, token, title, summary string) error {
	branch := "typeshift/" + uuid.NewString()[:8]

	head, err := r.repo.Head()
	if err != nil {
		return fmt.Errorf("resolving HEAD: %w", err)
	}
	ref := plumbing.NewHashReference(plumbing.NewBranchReferenceName(branch), head.Hash())
	if err := r.repo.Storer.SetReference(ref); err != nil {
		return fmt.Errorf("creating branch %s: %w", branch, err)
	}

	refSpec := config.RefSpec(fmt.Sprintf("refs/heads/%s:refs/heads/%s", branch, branch))
	err = r.repo.PushContext(ctx, &git.PushOptions{
		RemoteName: "origin",
		RefSpecs:   []config.RefSpec{refSpec},
		Auth:       &githttp.BasicAuth{Username: "x-access-token", Password: token},
	})
	if err != nil {
		return fmt.Errorf("pushing %s: %w", branch, err)
	}

	owner, repoName, err := r.gitHubRemote()
	if err != nil {
		return err
	}
	api := r.prAPI
	if api == nil {
		api = &realPullRequestAPI{client: github.NewClient(nil).WithAuthToken(token)}
	}
	pr, err := api.CreatePullRequest(ctx, owner, repoName, &github.NewPullRequest{
		Title: github.Ptr(title),
		Body:  github.Ptr(summary),
		Head:  github.Ptr(branch),
		Base:  github.Ptr(r.defaultBase()),
	})
	if err != nil {
		return fmt.Errorf("opening pull request: %w", err)
	}
	slog.Info("Opened pull request", "url", pr.GetHTMLURL())
	return nil
}

// defaultBase picks the base branch for submission: whatever HEAD's branch
// tracks upstream, falling back to main.
func (r *Repository) defaultBase() string {
	head, err := r.repo.Head()
	if err != nil || !head.Name().IsBranch() {
		return "main"
	}
	branch, err := r.repo.Branch(head.Name().Short())
	if err != nil || branch.Merge == "" {
		return "main"
	}
	return branch.Merge.Short()
}

// gitHubRemote extracts owner and repo from the origin remote URL.
func (r *Repository) gitHubRemote() (owner, repo string, err error) {
	remotes, err := r.repo.Remotes()
	if err != nil {
		return "", "", fmt.Errorf("listing remotes: %w", err)
	}
	var originURLs []string
	for _, remote := range remotes {
		if remote.Config().Name == "origin" {
			originURLs = remote.Config().URLs
			break
		}
	}
	if len(originURLs) == 0 {
		return "", "", fmt.Errorf("no origin remote found")
	}
	return parseGitHubURL(originURLs[0])
}

func parseGitHubURL(rawURL string) (owner, repo string, err error) {
	// SSH format: git@github.com:owner/repo.git
	if m := sshRemotePattern.FindStringSubmatch(rawURL); m != nil {
		return m[1], m[2], nil
	}

	// HTTPS format: https://github.com/owner/repo.git
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", "", fmt.Errorf("parsing URL %q: %w", rawURL, err)
	}
	if parsed.Host != "github.com" {
		return "", "", fmt.Errorf("remote %q is not a GitHub URL", rawURL)
	}
	parts := strings.Split(strings.Trim(parsed.Path, "/"), "/")
	if len(parts) < 2 {
		return "", "", fmt.Errorf("cannot parse owner/repo from %q", rawURL)
	}
	return parts[0], strings.TrimSuffix(parts[1], ".git"), nil
}

func (r *Repository) relToRoot(p string) (string, error) {
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", fmt.Errorf("resolving %s: %w", p, err)
	}
	rel, err := filepath.Rel(r.root, abs)
	if err != nil {
		return "", fmt.Errorf("relativizing %s against %s: %w", p, r.root, err)
	}
	return filepath.ToSlash(rel), nil
}

func signature() *object.Signature {
	return &object.Signature{
		Name:  "typeshift",
		Email: "typeshift@localhost",
		When:  time.Now(),
	}
}
