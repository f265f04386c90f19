// Package mirror maintains a local git working copy of every tracked
// file and pushes it to the configured remote. The working copy lives
// at a single fixed location, independent of profiles, so one linear
// history accumulates across all of them.
package mirror

import (
	stderrors "errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	git "github.com/go-git/go-git/v5"
	gitconfig "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/transport"
	githttp "github.com/go-git/go-git/v5/plumbing/transport/http"
	"github.com/rs/zerolog"

	"github.com/arthur-debert/dotsync/pkg/config"
	"github.com/arthur-debert/dotsync/pkg/errors"
	"github.com/arthur-debert/dotsync/pkg/logging"
)

const (
	// CommitMessage is the fixed message used for every mirror commit.
	CommitMessage = "Sync dotfiles"

	// BranchRefSpec pushes the fixed mirror branch.
	BranchRefSpec = "refs/heads/master:refs/heads/master"

	// tokenUser is the username GitHub expects for token-authenticated
	// HTTPS pushes.
	tokenUser = "x-access-token"

	committerName  = "dotsync"
	committerEmail = "dotsync@localhost"
)

// Mirror synchronizes the tracked-file set into a git working copy and
// pushes it to the remote.
type Mirror struct {
	workdir string
	remote  config.RemoteConfig
	logger  zerolog.Logger
}

// New creates a mirror rooted at workdir for the given remote settings.
func New(workdir string, remote config.RemoteConfig) *Mirror {
	return &Mirror{
		workdir: workdir,
		remote:  remote,
		logger:  logging.GetLogger("mirror"),
	}
}

// Sync copies every tracked file (relative path -> canonical source,
// across all profiles) into the working copy, stages everything, writes
// a single commit and pushes it. Any step failing aborts the mirror
// operation; a commit that was written but not pushed is left in place.
func (m *Mirror) Sync(tracked map[string]string) error {
	repo, err := m.ensureRepo()
	if err != nil {
		return err
	}

	if err := m.copyTracked(tracked); err != nil {
		return err
	}

	worktree, err := repo.Worktree()
	if err != nil {
		return errors.Wrap(err, errors.ErrRemoteFailure, "failed to open mirror worktree")
	}

	if err := worktree.AddWithOptions(&git.AddOptions{All: true}); err != nil {
		return errors.Wrap(err, errors.ErrRemoteFailure, "failed to stage mirror changes")
	}

	_, err = worktree.Commit(CommitMessage, &git.CommitOptions{
		Author: &object.Signature{
			Name:  committerName,
			Email: committerEmail,
			When:  time.Now(),
		},
	})
	if stderrors.Is(err, git.ErrEmptyCommit) {
		m.logger.Info().Msg("Mirror already up to date, nothing to commit")
		return nil
	}
	if err != nil {
		return errors.Wrap(err, errors.ErrRemoteFailure, "failed to commit mirror changes")
	}

	err = repo.Push(&git.PushOptions{
		RemoteName: git.DefaultRemoteName,
		RefSpecs:   []gitconfig.RefSpec{BranchRefSpec},
		Auth:       m.auth(),
	})
	if stderrors.Is(err, git.NoErrAlreadyUpToDate) {
		m.logger.Info().Msg("Remote already up to date")
		return nil
	}
	if err != nil {
		return errors.Wrap(err, errors.ErrRemoteFailure, "failed to push mirror")
	}

	m.logger.Info().Str("remote", m.remote.GithubRepo).Msg("Synced with remote repository")
	return nil
}

// ensureRepo opens the working copy, cloning it on first use. A brand
// new remote with no commits cannot be cloned, so that case falls back
// to initializing a fresh repository wired to the remote; the first
// mirror commit then has no parent.
func (m *Mirror) ensureRepo() (*git.Repository, error) {
	repo, err := git.PlainOpen(m.workdir)
	if err == nil {
		return repo, nil
	}
	if !stderrors.Is(err, git.ErrRepositoryNotExists) {
		return nil, errors.Wrapf(err, errors.ErrRemoteFailure, "failed to open mirror repository at %s", m.workdir)
	}

	repo, err = git.PlainClone(m.workdir, false, &git.CloneOptions{
		URL:  m.remote.GithubRepo,
		Auth: m.auth(),
	})
	if err == nil {
		m.logger.Info().Str("path", m.workdir).Msg("Cloned mirror repository")
		return repo, nil
	}
	if !stderrors.Is(err, transport.ErrEmptyRemoteRepository) {
		return nil, errors.Wrapf(err, errors.ErrRemoteFailure, "failed to clone %s", m.remote.GithubRepo)
	}

	return m.initRepo()
}

func (m *Mirror) initRepo() (*git.Repository, error) {
	// The failed clone attempt may have left partial state behind.
	if err := os.RemoveAll(m.workdir); err != nil {
		return nil, errors.Wrapf(err, errors.ErrRemoteFailure, "failed to clear mirror directory %s", m.workdir)
	}

	repo, err := git.PlainInit(m.workdir, false)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrRemoteFailure, "failed to initialize mirror repository at %s", m.workdir)
	}

	_, err = repo.CreateRemote(&gitconfig.RemoteConfig{
		Name: git.DefaultRemoteName,
		URLs: []string{m.remote.GithubRepo},
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrRemoteFailure, "failed to configure mirror remote")
	}

	m.logger.Info().Str("path", m.workdir).Msg("Initialized mirror repository for empty remote")
	return repo, nil
}

// copyTracked copies every existing tracked source into the working
// copy at its home-relative path. Missing sources are skipped; they are
// warned about during deploy already.
func (m *Mirror) copyTracked(tracked map[string]string) error {
	for relative, canonical := range tracked {
		if _, err := os.Stat(canonical); err != nil {
			continue
		}

		dest := filepath.Join(m.workdir, relative)
		if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
			return errors.Wrapf(err, errors.ErrRemoteFailure, "failed to create mirror directories for %s", relative)
		}
		if err := copyFile(canonical, dest); err != nil {
			return errors.Wrapf(err, errors.ErrRemoteFailure, "failed to copy %s into mirror", relative)
		}
	}
	return nil
}

// auth returns token credentials for http(s) remotes. Local and ssh
// remotes get no injected credentials.
func (m *Mirror) auth() transport.AuthMethod {
	if strings.HasPrefix(m.remote.GithubRepo, "http") {
		return &githttp.BasicAuth{
			Username: tokenUser,
			Password: m.remote.GithubToken,
		}
	}
	return nil
}

// copyFile copies src into the working copy preserving its permission
// bits, so executables keep their mode in the mirrored history.
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() {
		_ = in.Close()
	}()

	info, err := in.Stat()
	if err != nil {
		return err
	}

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}

	// O_CREATE leaves a pre-existing file's old mode in place.
	return os.Chmod(dst, info.Mode().Perm())
}
