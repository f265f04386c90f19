package sync

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arthur-debert/dotsync/pkg/config"
	"github.com/arthur-debert/dotsync/pkg/errors"
	"github.com/arthur-debert/dotsync/pkg/paths"
)

type fakeMirror struct {
	tracked map[string]string
	calls   int
	err     error
}

func (m *fakeMirror) Sync(tracked map[string]string) error {
	m.calls++
	m.tracked = tracked
	return m.err
}

type fixture struct {
	cfg    *config.Config
	pth    *paths.Paths
	mirror *fakeMirror
	diff   *bytes.Buffer
	home   string
	srcDir string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv(paths.EnvDotsyncConfigDir, filepath.Join(home, ".config", "dotsync"))

	pth, err := paths.New()
	require.NoError(t, err)

	srcDir := filepath.Join(home, "dotfiles")
	require.NoError(t, os.MkdirAll(srcDir, 0755))

	cfg := config.Default()
	cfg.Remote = config.RemoteConfig{GithubRepo: "https://example.com/u/dotfiles.git", GithubToken: "tok"}

	return &fixture{
		cfg:    cfg,
		pth:    pth,
		mirror: &fakeMirror{},
		diff:   &bytes.Buffer{},
		home:   home,
		srcDir: srcDir,
	}
}

func (f *fixture) track(t *testing.T, relative, content string) string {
	t.Helper()
	source := filepath.Join(f.srcDir, relative)
	require.NoError(t, os.MkdirAll(filepath.Dir(source), 0755))
	require.NoError(t, os.WriteFile(source, []byte(content), 0644))

	pc := f.cfg.Profiles[config.DefaultProfileName]
	if pc.Files == nil {
		pc.Files = make(map[string]string)
	}
	pc.Files[relative] = source
	f.cfg.Profiles[config.DefaultProfileName] = pc
	return source
}

func (f *fixture) engine() *Engine {
	return NewEngine(f.cfg, f.pth, Options{DiffOutput: f.diff, Mirror: f.mirror})
}

func TestRun_FreshDestination(t *testing.T) {
	f := newFixture(t)
	f.track(t, ".vimrc", "set nu\n")

	engine := f.engine()
	report, err := engine.Run("default")
	require.NoError(t, err)

	dest := filepath.Join(f.home, ".vimrc")
	got, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "set nu\n", string(got))

	// No pre-existing destination means no backup.
	_, err = os.Stat(paths.BackupPath(dest))
	assert.True(t, os.IsNotExist(err))

	require.Len(t, report.Files, 1)
	assert.Equal(t, StatusSynced, report.Files[0].Status)
	assert.False(t, engine.State().LastSynced.IsZero())
	assert.Equal(t, "default", engine.State().CurrentProfile)
}

func TestRun_PreExistingDestinationIsBackedUp(t *testing.T) {
	f := newFixture(t)
	f.track(t, ".vimrc", "set nu\n")
	dest := filepath.Join(f.home, ".vimrc")
	require.NoError(t, os.WriteFile(dest, []byte("old\n"), 0644))

	_, err := f.engine().Run("default")
	require.NoError(t, err)

	// The snapshot sits next to the dotfile under its own name.
	backedUp, err := os.ReadFile(filepath.Join(f.home, ".vimrc.bak"))
	require.NoError(t, err)
	assert.Equal(t, "old\n", string(backedUp))

	got, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "set nu\n", string(got))
}

func TestRun_EachDotfileGetsItsOwnBackup(t *testing.T) {
	f := newFixture(t)
	f.track(t, ".vimrc", "set nu\n")
	f.track(t, ".bashrc", "export PS1\n")
	require.NoError(t, os.WriteFile(filepath.Join(f.home, ".vimrc"), []byte("old vim\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(f.home, ".bashrc"), []byte("old bash\n"), 0644))

	_, err := f.engine().Run("default")
	require.NoError(t, err)

	vimBackup, err := os.ReadFile(filepath.Join(f.home, ".vimrc.bak"))
	require.NoError(t, err)
	assert.Equal(t, "old vim\n", string(vimBackup))

	bashBackup, err := os.ReadFile(filepath.Join(f.home, ".bashrc.bak"))
	require.NoError(t, err)
	assert.Equal(t, "old bash\n", string(bashBackup))
}

func TestRun_Idempotence(t *testing.T) {
	f := newFixture(t)
	f.track(t, ".vimrc", "set nu\n")
	dest := filepath.Join(f.home, ".vimrc")

	engine := f.engine()
	_, err := engine.Run("default")
	require.NoError(t, err)
	afterFirst, err := os.ReadFile(dest)
	require.NoError(t, err)

	_, err = engine.Run("default")
	require.NoError(t, err)
	afterSecond, err := os.ReadFile(dest)
	require.NoError(t, err)

	assert.Equal(t, afterFirst, afterSecond)

	// Pass 2 backs up pass 1's output, not pass 1's backup.
	backedUp, err := os.ReadFile(paths.BackupPath(dest))
	require.NoError(t, err)
	assert.Equal(t, afterFirst, backedUp)
}

func TestRun_MissingSourceIsWarningNotError(t *testing.T) {
	f := newFixture(t)
	f.track(t, ".vimrc", "set nu\n")
	pc := f.cfg.Profiles[config.DefaultProfileName]
	pc.Files[".gone"] = filepath.Join(f.srcDir, "does-not-exist")
	f.cfg.Profiles[config.DefaultProfileName] = pc

	report, err := f.engine().Run("default")
	require.NoError(t, err)

	statuses := map[string]FileStatus{}
	for _, fr := range report.Files {
		statuses[fr.Relative] = fr.Status
	}
	assert.Equal(t, StatusMissing, statuses[".gone"])
	assert.Equal(t, StatusSynced, statuses[".vimrc"])
	assert.Equal(t, 1, f.mirror.calls)
}

func TestRun_IgnoredFileIsSkipped(t *testing.T) {
	f := newFixture(t)
	f.track(t, ".npmrc-secret", "token\n")
	pc := f.cfg.Profiles[config.DefaultProfileName]
	pc.IgnorePatterns = append(pc.IgnorePatterns, "secret")
	f.cfg.Profiles[config.DefaultProfileName] = pc

	report, err := f.engine().Run("default")
	require.NoError(t, err)

	require.Len(t, report.Files, 1)
	assert.Equal(t, StatusIgnored, report.Files[0].Status)
	_, statErr := os.Stat(filepath.Join(f.home, ".npmrc-secret"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestRun_FailedFileDoesNotBlockOthers(t *testing.T) {
	f := newFixture(t)
	f.track(t, ".zz-good", "fine\n")

	// A directory source in copy mode fails at the byte-copy step.
	badSource := filepath.Join(f.srcDir, "adir")
	require.NoError(t, os.MkdirAll(badSource, 0755))
	pc := f.cfg.Profiles[config.DefaultProfileName]
	pc.Files[".aa-bad"] = badSource
	f.cfg.Profiles[config.DefaultProfileName] = pc

	report, err := f.engine().Run("default")
	require.NoError(t, err)

	statuses := map[string]FileStatus{}
	for _, fr := range report.Files {
		statuses[fr.Relative] = fr.Status
	}
	assert.Equal(t, StatusFailed, statuses[".aa-bad"])
	// .zz-good sorts after .aa-bad, so it ran after the failure.
	assert.Equal(t, StatusSynced, statuses[".zz-good"])
	assert.Equal(t, 1, f.mirror.calls)
}

func TestRun_SymlinkProfile(t *testing.T) {
	f := newFixture(t)
	source := f.track(t, ".gitconfig", "[user]\n")
	pc := f.cfg.Profiles[config.DefaultProfileName]
	pc.UseSymlinks = true
	f.cfg.Profiles[config.DefaultProfileName] = pc

	_, err := f.engine().Run("default")
	require.NoError(t, err)

	target, err := os.Readlink(filepath.Join(f.home, ".gitconfig"))
	require.NoError(t, err)
	assert.Equal(t, source, target)
}

func TestRun_ProfileNotFound(t *testing.T) {
	f := newFixture(t)
	report, err := f.engine().Run("nope")
	assert.Nil(t, report)
	assert.True(t, errors.IsErrorCode(err, errors.ErrProfileNotFound))
}

func TestRun_UnconfiguredRemoteAbortsAfterDeploy(t *testing.T) {
	f := newFixture(t)
	f.track(t, ".vimrc", "set nu\n")
	f.cfg.Remote = config.RemoteConfig{}

	engine := f.engine()
	report, err := engine.Run("default")

	// Files were deployed before the remote step failed.
	require.NotNil(t, report)
	assert.Equal(t, StatusSynced, report.Files[0].Status)
	assert.True(t, errors.IsErrorCode(err, errors.ErrConfigInvalid))
	assert.Equal(t, 0, f.mirror.calls)
	assert.True(t, engine.State().LastSynced.IsZero())
}

func TestRun_MirrorFailureAbortsPass(t *testing.T) {
	f := newFixture(t)
	f.track(t, ".vimrc", "set nu\n")
	f.mirror.err = errors.New(errors.ErrRemoteFailure, "push failed")

	engine := f.engine()
	_, err := engine.Run("default")
	assert.True(t, errors.IsErrorCode(err, errors.ErrRemoteFailure))
	assert.True(t, engine.State().LastSynced.IsZero())
}

func TestRun_MirrorReceivesAllProfilesTrackedFiles(t *testing.T) {
	f := newFixture(t)
	f.track(t, ".vimrc", "set nu\n")
	f.cfg.Profiles["work"] = config.ProfileConfig{
		Files: map[string]string{".gitconfig": filepath.Join(f.srcDir, ".gitconfig")},
	}

	_, err := f.engine().Run("default")
	require.NoError(t, err)

	assert.Contains(t, f.mirror.tracked, ".vimrc")
	assert.Contains(t, f.mirror.tracked, ".gitconfig")
}

func TestRun_DiffReflectsPreSyncState(t *testing.T) {
	f := newFixture(t)
	f.track(t, ".vimrc", "set nu\n")
	dest := filepath.Join(f.home, ".vimrc")
	require.NoError(t, os.WriteFile(dest, []byte("old\n"), 0644))

	_, err := f.engine().Run("default")
	require.NoError(t, err)

	out := f.diff.String()
	assert.Contains(t, out, "Diff for .vimrc:")
	assert.Contains(t, out, "-old")
	assert.Contains(t, out, "+set nu")
}
