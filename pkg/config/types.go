// Package config defines dotsync's configuration model and the store
// that loads and persists it. The configuration is a TOML file holding
// named profiles, remote mirror settings, and optional profile
// detection rules.
package config

import (
	"github.com/arthur-debert/dotsync/pkg/errors"
)

// RemoteConfig holds the remote repository address and the token used
// for push authentication. Both must be non-empty before any remote
// mirroring or scheduled sync is attempted.
type RemoteConfig struct {
	GithubRepo  string `toml:"github_repo"`
	GithubToken string `toml:"github_token"`
}

// ProfileConfig is the per-profile policy: the tracked file mapping
// (home-relative path -> canonical source path), ignore patterns
// applied as substrings, and the deploy strategy flag.
type ProfileConfig struct {
	Files          map[string]string `toml:"files"`
	IgnorePatterns []string          `toml:"ignore_patterns"`
	UseSymlinks    bool              `toml:"use_symlinks"`
}

// ConditionKind identifies a detection condition variant.
type ConditionKind string

// The closed set of detection condition kinds.
const (
	ConditionHostname ConditionKind = "hostname"
	ConditionOS       ConditionKind = "os"
	ConditionEnvVar   ConditionKind = "env"
)

// DetectionCondition is one predicate of a detection rule. Value is
// compared by exact string equality against the host signal selected
// by Kind. Name is only meaningful for the env variant and holds the
// environment variable name.
type DetectionCondition struct {
	Kind  ConditionKind `toml:"kind"`
	Value string        `toml:"value"`
	Name  string        `toml:"name,omitempty"`
}

// DetectionRule maps a profile name to the conditions that must ALL
// hold for the rule to match.
type DetectionRule struct {
	Profile    string               `toml:"profile"`
	Conditions []DetectionCondition `toml:"conditions"`
}

// ProfileDetectionConfig is the ordered rule list evaluated when no
// profile is given explicitly. First matching rule wins.
type ProfileDetectionConfig struct {
	Rules []DetectionRule `toml:"rules"`
}

// Config is the aggregate on-disk configuration.
type Config struct {
	Profiles         map[string]ProfileConfig `toml:"profiles"`
	Remote           RemoteConfig             `toml:"remote"`
	SyncInterval     int                      `toml:"sync_interval"`
	ProfileDetection *ProfileDetectionConfig  `toml:"profile_detection,omitempty"`
}

// DefaultProfileName is the profile used when none is configured,
// given, or detected.
const DefaultProfileName = "default"

// Default returns the configuration written on first run: a single
// empty default profile, git bookkeeping files ignored, copy mode.
func Default() *Config {
	return &Config{
		Profiles: map[string]ProfileConfig{
			DefaultProfileName: {
				Files:          make(map[string]string),
				IgnorePatterns: []string{".git", ".gitignore"},
				UseSymlinks:    false,
			},
		},
		Remote:       RemoteConfig{},
		SyncInterval: 300,
	}
}

// Validate checks the structural invariants that must hold for any
// loaded configuration. Remote settings are validated separately by
// ValidateRemote since they are only required for mirroring.
func (c *Config) Validate() error {
	if c.SyncInterval <= 0 {
		return errors.New(errors.ErrConfigInvalid, "sync interval must be greater than 0")
	}
	if len(c.Profiles) == 0 {
		return errors.New(errors.ErrConfigInvalid, "configuration defines no profiles")
	}
	return nil
}

// ValidateRemote checks that the remote settings are usable. Required
// before any remote-mirror or scheduled-sync operation.
func (c *Config) ValidateRemote() error {
	if c.Remote.GithubRepo == "" {
		return errors.New(errors.ErrConfigInvalid, "remote repository URL is missing in the configuration")
	}
	if c.Remote.GithubToken == "" {
		return errors.New(errors.ErrConfigInvalid, "remote token is missing in the configuration")
	}
	return nil
}

// Profile returns the named profile's configuration.
func (c *Config) Profile(name string) (*ProfileConfig, error) {
	pc, ok := c.Profiles[name]
	if !ok {
		return nil, errors.Newf(errors.ErrProfileNotFound, "profile %q not found", name)
	}
	return &pc, nil
}

// TrackedFiles returns the tracked set across ALL profiles as a
// home-relative path -> canonical source path mapping. The remote
// mirror operates on this union, not on a single profile.
func (c *Config) TrackedFiles() map[string]string {
	all := make(map[string]string)
	for _, pc := range c.Profiles {
		for rel, canonical := range pc.Files {
			all[rel] = canonical
		}
	}
	return all
}
