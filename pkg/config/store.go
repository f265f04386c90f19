package config

import (
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"

	"github.com/arthur-debert/dotsync/pkg/errors"
	"github.com/arthur-debert/dotsync/pkg/logging"
)

// Store loads and persists the configuration at a fixed path. It is an
// explicit object passed to components that need configuration access;
// there is no ambient global config.
type Store struct {
	path string
}

// NewStore creates a store for the given config file path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the config file location.
func (s *Store) Path() string {
	return s.path
}

// Load reads and validates the configuration. If no config file exists
// yet, the default configuration is written to disk and returned.
func (s *Store) Load() (*Config, error) {
	logger := logging.GetLogger("config")

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg := Default()
			if err := s.Save(cfg); err != nil {
				return nil, err
			}
			logger.Info().Str("path", s.path).Msg("Created default configuration")
			return cfg, nil
		}
		return nil, errors.Wrapf(err, errors.ErrConfigLoad, "failed to read config file %s", s.path)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrapf(err, errors.ErrConfigParse, "failed to parse config file %s", s.path)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Save serializes the configuration to the store path, creating parent
// directories as needed. The write goes through a temp file and rename
// so a crash never leaves a half-written config behind.
func (s *Store) Save(cfg *Config) error {
	data, err := toml.Marshal(cfg)
	if err != nil {
		return errors.Wrap(err, errors.ErrInternal, "failed to serialize config")
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.Wrapf(err, errors.ErrIOFailure, "failed to create config directory %s", dir)
	}

	tmp, err := os.CreateTemp(dir, ".config-*.toml")
	if err != nil {
		return errors.Wrap(err, errors.ErrIOFailure, "failed to create temp config file")
	}
	tmpPath := tmp.Name()
	defer func() {
		_ = os.Remove(tmpPath)
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return errors.Wrap(err, errors.ErrIOFailure, "failed to write config")
	}
	if err := tmp.Chmod(0600); err != nil {
		_ = tmp.Close()
		return errors.Wrap(err, errors.ErrIOFailure, "failed to set config permissions")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, errors.ErrIOFailure, "failed to close config file")
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		return errors.Wrapf(err, errors.ErrIOFailure, "failed to write config file %s", s.path)
	}

	return nil
}
