// Package config loads pzmod's own settings.
//
// Settings come from, in increasing priority: built-in defaults, the TOML
// file at $XDG_CONFIG_HOME/pzmod/config.toml, PZMOD_* environment variables
// and command-line flags.
package config

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/matzehuels/pzmod/pkg/errors"
)

const (
	// AppName names the config directory.
	AppName = "pzmod"
	// FileName is the settings file inside the config directory.
	FileName = "config.toml"
	// EnvPrefix prefixes environment overrides, e.g. PZMOD_API_KEY.
	EnvPrefix = "PZMOD"
)

// Setting keys.
const (
	KeyAPIKey         = "api_key"
	KeyBackup         = "backup"
	KeyBackupDir      = "backup_dir"
	KeyLogLevel       = "log_level"
	KeyRequestTimeout = "request_timeout"
)

// Config holds the effective settings.
type Config struct {
	APIKey         string        `mapstructure:"api_key"`
	Backup         bool          `mapstructure:"backup"`
	BackupDir      string        `mapstructure:"backup_dir"`
	LogLevel       string        `mapstructure:"log_level"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Backup:         true,
		LogLevel:       "info",
		RequestTimeout: 10 * time.Second,
	}
}

// LoadOptions controls Load.
type LoadOptions struct {
	// Path overrides the settings file. Empty means [Path].
	Path string
	// Flags, when set, contribute the api-key, no-backup, backup-dir and
	// verbose flags.
	Flags *pflag.FlagSet
}

// Path returns the default settings file location.
func Path() (string, error) {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", errors.Wrap(errors.ErrCodeInternal, err, "failed to get home directory")
		}
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, AppName, FileName), nil
}

// Load resolves the effective settings. A missing settings file is not an
// error.
func Load(opts LoadOptions) (*Config, error) {
	path, err := resolvePath(opts.Path)
	if err != nil {
		return nil, err
	}

	v := viper.New()
	defaults := Default()
	v.SetDefault(KeyAPIKey, defaults.APIKey)
	v.SetDefault(KeyBackup, defaults.Backup)
	v.SetDefault(KeyBackupDir, defaults.BackupDir)
	v.SetDefault(KeyLogLevel, defaults.LogLevel)
	v.SetDefault(KeyRequestTimeout, defaults.RequestTimeout)

	v.SetConfigFile(path)
	v.SetConfigType("toml")
	if _, err := os.Stat(path); err == nil {
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "failed to read %s", path)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if fs := opts.Flags; fs != nil {
		bind := map[string]string{KeyAPIKey: "api-key", KeyBackupDir: "backup-dir"}
		for key, name := range bind {
			if f := fs.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, errors.Wrap(errors.ErrCodeInternal, err, "bind flag %s", name)
				}
			}
		}
		if noBackup, err := fs.GetBool("no-backup"); err == nil && noBackup {
			v.Set(KeyBackup, false)
		}
		if verbose, err := fs.GetBool("verbose"); err == nil && verbose {
			v.Set(KeyLogLevel, "debug")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "failed to parse settings")
	}
	return &cfg, nil
}

func resolvePath(path string) (string, error) {
	if path != "" {
		return path, nil
	}
	return Path()
}

// file is the on-disk shape of the settings file.
type file struct {
	APIKey         string `toml:"api_key,omitempty"`
	Backup         *bool  `toml:"backup,omitempty"`
	BackupDir      string `toml:"backup_dir,omitempty"`
	LogLevel       string `toml:"log_level,omitempty"`
	RequestTimeout string `toml:"request_timeout,omitempty"`
}

// SetAPIKey stores key in the settings file at path (default [Path]),
// keeping every other entry as written. An empty key removes it. The file is
// replaced atomically and always ends up readable by the owner only.
func SetAPIKey(path, key string) error {
	path, err := resolvePath(path)
	if err != nil {
		return err
	}

	settings := map[string]any{}
	if _, err := toml.DecodeFile(path, &settings); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "failed to read %s", path)
	}
	if key == "" {
		delete(settings, KeyAPIKey)
	} else {
		settings[KeyAPIKey] = key
	}

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(settings); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "encode settings")
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "create %s", dir)
	}
	return writePrivate(path, buf.Bytes())
}

// writePrivate replaces path with data through a temp file in the same
// directory.
func writePrivate(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp*")
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "write %s", path)
	}
	name := tmp.Name()
	defer os.Remove(name)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return errors.Wrap(errors.ErrCodeInternal, err, "write %s", path)
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return errors.Wrap(errors.ErrCodeInternal, err, "write %s", path)
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "write %s", path)
	}
	if err := os.Rename(name, path); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "write %s", path)
	}
	return nil
}

// Encode writes c as TOML. The API key is masked unless reveal is set.
func (c *Config) Encode(w io.Writer, reveal bool) error {
	backup := c.Backup
	f := file{
		APIKey:         c.APIKey,
		Backup:         &backup,
		BackupDir:      c.BackupDir,
		LogLevel:       c.LogLevel,
		RequestTimeout: c.RequestTimeout.String(),
	}
	if !reveal {
		f.APIKey = MaskKey(c.APIKey)
	}
	return toml.NewEncoder(w).Encode(f)
}

// MaskKey hides all but the last four characters of key.
func MaskKey(key string) string {
	if len(key) <= 4 {
		return strings.Repeat("*", len(key))
	}
	return strings.Repeat("*", len(key)-4) + key[len(key)-4:]
}
