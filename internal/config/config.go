package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/viper"
)

// Config holds the store locations and the optional default charge code.
type Config struct {
	// File is the config file the values were read from.
	File string
	// RegistryPath is the JSON file holding charge code metadata.
	RegistryPath string
	// LedgerPath is the JSON file holding punch intervals.
	LedgerPath string
	// DefaultCode is punched when no id is given. Only meaningful when
	// HasDefault is true.
	DefaultCode int
	HasDefault  bool
}

const (
	// DefaultRegistryFile is the registry file name inside the config directory.
	DefaultRegistryFile = "charges.json"
	// DefaultLedgerFile is the ledger file name inside the config directory.
	DefaultLedgerFile = "data.json"

	keyRegistry = "database.registry"
	keyLedger   = "database.ledger"
	keyDefault  = "database.default"

	envPrefix = "TPC"
)

// configTemplate is the annotated config written on first run.
const configTemplate = `# tpc configuration - ~/.tpc/config.toml
#
# All settings are optional. Relative paths are resolved against the
# directory holding this file.
# Every key can be overridden from the environment, e.g. TPC_DATABASE_LEDGER.

[database]
# Charge code registry: names, descriptions and ids.
registry = "charges.json"

# Punch ledger: clock-in/clock-out times per charge code id.
ledger = "data.json"

# Charge code punched by "tpc punch" when no id is given.
# Set it with: tpc set default <id>
# default = 1
`

// DefaultPath returns ~/.tpc/config.toml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".tpc", "config.toml"), nil
}

func newViper(path string) *viper.Viper {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("toml")
	v.SetDefault(keyRegistry, DefaultRegistryFile)
	v.SetDefault(keyLedger, DefaultLedgerFile)
	return v
}

// Load reads the config at path (DefaultPath when empty), creating it with
// annotated defaults on first run. Environment variables prefixed with TPC_
// override file values.
func Load(path string) (Config, error) {
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return Config{}, err
		}
		path = p
	}

	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		// First run: write the annotated template so users can discover options.
		if writeErr := writeDefault(path); writeErr != nil {
			slog.Warn("could not create config file", "path", path, "err", writeErr)
		}
	}

	v := newViper(path)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, statErr := os.Stat(path); !errors.Is(statErr, os.ErrNotExist) {
			return Config{}, fmt.Errorf("parsing config file %s: %w\nTip: delete the file to regenerate defaults", path, err)
		}
	}

	dir := filepath.Dir(path)
	cfg := Config{
		File:         path,
		RegistryPath: resolve(dir, v.GetString(keyRegistry)),
		LedgerPath:   resolve(dir, v.GetString(keyLedger)),
	}

	if raw := strings.TrimSpace(v.GetString(keyDefault)); raw != "" {
		id, err := strconv.Atoi(raw)
		if err != nil || id < 0 {
			return Config{}, fmt.Errorf("config %s: %s must be a non-negative integer, got %q", path, keyDefault, raw)
		}
		cfg.DefaultCode = id
		cfg.HasDefault = true
	}
	return cfg, nil
}

// SetDefault records id as the default charge code in the config at path.
// Comments in the file are not preserved.
func SetDefault(path string, id int) error {
	v := newViper(path)
	if err := v.ReadInConfig(); err != nil {
		if _, statErr := os.Stat(path); !errors.Is(statErr, os.ErrNotExist) {
			return fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}
	v.Set(keyDefault, id)
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config file %s: %w", path, err)
	}
	return nil
}

func resolve(dir, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	if strings.HasPrefix(p, "~"+string(filepath.Separator)) {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, p[2:])
		}
	}
	return filepath.Join(dir, p)
}

// writeDefault creates the config directory and writes the annotated default
// config template.
func writeDefault(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(configTemplate), 0o600); err != nil {
		return fmt.Errorf("writing default config: %w", err)
	}
	return nil
}
