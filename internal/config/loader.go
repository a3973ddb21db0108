package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	envPrefix            = "PARTYLINE"
	envConfigDefaultPath = envPrefix + "_CONFIG_DEFAULT_PATH"
	defaultConfigName    = "config.yaml"
)

const defaultFileHeader = "# partyline configuration. Every key can be overridden with PARTYLINE_<KEY>.\n"

// Load resolves configuration and returns it with the config file path.
// Precedence: defaults < config file < PARTYLINE_* env vars. A missing file is
// created with the defaults.
func Load(logger *zerolog.Logger, explicitPath string) (Config, string, error) {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	defaults := Default()

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	if err := setDefaults(v, defaults); err != nil {
		return defaults, "", err
	}

	path := resolveConfigPath(explicitPath)
	v.SetConfigFile(path)

	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if err := writeDefaultConfig(path, defaults); err != nil {
			logger.Warn().Err(err).Str("path", path).Msg("failed to write default config")
		} else {
			logger.Info().Str("path", path).Msg("created default config")
		}
	}

	if err := v.ReadInConfig(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return defaults, path, fmt.Errorf("read config %s: %w", path, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return defaults, path, fmt.Errorf("unmarshal config: %w", err)
	}
	return cfg, path, nil
}

// setDefaults registers every Config key with viper, so env overrides apply
// even to keys missing from the file.
func setDefaults(v *viper.Viper, cfg Config) error {
	raw, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode defaults: %w", err)
	}
	var values map[string]any
	if err := yaml.Unmarshal(raw, &values); err != nil {
		return fmt.Errorf("decode defaults: %w", err)
	}
	for key, value := range values {
		v.SetDefault(key, value)
	}
	return nil
}

func resolveConfigPath(explicitPath string) string {
	if explicitPath != "" {
		return explicitPath
	}
	if base := os.Getenv(envConfigDefaultPath); base != "" {
		return filepath.Join(base, defaultConfigName)
	}
	if cwd, err := os.Getwd(); err == nil {
		return filepath.Join(cwd, defaultConfigName)
	}
	return defaultConfigName
}

func writeDefaultConfig(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, append([]byte(defaultFileHeader), data...), 0o600)
}
