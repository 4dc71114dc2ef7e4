// Package globalconfig reads project-wide engine settings from a root
// chore.yaml, distinct from the per-directory task definitions the
// loader package discovers. Grounded on the viper-based config loading
// idiom used across the retrieved corpus for exactly this kind of
// engine-wide settings file.
package globalconfig

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config holds engine-wide defaults layered under any per-task settings.
type Config struct {
	Env         map[string]string `mapstructure:"env"`
	Shell       string            `mapstructure:"shell"`
	Concurrency int               `mapstructure:"concurrency"`
}

// Default returns the defaults used when no root chore.yaml is present:
// an empty env, the "sh" shell, and unbounded concurrency (0).
func Default() Config {
	return Config{Env: map[string]string{}, Shell: "sh", Concurrency: 0}
}

// Load reads root/chore.yaml, if present, into a Config seeded with
// Default values. A missing file is not an error.
func Load(root string) (Config, error) {
	cfg := Default()

	path := filepath.Join(root, "chore.yaml")
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		return cfg, err
	}
	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, err
	}
	if cfg.Env == nil {
		cfg.Env = map[string]string{}
	}
	return cfg, nil
}
