package flowrec

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const (
	defaultConfigFile = "config.json"
	envPrefix         = "FLOWREC"
)

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() Config {
	cfg := Config{Export: ExportConfig{BOM: true}}
	cfg.ApplyDefaults()
	return cfg
}

func newViper(withEnv bool) *viper.Viper {
	v := viper.New()
	v.SetConfigType("json")
	if withEnv {
		v.SetEnvPrefix(envPrefix)
		v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
		v.AutomaticEnv()
	}

	def := DefaultConfig()
	v.SetDefault("datasetPath", def.DatasetPath)
	v.SetDefault("variant", string(def.Variant))
	v.SetDefault("seed", def.Seed)
	v.SetDefault("delta.min", def.Delta.Min)
	v.SetDefault("delta.max", def.Delta.Max)
	v.SetDefault("halfWindow", def.HalfWindow)
	v.SetDefault("log.level", def.Log.Level)
	v.SetDefault("log.format", def.Log.Format)
	v.SetDefault("server.addr", def.Server.Addr)
	v.SetDefault("server.sessionTTL", def.Server.SessionTTL)
	v.SetDefault("export.bom", def.Export.BOM)
	return v
}

// LoadConfig loads configuration from the given path or the default config.json.
// A missing file is not an error; defaults and FLOWREC_* environment overrides
// still apply.
func LoadConfig(path string) (Config, error) {
	return loadConfig(path, true)
}

// LoadConfigFile loads configuration from the file and defaults only, ignoring
// FLOWREC_* environment overrides. Use it before SaveConfig so environment
// values are not written back to disk.
func LoadConfigFile(path string) (Config, error) {
	return loadConfig(path, false)
}

func loadConfig(path string, withEnv bool) (Config, error) {
	if path == "" {
		path = defaultConfigFile
	}
	v := newViper(withEnv)
	if _, err := os.Stat(path); err == nil {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("stat config: %w", err)
	}
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

// SaveConfig persists configuration to disk.
func SaveConfig(path string, cfg Config) error {
	if path == "" {
		path = defaultConfigFile
	}
	tmp := path + ".tmp"
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	cfg.ApplyDefaults()
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("write temp config: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("rename config: %w", err)
	}
	return nil
}
