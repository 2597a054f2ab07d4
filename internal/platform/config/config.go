package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

const (
	DefaultMessageTimeout = 30 * time.Second
	DefaultLogLevel       = "info"
)

type Config struct {
	BaseDir        string           `yaml:"-"`
	DBPath         string           `yaml:"db_path" validate:"required"`
	MessageTimeout time.Duration    `yaml:"message_timeout" validate:"gt=0"`
	Log            LogConfig        `yaml:"log"`
	Plugins        []PluginManifest `yaml:"plugins" validate:"dive"`
}

type LogConfig struct {
	Level         string `yaml:"level" validate:"omitempty,oneof=trace debug info warn error disabled"`
	HumanReadable bool   `yaml:"human_readable"`
}

// PluginManifest declares a message-based plugin binary the runtime may start.
type PluginManifest struct {
	ID         string   `yaml:"id" validate:"required"`
	Name       string   `yaml:"name"`
	Version    string   `yaml:"version"`
	Binary     string   `yaml:"binary" validate:"required"`
	SHA256     string   `yaml:"sha256" validate:"omitempty,len=64,hexadecimal,lowercase"`
	Extensions []string `yaml:"extensions" validate:"required,min=1,dive,oneof=task scm notification analytics elastic-agent"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// New returns the default configuration rooted at baseDir.
func New(baseDir string) (Config, error) {
	if baseDir == "" {
		return Config{}, fmt.Errorf("base dir is required")
	}
	return Config{
		BaseDir:        baseDir,
		DBPath:         filepath.Join(baseDir, ".extrt", "registry.db"),
		MessageTimeout: DefaultMessageTimeout,
		Log:            LogConfig{Level: DefaultLogLevel},
	}, nil
}

// Load reads a YAML config file. Missing keys keep the defaults from New.
func Load(path string) (Config, error) {
	if path == "" {
		return Config{}, fmt.Errorf("config path is required")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return Config{}, fmt.Errorf("resolve config path: %w", err)
	}
	cfg, err := New(filepath.Dir(abs))
	if err != nil {
		return Config{}, err
	}
	raw, err := os.ReadFile(abs)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	decoder := yaml.NewDecoder(bytes.NewReader(raw))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if !filepath.IsAbs(cfg.DBPath) {
		cfg.DBPath = filepath.Join(cfg.BaseDir, cfg.DBPath)
	}
	for i := range cfg.Plugins {
		if cfg.Plugins[i].Binary != "" && !filepath.IsAbs(cfg.Plugins[i].Binary) {
			cfg.Plugins[i].Binary = filepath.Clean(filepath.Join(cfg.BaseDir, cfg.Plugins[i].Binary))
		}
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	seen := map[string]struct{}{}
	for _, p := range c.Plugins {
		if _, ok := seen[p.ID]; ok {
			return fmt.Errorf("duplicate plugin id: %s", p.ID)
		}
		seen[p.ID] = struct{}{}
	}
	return nil
}
