package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"dario.cat/mergo"
	"gopkg.in/yaml.v3"
)

// ConfigFileName is the expected configuration file inside the config dir.
const ConfigFileName = "datashield.yaml"

// yamlConfig represents the complete datashield.yaml file structure.
type yamlConfig struct {
	System   *SystemConfig `yaml:"system"`
	Defaults *Defaults     `yaml:"defaults"`
	Queue    *QueueConfig  `yaml:"queue"`
}

// Initialize loads, validates, and returns ready-to-use configuration.
// This is the primary entry point for configuration loading.
//
// Steps performed:
//  1. Read datashield.yaml from configDir
//  2. Expand environment variables ({{.VAR}} templates)
//  3. Parse YAML into structs
//  4. Merge built-in defaults into unset fields
//  5. Validate the result
func Initialize(ctx context.Context, configDir string) (*Config, error) {
	log := slog.With("config_dir", configDir)
	log.Info("Initializing configuration")

	path := filepath.Join(configDir, ConfigFileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, NewLoadError(path, ErrConfigNotFound)
		}
		return nil, NewLoadError(path, err)
	}

	data = ExpandEnv(data)

	var parsed yamlConfig
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return nil, NewLoadError(path, fmt.Errorf("%w: %v", ErrInvalidYAML, err))
	}

	cfg := &Config{
		configDir: configDir,
		System:    parsed.System,
		Defaults:  parsed.Defaults,
		Queue:     parsed.Queue,
	}
	if err := applyDefaults(cfg); err != nil {
		return nil, fmt.Errorf("failed to apply defaults: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrValidationFailed, err)
	}

	log.Info("Configuration initialized",
		"model_store", cfg.System.ModelStore.BaseURL,
		"default_mode", cfg.Defaults.SanitizationMode,
		"workers", cfg.Queue.WorkerCount)

	return cfg, nil
}

// applyDefaults fills unset fields from the built-in defaults.
func applyDefaults(cfg *Config) error {
	if cfg.System == nil {
		cfg.System = &SystemConfig{}
	}
	if cfg.System.ModelStore == nil {
		cfg.System.ModelStore = &ModelStoreConfig{}
	}
	if cfg.Defaults == nil {
		cfg.Defaults = &Defaults{}
	}
	if cfg.Queue == nil {
		cfg.Queue = &QueueConfig{}
	}

	if err := mergo.Merge(cfg.System.ModelStore, DefaultSystemConfig().ModelStore); err != nil {
		return err
	}
	if err := mergo.Merge(cfg.Defaults, DefaultDefaults()); err != nil {
		return err
	}
	if err := mergo.Merge(cfg.Queue, DefaultQueueConfig()); err != nil {
		return err
	}
	return nil
}

// validate checks the merged configuration for consistency.
func validate(cfg *Config) error {
	store := cfg.System.ModelStore
	if store.BaseURL == "" {
		return NewValidationError("system.model_store", "base_url", ErrMissingRequiredField)
	}
	if store.RequestTimeout <= 0 {
		return NewValidationError("system.model_store", "request_timeout", ErrInvalidValue)
	}

	if !cfg.Defaults.SanitizationMode.IsValid() {
		return NewValidationError("defaults", "sanitization_mode",
			fmt.Errorf("%w: %q", ErrInvalidValue, cfg.Defaults.SanitizationMode))
	}

	q := cfg.Queue
	if q.WorkerCount <= 0 {
		return NewValidationError("queue", "worker_count", ErrInvalidValue)
	}
	if q.MaxConcurrentRuns <= 0 {
		return NewValidationError("queue", "max_concurrent_runs", ErrInvalidValue)
	}
	if q.PollInterval <= 0 {
		return NewValidationError("queue", "poll_interval", ErrInvalidValue)
	}
	if q.RunTimeout <= 0 {
		return NewValidationError("queue", "run_timeout", ErrInvalidValue)
	}
	return nil
}
