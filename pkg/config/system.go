package config

import "time"

// SystemConfig groups system-wide infrastructure settings.
type SystemConfig struct {
	ModelStore *ModelStoreConfig `yaml:"model_store"`
}

// ModelStoreConfig holds the connection settings for the external model
// store that versions are fetched from and committed to.
type ModelStoreConfig struct {
	// BaseURL is the store's API root, e.g. "https://models.example.com".
	BaseURL string `yaml:"base_url"`

	// TokenEnv names the environment variable holding the store API token.
	TokenEnv string `yaml:"token_env,omitempty"`

	// RequestTimeout bounds individual store requests.
	RequestTimeout time.Duration `yaml:"request_timeout,omitempty"`
}

// DefaultSystemConfig returns the built-in system defaults.
func DefaultSystemConfig() *SystemConfig {
	return &SystemConfig{
		ModelStore: &ModelStoreConfig{
			TokenEnv:       "DATASHIELD_STORE_TOKEN",
			RequestTimeout: 30 * time.Second,
		},
	}
}
