package config

// Config is the umbrella configuration object returned by Initialize()
// and used throughout the application.
type Config struct {
	configDir string // Configuration directory path (for reference)

	// System-wide infrastructure settings (model store connection)
	System *SystemConfig

	// Run defaults applied when a submission omits a field
	Defaults *Defaults

	// Queue and worker pool configuration
	Queue *QueueConfig
}

// ConfigDir returns the configuration directory path
func (c *Config) ConfigDir() string {
	return c.configDir
}

// ModelStore returns the model store connection settings.
func (c *Config) ModelStore() *ModelStoreConfig {
	if c.System == nil {
		return nil
	}
	return c.System.ModelStore
}
