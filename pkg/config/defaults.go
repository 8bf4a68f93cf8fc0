package config

// Defaults contains system-wide default configurations.
// These values apply when a run submission doesn't specify its own.
type Defaults struct {
	// SanitizationMode used when a submission omits the mode.
	SanitizationMode SanitizationMode `yaml:"sanitization_mode,omitempty"`

	// StrictMode is the default case-sensitivity policy.
	StrictMode bool `yaml:"strict_mode,omitempty"`
}

// DefaultDefaults returns the built-in run defaults.
func DefaultDefaults() *Defaults {
	return &Defaults{
		SanitizationMode: ModePrefixMatching,
		StrictMode:       false,
	}
}
