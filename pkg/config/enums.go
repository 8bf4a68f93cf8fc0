package config

// SanitizationMode selects how parameters are matched and mutated during a
// run. Prefix and pattern matching remove parameters by name; anonymization
// masks email addresses found in parameter values.
type SanitizationMode string

const (
	// ModePrefixMatching removes parameters whose name starts with the
	// configured prefix.
	ModePrefixMatching SanitizationMode = "prefix-matching"
	// ModePatternMatching removes parameters whose name matches a glob or
	// a /slash-wrapped/ regex.
	ModePatternMatching SanitizationMode = "pattern-matching"
	// ModeAnonymization masks email addresses in parameter values. It needs
	// no pattern input.
	ModeAnonymization SanitizationMode = "anonymization"
)

// IsValid checks if the sanitization mode is valid
func (m SanitizationMode) IsValid() bool {
	switch m {
	case ModePrefixMatching, ModePatternMatching, ModeAnonymization:
		return true
	default:
		return false
	}
}

// RequiresParameterInput reports whether the mode needs a pattern or prefix
// input to operate.
func (m SanitizationMode) RequiresParameterInput() bool {
	return m != ModeAnonymization
}
