package masking

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrefixMatcher(t *testing.T) {
	tests := []struct {
		name   string
		prefix string
		strict bool
		input  string
		want   bool
	}{
		{"loose matches different case", "Foo_", false, "FOO_bar", true},
		{"loose matches same case", "Foo_", false, "Foo_bar", true},
		{"loose rejects non-prefix", "Foo_", false, "bar_Foo_", false},
		{"strict matches same case", "Foo_", true, "Foo_bar", true},
		{"strict rejects different case", "Foo_", true, "FOO_bar", false},
		{"empty prefix matches everything", "", false, "anything", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewPrefixMatcher(tt.prefix, tt.strict)
			assert.Equal(t, tt.want, m.Matches(tt.input))
		})
	}
}

func TestPatternMatcher_Regex(t *testing.T) {
	tests := []struct {
		name    string
		pattern string
		strict  bool
		input   string
		want    bool
	}{
		{"inline i flag beats strict", `/^foo_\d+$/i`, true, "FOO_123", true},
		{"strict regex is case-sensitive", `/^foo_\d+$/`, true, "FOO_123", false},
		{"loose regex is case-insensitive", `/^foo_\d+$/`, false, "FOO_123", true},
		{"search semantics match anywhere", `/oo_\d/`, true, "foo_123", true},
		{"anchored body still anchors", `/^oo_\d/`, true, "foo_123", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := NewPatternMatcher(tt.pattern, tt.strict)
			require.NoError(t, err)
			assert.Equal(t, tt.want, m.Matches(tt.input))
		})
	}
}

func TestPatternMatcher_Glob(t *testing.T) {
	tests := []struct {
		name    string
		pattern string
		strict  bool
		input   string
		want    bool
	}{
		{"loose glob matches different case", "foo_*", false, "FOO_bar", true},
		{"strict glob rejects different case", "foo_*", true, "FOO_bar", false},
		{"strict glob matches same case", "foo_*", true, "foo_bar", true},
		{"question mark matches one character", "foo_?", false, "foo_x", true},
		{"glob is anchored to the whole name", "foo_*", false, "a_foo_bar", false},
		{"leading slash without closing slash is a glob", "/tmp*", true, "/tmp/foo", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := NewPatternMatcher(tt.pattern, tt.strict)
			require.NoError(t, err)
			assert.Equal(t, tt.want, m.Matches(tt.input))
		})
	}
}

func TestPatternMatcher_ConfigurationErrors(t *testing.T) {
	for _, pattern := range []string{"", "/", "//", "/i"} {
		t.Run("pattern "+pattern, func(t *testing.T) {
			_, err := NewPatternMatcher(pattern, false)
			assert.ErrorIs(t, err, ErrEmptyPattern)
		})
	}

	_, err := NewPatternMatcher(`/foo[/`, false)
	assert.ErrorIs(t, err, ErrInvalidPattern)
}
