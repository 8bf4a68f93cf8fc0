package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExpandEnv_Basic(t *testing.T) {
	t.Setenv("DS_TEST_TOKEN", "tok-123")

	out := ExpandEnv([]byte("token: {{.DS_TEST_TOKEN}}"))
	assert.Equal(t, "token: tok-123", string(out))
}

func TestExpandEnv_MissingVariableIsEmpty(t *testing.T) {
	out := ExpandEnv([]byte("token: {{.DS_DEFINITELY_UNSET_VAR}}"))
	assert.Equal(t, "token: ", string(out))
}

func TestExpandEnv_DollarSignsUntouched(t *testing.T) {
	// Sanitization patterns carry regex anchors; they must survive expansion.
	in := []byte(`pattern: "/^ifc_guid$/"`)
	assert.Equal(t, in, ExpandEnv(in))
}

func TestExpandEnv_MalformedTemplatePassesThrough(t *testing.T) {
	in := []byte("pattern: {{.unclosed")
	assert.Equal(t, in, ExpandEnv(in))
}
