package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizationMode_IsValid(t *testing.T) {
	assert.True(t, ModePrefixMatching.IsValid())
	assert.True(t, ModePatternMatching.IsValid())
	assert.True(t, ModeAnonymization.IsValid())
	assert.False(t, SanitizationMode("").IsValid())
	assert.False(t, SanitizationMode("redaction").IsValid())
}

func TestSanitizationMode_RequiresParameterInput(t *testing.T) {
	assert.True(t, ModePrefixMatching.RequiresParameterInput())
	assert.True(t, ModePatternMatching.RequiresParameterInput())
	assert.False(t, ModeAnonymization.RequiresParameterInput())
}
