// FILE: utility_test.go
package auditfile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestParseKeyValue tests key=value string parsing
func TestParseKeyValue(t *testing.T) {
	tests := []struct {
		input     string
		wantKey   string
		wantValue string
		wantError bool
	}{
		{"directory=/var/log", "directory", "/var/log", false},
		{" verbosity = terse ", "verbosity", "terse", false},
		{"pattern=a=b", "pattern", "a=b", false},
		{"empty_value=", "empty_value", "", false},
		{"novalue", "", "", true},
		{"=value", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			key, value, err := parseKeyValue(tt.input)
			if tt.wantError {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantKey, key)
			assert.Equal(t, tt.wantValue, value)
		})
	}
}

// TestFmtErrorf verifies the package prefix is applied once
func TestFmtErrorf(t *testing.T) {
	err := fmtErrorf("something failed: %d", 7)
	assert.Equal(t, "auditfile: something failed: 7", err.Error())

	err = fmtErrorf("auditfile: already prefixed")
	assert.Equal(t, "auditfile: already prefixed", err.Error())
}

// TestHasPrefixFold verifies case-insensitive prefix matching
func TestHasPrefixFold(t *testing.T) {
	assert.True(t, hasPrefixFold("AUDIT: select", "AUDIT: "))
	assert.True(t, hasPrefixFold("audit: select", "AUDIT: "))
	assert.True(t, hasPrefixFold("Audit: ", "AUDIT: "))
	assert.False(t, hasPrefixFold("AUDIT:", "AUDIT: "))
	assert.False(t, hasPrefixFold("", "AUDIT: "))
	assert.False(t, hasPrefixFold("NOTICE: audit", "AUDIT: "))
}
