package download_test

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bookdrop/bookdrop/internal/download"
)

func TestNewToken_IsURLSafe(t *testing.T) {
	token, err := download.NewToken()
	require.NoError(t, err)

	// Tokens are embedded in a path segment of the emailed link, so they must
	// survive URL encoding untouched.
	assert.Equal(t, token, url.PathEscape(token))
	assert.NotContains(t, token, "=")
	assert.NotContains(t, token, "/")
	assert.NotContains(t, token, "+")
}

func TestNewToken_IsUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		token, err := download.NewToken()
		require.NoError(t, err)
		require.False(t, seen[token], "duplicate token generated")
		seen[token] = true
	}
}
