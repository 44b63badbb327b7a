package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseScopes(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{
			name:     "single scope",
			input:    "openid",
			expected: []string{"openid"},
		},
		{
			name:     "multiple scopes",
			input:    "openid profile email",
			expected: []string{"openid", "profile", "email"},
		},
		{
			name:     "duplicates removed preserving order",
			input:    "openid profile openid email profile",
			expected: []string{"openid", "profile", "email"},
		},
		{
			name:     "extra whitespace ignored",
			input:    "  openid   profile ",
			expected: []string{"openid", "profile"},
		},
		{
			name:     "empty string",
			input:    "",
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseScopes(tt.input))
		})
	}
}

func TestFormatScopes(t *testing.T) {
	assert.Equal(t, "openid profile", FormatScopes([]string{"openid", "profile"}))
	assert.Equal(t, "", FormatScopes(nil))
}

func TestNarrowScopes(t *testing.T) {
	client := &PublicClient{
		ClientProfile: ClientProfile{
			ID:     "client-1",
			Scopes: []string{ScopeOpenID, ScopeProfile},
		},
	}

	t.Run("intersects with client scopes", func(t *testing.T) {
		granted := NarrowScopes([]string{"openid", "profile", "email"}, client)
		assert.Equal(t, []string{"openid", "profile"}, granted)
	})

	t.Run("unknown scopes dropped", func(t *testing.T) {
		granted := NarrowScopes([]string{"openid", "admin"}, client)
		assert.Equal(t, []string{"openid"}, granted)
	})

	t.Run("nothing grantable", func(t *testing.T) {
		granted := NarrowScopes([]string{"email", "phone"}, client)
		assert.Empty(t, granted)
	})
}

func TestSubsetOf(t *testing.T) {
	granted := []string{"openid", "profile", "email"}

	assert.True(t, SubsetOf([]string{"openid"}, granted))
	assert.True(t, SubsetOf([]string{"openid", "email"}, granted))
	assert.True(t, SubsetOf(nil, granted))
	assert.False(t, SubsetOf([]string{"openid", "phone"}, granted))
}

func TestHasScope(t *testing.T) {
	assert.True(t, HasScope([]string{"openid", "email"}, "email"))
	assert.False(t, HasScope([]string{"openid"}, "email"))
	assert.False(t, HasScope(nil, "openid"))
}
