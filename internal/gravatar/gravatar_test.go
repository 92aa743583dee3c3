package gravatar

import (
	"testing"

	"github.com/sampark/sampark/internal/config"
	"github.com/stretchr/testify/assert"
)

const exampleHash = "973dfe463ec85785f5f95af5ba3906eedb2d931c24e69824a89ea65dba4e813b"

func TestAvatarURL(t *testing.T) {
	tests := []struct {
		name     string
		email    string
		config   *config.GravatarConfig
		expected string
	}{
		{
			name:     "disabled",
			email:    "test@example.com",
			config:   &config.GravatarConfig{Enabled: false},
			expected: "",
		},
		{
			name:     "nil config",
			email:    "test@example.com",
			expected: "",
		},
		{
			name:     "blank email",
			email:    "   ",
			config:   &config.GravatarConfig{Enabled: true},
			expected: "",
		},
		{
			name:     "no options",
			email:    "test@example.com",
			config:   &config.GravatarConfig{Enabled: true},
			expected: "https://www.gravatar.com/avatar/" + exampleHash,
		},
		{
			name:  "profile defaults",
			email: " Test@Example.com ",
			config: &config.GravatarConfig{
				Enabled:      true,
				DefaultImage: "identicon",
				Rating:       "g",
				Size:         80,
			},
			expected: "https://www.gravatar.com/avatar/" + exampleHash + "?d=identicon&r=g&s=80",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, AvatarURL(tt.email, tt.config))
		})
	}
}
