package gravatar

import (
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"strconv"
	"strings"

	"github.com/sampark/sampark/internal/config"
)

const avatarBaseURL = "https://www.gravatar.com/avatar/"

// AvatarURL returns the Gravatar URL shown on a participant profile.
// It is empty when Gravatar is disabled or the email is blank.
func AvatarURL(email string, cfg *config.GravatarConfig) string {
	email = strings.ToLower(strings.TrimSpace(email))
	if cfg == nil || !cfg.Enabled || email == "" {
		return ""
	}

	sum := sha256.Sum256([]byte(email))
	u := avatarBaseURL + hex.EncodeToString(sum[:])

	q := url.Values{}
	if cfg.DefaultImage != "" {
		q.Set("d", cfg.DefaultImage)
	}
	if cfg.Rating != "" {
		q.Set("r", cfg.Rating)
	}
	if cfg.Size > 0 {
		q.Set("s", strconv.Itoa(cfg.Size))
	}
	if len(q) == 0 {
		return u
	}
	return u + "?" + q.Encode()
}
