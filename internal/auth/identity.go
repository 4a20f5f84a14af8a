// Package auth derives the opaque owning-user identifier the data layer
// keys on. The server never runs a login flow itself; identity arrives from
// the tailnet (WhoIs), from the stored sign-in slot, or from the configured
// development fallback.
package auth

import (
	"strings"

	"github.com/claude/liftlog/internal/models"
)

// UserID derives a stable identifier from a login name. The same login
// always maps to the same ID, so locally-stored workouts survive sign-out
// and sign-in.
func UserID(login string) string {
	return "mock-user-" + sanitize(login)
}

// sanitize collapses anything outside [A-Za-z0-9] to '-'.
func sanitize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteByte('-')
		}
	}
	return b.String()
}

// NewUser builds a User for a login, with the derived stable ID.
func NewUser(login, displayName, profilePic string) models.User {
	if displayName == "" {
		displayName = login
	}
	return models.User{
		ID:          UserID(login),
		Login:       login,
		DisplayName: displayName,
		ProfilePic:  profilePic,
	}
}
