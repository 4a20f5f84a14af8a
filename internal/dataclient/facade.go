package dataclient

import (
	"context"
	"log/slog"
	"net/url"
	"strings"

	"github.com/claude/liftlog/internal/config"
	"github.com/claude/liftlog/internal/localstore"
)

// Mode names the backend the facade selects for the ambient configuration.
type Mode int

const (
	// ModeEmulator is the fallback: no usable backend configured.
	ModeEmulator Mode = iota
	// ModeRemote targets the hosted PostgREST-dialect store.
	ModeRemote
	// ModePostgres targets a directly-connected Postgres database.
	ModePostgres
)

func (m Mode) String() string {
	switch m {
	case ModeRemote:
		return "remote"
	case ModePostgres:
		return "postgres"
	default:
		return "emulator"
	}
}

// placeholderValues are template strings that ship in example configs; a
// remote URL containing one is treated as unconfigured, not as an error.
var placeholderValues = []string{"placeholder", "your-project", "your_supabase_url"}

// SelectMode decides which backend the configuration calls for. It performs
// no I/O and is safe to call on every request. Absence or invalidity of
// remote settings is a normal case and silently selects the emulator.
func SelectMode(cfg *config.Config) Mode {
	if cfg.Database.Configured() {
		return ModePostgres
	}
	if validRemoteURL(cfg.Remote.URL) && cfg.Remote.ServiceKey != "" {
		return ModeRemote
	}
	return ModeEmulator
}

// validRemoteURL reports whether addr is a syntactically valid HTTP or HTTPS
// URL and not a recognized placeholder.
func validRemoteURL(addr string) bool {
	if addr == "" {
		return false
	}
	for _, p := range placeholderValues {
		if strings.Contains(addr, p) {
			return false
		}
	}
	u, err := url.Parse(addr)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// New constructs the Datastore the configuration calls for. Only the
// Postgres path does I/O here (pool creation and ping); the other two are
// pure construction.
func New(ctx context.Context, cfg *config.Config, store *localstore.Store, log *slog.Logger) (Datastore, error) {
	switch SelectMode(cfg) {
	case ModePostgres:
		return NewPostgres(ctx, cfg.Database.DSN(), log)
	case ModeRemote:
		return NewRemote(cfg.Remote.URL, cfg.Remote.ServiceKey, log), nil
	default:
		return NewEmulator(store, log), nil
	}
}
