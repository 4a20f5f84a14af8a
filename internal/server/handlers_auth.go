package server

import (
	"encoding/json"
	"net/http"

	"github.com/claude/liftlog/internal/auth"
)

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, UserFromContext(r.Context()))
}

// handleSignIn stores a local development identity derived from the given
// login. Workouts saved before identities became deterministic carry
// timestamp-derived owner ids; sign-in is the one point where those are
// migrated to the current user.
func (s *Server) handleSignIn(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Login       string `json:"login"`
		DisplayName string `json:"display_name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	if in.Login == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "login is required"})
		return
	}

	user := auth.NewUser(in.Login, in.DisplayName, "")
	if err := s.store.SetIdentity(user); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	migrated, err := s.store.MigrateLegacyOwners("workouts", user.ID)
	if err != nil {
		s.log.Warn("legacy owner migration failed", "error", err)
	} else if migrated > 0 {
		s.log.Info("adopted legacy workouts on sign-in", "count", migrated, "user", user.ID)
	}

	writeJSON(w, http.StatusOK, user)
}

func (s *Server) handleSignOut(w http.ResponseWriter, r *http.Request) {
	if err := s.store.ClearIdentity(); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
