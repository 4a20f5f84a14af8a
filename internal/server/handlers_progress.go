package server

import (
	"net/http"
	"regexp"
	"time"

	"github.com/claude/liftlog/internal/stats"
)

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	list, err := s.svc.List(r.Context(), user.ID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, stats.DashboardStats(list, time.Now()))
}

func (s *Server) handleWeeklyProgress(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	history, err := s.svc.History(r.Context(), user.ID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, stats.WeeklySeries(history, time.Now(), s.weekStart))
}

func (s *Server) handleMonthlyProgress(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	history, err := s.svc.History(r.Context(), user.ID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, stats.MonthlySeries(history, time.Now()))
}

func (s *Server) handlePersonalRecords(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	history, err := s.svc.History(r.Context(), user.ID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, stats.PersonalRecords(history))
}

var monthPattern = regexp.MustCompile(`^\d{4}-\d{2}$`)

func (s *Server) handleCalendar(w http.ResponseWriter, r *http.Request) {
	month := r.URL.Query().Get("month")
	if month == "" {
		month = time.Now().Format("2006-01")
	}
	if !monthPattern.MatchString(month) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "month must be YYYY-MM"})
		return
	}

	user := UserFromContext(r.Context())
	list, err := s.svc.List(r.Context(), user.ID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, stats.Calendar(list, month))
}
