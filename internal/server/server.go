package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"tailscale.com/client/local"

	"github.com/claude/liftlog/internal/localstore"
	"github.com/claude/liftlog/internal/models"
	"github.com/claude/liftlog/internal/workouts"
)

// Server holds dependencies for HTTP handlers.
type Server struct {
	svc       *workouts.Service
	store     *localstore.Store
	log       *slog.Logger
	router    chi.Router
	devUser   models.User
	weekStart time.Weekday
	ts        *local.Client // nil unless serving over tsnet
}

// New creates a new Server with all routes configured. devUser is the
// fallback identity when neither tsnet nor a stored sign-in supplies one.
func New(svc *workouts.Service, store *localstore.Store, devUser models.User, weekStart time.Weekday, log *slog.Logger) *Server {
	s := &Server{
		svc:       svc,
		store:     store,
		log:       log,
		devUser:   devUser,
		weekStart: weekStart,
		router:    chi.NewRouter(),
	}
	s.routes()
	return s
}

// SetTailscale wires the tsnet local client used to resolve the caller's
// identity from their tailnet address.
func (s *Server) SetTailscale(lc *local.Client) {
	s.ts = lc
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.router.Use(RequestLogging(s.log))
	s.router.Use(CORS)
	s.router.Use(s.Identity)

	s.router.Get("/api/v1/me", s.handleMe)
	s.router.Post("/api/v1/auth/signin", s.handleSignIn)
	s.router.Post("/api/v1/auth/signout", s.handleSignOut)

	s.router.Route("/api/v1/workouts", func(r chi.Router) {
		r.Get("/", s.handleListWorkouts)
		r.Post("/", s.handleCreateWorkout)
		r.Get("/{id}", s.handleGetWorkout)
		r.Put("/{id}", s.handleUpdateWorkout)
		r.Delete("/{id}", s.handleDeleteWorkout)
		r.Put("/{id}/exercises/{exerciseID}/sets", s.handleReplaceSets)
	})

	s.router.Get("/api/v1/exercises", s.handleListExercises)
	s.router.Get("/api/v1/muscle-groups", s.handleListMuscleGroups)

	s.router.Get("/api/v1/stats/dashboard", s.handleDashboard)
	s.router.Get("/api/v1/progress/weekly", s.handleWeeklyProgress)
	s.router.Get("/api/v1/progress/monthly", s.handleMonthlyProgress)
	s.router.Get("/api/v1/progress/records", s.handlePersonalRecords)
	s.router.Get("/api/v1/calendar", s.handleCalendar)
}
