package server

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/claude/liftlog/internal/models"
	"github.com/claude/liftlog/internal/workouts"
)

// workoutInput is the request body for creating or rewriting a workout.
type workoutInput struct {
	WorkoutDate string       `json:"workout_date"`
	Focus       models.Focus `json:"focus"`
	Notes       string       `json:"notes"`
}

func (s *Server) handleListWorkouts(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	list, err := s.svc.List(r.Context(), user.ID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	q := r.URL.Query()
	from, to, focus := q.Get("from"), q.Get("to"), q.Get("focus")

	filtered := make([]models.Workout, 0, len(list))
	for _, workout := range list {
		if from != "" && workout.WorkoutDate < from {
			continue
		}
		if to != "" && workout.WorkoutDate > to {
			continue
		}
		if focus != "" && string(workout.Focus) != focus {
			continue
		}
		filtered = append(filtered, workout)
	}
	writeJSON(w, http.StatusOK, filtered)
}

func (s *Server) handleCreateWorkout(w http.ResponseWriter, r *http.Request) {
	var in workoutInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}

	user := UserFromContext(r.Context())
	workout, err := s.svc.Create(r.Context(), user.ID, in.WorkoutDate, in.Focus, in.Notes)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusCreated, workout)
}

func (s *Server) handleGetWorkout(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	detail, err := s.svc.Get(r.Context(), user.ID, chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if detail == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "workout not found"})
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func (s *Server) handleUpdateWorkout(w http.ResponseWriter, r *http.Request) {
	var in workoutInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}

	user := UserFromContext(r.Context())
	workout, err := s.svc.Update(r.Context(), user.ID, chi.URLParam(r, "id"), in.WorkoutDate, in.Focus, in.Notes)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if workout == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "workout not found"})
		return
	}
	writeJSON(w, http.StatusOK, workout)
}

func (s *Server) handleDeleteWorkout(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	if err := s.svc.Delete(r.Context(), user.ID, chi.URLParam(r, "id")); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleReplaceSets(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Sets []workouts.SetInput `json:"sets"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}

	user := UserFromContext(r.Context())
	sets, err := s.svc.ReplaceExerciseSets(r.Context(), user.ID,
		chi.URLParam(r, "id"), chi.URLParam(r, "exerciseID"), in.Sets)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if sets == nil {
		sets = []models.WorkoutExercise{}
	}
	writeJSON(w, http.StatusOK, sets)
}

func (s *Server) handleListExercises(w http.ResponseWriter, r *http.Request) {
	list, err := s.svc.ListExercises(r.Context(), r.URL.Query().Get("muscle_group"))
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if list == nil {
		list = []models.Exercise{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleListMuscleGroups(w http.ResponseWriter, r *http.Request) {
	list, err := s.svc.ListMuscleGroups(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if list == nil {
		list = []models.MuscleGroup{}
	}
	writeJSON(w, http.StatusOK, list)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
