// Package workouts is the application service over the abstract datastore:
// workout CRUD, whole-exercise set replacement, history assembly, and the
// exercise catalog.
package workouts

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/claude/liftlog/internal/dataclient"
	"github.com/claude/liftlog/internal/models"
)

const (
	tableWorkouts         = "workouts"
	tableWorkoutExercises = "workout_exercises"
	tableExercises        = "exercises"
	tableMuscleGroups     = "muscle_groups"
)

// Service wraps a Datastore with the workout domain's operations. All
// methods scope reads and writes to the owning user.
type Service struct {
	ds  dataclient.Datastore
	log *slog.Logger
}

// New creates a Service over the given datastore.
func New(ds dataclient.Datastore, log *slog.Logger) *Service {
	return &Service{ds: ds, log: log}
}

// SetInput is one set of a to-be-saved exercise, in array position order.
// Sequence numbers are recomputed from position on save.
type SetInput struct {
	Reps   int     `json:"reps"`
	Weight float64 `json:"weight"`
}

// decode maps envelope data onto a typed destination via a JSON round trip,
// which is also what normalizes backend-specific value types.
func decode(data any, dest any) error {
	if data == nil {
		return nil
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("encoding result: %w", err)
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return fmt.Errorf("decoding result: %w", err)
	}
	return nil
}

// List returns the user's workouts, most recent date first.
func (s *Service) List(ctx context.Context, userID string) ([]models.Workout, error) {
	res := s.ds.From(tableWorkouts).Select().
		Eq("user_id", userID).
		Order("workout_date", true).
		Exec(ctx)
	if res.Error != nil {
		return nil, fmt.Errorf("listing workouts: %w", res.Error)
	}

	var out []models.Workout
	if err := decode(res.Data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Get returns one workout with its set records, exercise names resolved.
// Ownership is checked: another user's workout reads as not found.
func (s *Service) Get(ctx context.Context, userID, workoutID string) (*models.WorkoutDetail, error) {
	res := s.ds.From(tableWorkouts).Select().
		Eq("id", workoutID).
		Eq("user_id", userID).
		Single().
		Exec(ctx)
	if res.Error != nil {
		return nil, fmt.Errorf("fetching workout: %w", res.Error)
	}
	if res.Data == nil {
		return nil, nil
	}

	var w models.Workout
	if err := decode(res.Data, &w); err != nil {
		return nil, err
	}

	sets, err := s.setsFor(ctx, []string{workoutID})
	if err != nil {
		return nil, err
	}
	if err := s.resolveNames(ctx, sets); err != nil {
		return nil, err
	}
	return &models.WorkoutDetail{Workout: w, Exercises: sets}, nil
}

// Create logs a new workout.
func (s *Service) Create(ctx context.Context, userID string, date string, focus models.Focus, notes string) (*models.Workout, error) {
	if err := validateWorkout(date, focus); err != nil {
		return nil, err
	}

	res := s.ds.From(tableWorkouts).Insert(dataclient.Record{
		"user_id":      userID,
		"workout_date": date,
		"focus":        string(focus),
		"notes":        notes,
	}).Single().Exec(ctx)
	if res.Error != nil {
		return nil, fmt.Errorf("creating workout: %w", res.Error)
	}

	var w models.Workout
	if err := decode(res.Data, &w); err != nil {
		return nil, err
	}
	return &w, nil
}

// Update rewrites a workout's date, focus, and notes. A missing or
// foreign-owned workout returns nil without error, mirroring the datastore's
// zero-match contract.
func (s *Service) Update(ctx context.Context, userID, workoutID string, date string, focus models.Focus, notes string) (*models.Workout, error) {
	if err := validateWorkout(date, focus); err != nil {
		return nil, err
	}

	res := s.ds.From(tableWorkouts).Update(dataclient.Record{
		"workout_date": date,
		"focus":        string(focus),
		"notes":        notes,
	}).Eq("id", workoutID).Eq("user_id", userID).Exec(ctx)
	if res.Error != nil {
		return nil, fmt.Errorf("updating workout: %w", res.Error)
	}
	if res.Data == nil {
		return nil, nil
	}

	var w models.Workout
	if err := decode(res.Record(), &w); err != nil {
		return nil, err
	}
	return &w, nil
}

// Delete removes a workout and all of its set records. The workout
// exclusively owns its sets, so the cascade is unconditional.
func (s *Service) Delete(ctx context.Context, userID, workoutID string) error {
	existing, err := s.Get(ctx, userID, workoutID)
	if err != nil {
		return err
	}
	if existing == nil {
		return nil
	}

	if res := s.ds.From(tableWorkoutExercises).Delete().Eq("workout_id", workoutID).Exec(ctx); res.Error != nil {
		return fmt.Errorf("deleting workout sets: %w", res.Error)
	}
	if res := s.ds.From(tableWorkouts).Delete().Eq("id", workoutID).Eq("user_id", userID).Exec(ctx); res.Error != nil {
		return fmt.Errorf("deleting workout: %w", res.Error)
	}
	return nil
}

// ReplaceExerciseSets replaces the full group of set records for one
// exercise within one workout: delete by (workout, exercise), then re-insert
// with sequence numbers recomputed from array position. Partial overwrite of
// a single set is deliberately unsupported. The two steps are not atomic; a
// failure in between can leave the exercise with no sets.
func (s *Service) ReplaceExerciseSets(ctx context.Context, userID, workoutID, exerciseID string, sets []SetInput) ([]models.WorkoutExercise, error) {
	owner, err := s.Get(ctx, userID, workoutID)
	if err != nil {
		return nil, err
	}
	if owner == nil {
		return nil, fmt.Errorf("workout %s not found", workoutID)
	}
	for _, set := range sets {
		if set.Reps < 0 || set.Weight < 0 {
			return nil, fmt.Errorf("reps and weight must be non-negative")
		}
	}

	// Denormalized name kept on every row so history survives catalog gaps.
	name := s.exerciseName(ctx, exerciseID)

	res := s.ds.From(tableWorkoutExercises).Delete().
		Eq("workout_id", workoutID).
		Eq("exercise_id", exerciseID).
		Exec(ctx)
	if res.Error != nil {
		return nil, fmt.Errorf("clearing exercise sets: %w", res.Error)
	}

	if len(sets) == 0 {
		return nil, nil
	}

	rows := make([]dataclient.Record, len(sets))
	for i, set := range sets {
		rows[i] = dataclient.Record{
			"workout_id":    workoutID,
			"exercise_id":   exerciseID,
			"exercise_name": name,
			"set_number":    i + 1,
			"reps":          set.Reps,
			"weight":        set.Weight,
		}
	}

	res = s.ds.From(tableWorkoutExercises).InsertMany(rows).Exec(ctx)
	if res.Error != nil {
		return nil, fmt.Errorf("inserting exercise sets: %w", res.Error)
	}

	var inserted []models.WorkoutExercise
	if err := decode(res.Data, &inserted); err != nil {
		return nil, err
	}
	return inserted, nil
}

// History returns all of the user's workouts with their sets, oldest first,
// the shape the progress helpers consume.
func (s *Service) History(ctx context.Context, userID string) ([]models.WorkoutDetail, error) {
	res := s.ds.From(tableWorkouts).Select().
		Eq("user_id", userID).
		Order("workout_date", false).
		Exec(ctx)
	if res.Error != nil {
		return nil, fmt.Errorf("listing workouts: %w", res.Error)
	}

	var list []models.Workout
	if err := decode(res.Data, &list); err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}

	ids := make([]string, len(list))
	for i, w := range list {
		ids[i] = w.ID
	}
	sets, err := s.setsFor(ctx, ids)
	if err != nil {
		return nil, err
	}
	if err := s.resolveNames(ctx, sets); err != nil {
		return nil, err
	}

	byWorkout := make(map[string][]models.WorkoutExercise, len(list))
	for _, we := range sets {
		byWorkout[we.WorkoutID] = append(byWorkout[we.WorkoutID], we)
	}

	details := make([]models.WorkoutDetail, len(list))
	for i, w := range list {
		details[i] = models.WorkoutDetail{Workout: w, Exercises: byWorkout[w.ID]}
	}
	return details, nil
}

// setsFor fetches the set records for the given workouts, ordered by
// sequence number.
func (s *Service) setsFor(ctx context.Context, workoutIDs []string) ([]models.WorkoutExercise, error) {
	vals := make([]any, len(workoutIDs))
	for i, id := range workoutIDs {
		vals[i] = id
	}

	res := s.ds.From(tableWorkoutExercises).Select().
		In("workout_id", vals).
		Order("set_number", false).
		Exec(ctx)
	if res.Error != nil {
		return nil, fmt.Errorf("listing workout sets: %w", res.Error)
	}

	var sets []models.WorkoutExercise
	if err := decode(res.Data, &sets); err != nil {
		return nil, err
	}
	return sets, nil
}

// resolveNames fills the display name on set records missing the
// denormalized copy, falling back to the catalog. Records whose exercise has
// vanished from the catalog keep an explicit placeholder.
func (s *Service) resolveNames(ctx context.Context, sets []models.WorkoutExercise) error {
	missing := false
	for _, we := range sets {
		if we.ExerciseName == "" {
			missing = true
			break
		}
	}
	if !missing {
		return nil
	}

	catalog, err := s.ListExercises(ctx, "")
	if err != nil {
		return err
	}
	byID := make(map[string]string, len(catalog))
	for _, ex := range catalog {
		byID[ex.ID] = ex.Name
	}

	for i := range sets {
		if sets[i].ExerciseName != "" {
			continue
		}
		if name, ok := byID[sets[i].ExerciseID]; ok {
			sets[i].ExerciseName = name
		} else {
			sets[i].ExerciseName = "Unknown Exercise"
		}
	}
	return nil
}

// exerciseName resolves a catalog display name for denormalizing onto set
// records.
func (s *Service) exerciseName(ctx context.Context, exerciseID string) string {
	res := s.ds.From(tableExercises).Select().Eq("id", exerciseID).Single().Exec(ctx)
	if res.Error != nil || res.Data == nil {
		return "Unknown Exercise"
	}
	var ex models.Exercise
	if err := decode(res.Data, &ex); err != nil || ex.Name == "" {
		return "Unknown Exercise"
	}
	return ex.Name
}

// ListExercises returns the catalog, optionally filtered by muscle group.
func (s *Service) ListExercises(ctx context.Context, muscleGroupID string) ([]models.Exercise, error) {
	q := s.ds.From(tableExercises).Select().Order("name", false)
	if muscleGroupID != "" {
		q = q.Eq("muscle_group_id", muscleGroupID)
	}
	res := q.Exec(ctx)
	if res.Error != nil {
		return nil, fmt.Errorf("listing exercises: %w", res.Error)
	}

	var out []models.Exercise
	if err := decode(res.Data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListMuscleGroups returns the muscle-group reference data.
func (s *Service) ListMuscleGroups(ctx context.Context) ([]models.MuscleGroup, error) {
	res := s.ds.From(tableMuscleGroups).Select().Order("name", false).Exec(ctx)
	if res.Error != nil {
		return nil, fmt.Errorf("listing muscle groups: %w", res.Error)
	}

	var out []models.MuscleGroup
	if err := decode(res.Data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func validateWorkout(date string, focus models.Focus) error {
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return fmt.Errorf("workout_date must be YYYY-MM-DD")
	}
	if !focus.Valid() {
		return fmt.Errorf("unknown focus %q", focus)
	}
	return nil
}
