package workouts

import (
	"context"
	"fmt"

	"github.com/claude/liftlog/internal/dataclient"
)

// seedMuscleGroups and seedExercises are the built-in reference catalog.
// IDs are stable slugs so seeding is an idempotent upsert on every start.
var seedMuscleGroups = []struct{ id, name string }{
	{"mg-chest", "Chest"},
	{"mg-shoulders", "Shoulders"},
	{"mg-triceps", "Triceps"},
	{"mg-back", "Back"},
	{"mg-biceps", "Biceps"},
	{"mg-legs", "Legs"},
	{"mg-core", "Core"},
	{"mg-cardio", "Cardio"},
}

var seedExercises = []struct{ id, name, group string }{
	{"ex-bench-press", "Bench Press", "mg-chest"},
	{"ex-incline-dumbbell-press", "Incline Dumbbell Press", "mg-chest"},
	{"ex-chest-fly", "Chest Fly", "mg-chest"},
	{"ex-push-up", "Push-Up", "mg-chest"},
	{"ex-overhead-press", "Overhead Press", "mg-shoulders"},
	{"ex-lateral-raise", "Lateral Raise", "mg-shoulders"},
	{"ex-face-pull", "Face Pull", "mg-shoulders"},
	{"ex-tricep-pushdown", "Tricep Pushdown", "mg-triceps"},
	{"ex-skull-crusher", "Skull Crusher", "mg-triceps"},
	{"ex-dip", "Dip", "mg-triceps"},
	{"ex-deadlift", "Deadlift", "mg-back"},
	{"ex-pull-up", "Pull-Up", "mg-back"},
	{"ex-barbell-row", "Barbell Row", "mg-back"},
	{"ex-lat-pulldown", "Lat Pulldown", "mg-back"},
	{"ex-barbell-curl", "Barbell Curl", "mg-biceps"},
	{"ex-hammer-curl", "Hammer Curl", "mg-biceps"},
	{"ex-squat", "Squats", "mg-legs"},
	{"ex-leg-press", "Leg Press", "mg-legs"},
	{"ex-romanian-deadlift", "Romanian Deadlift", "mg-legs"},
	{"ex-lunge", "Lunge", "mg-legs"},
	{"ex-calf-raise", "Calf Raise", "mg-legs"},
	{"ex-plank", "Plank", "mg-core"},
	{"ex-hanging-leg-raise", "Hanging Leg Raise", "mg-core"},
	{"ex-treadmill-run", "Treadmill Run", "mg-cardio"},
	{"ex-rowing-machine", "Rowing Machine", "mg-cardio"},
	{"ex-cycling", "Cycling", "mg-cardio"},
}

// SeedCatalog upserts the built-in muscle groups and exercises. Running it
// twice leaves the catalog unchanged apart from update timestamps.
func (s *Service) SeedCatalog(ctx context.Context) error {
	for _, mg := range seedMuscleGroups {
		res := s.ds.From(tableMuscleGroups).Upsert(dataclient.Record{
			"id":   mg.id,
			"name": mg.name,
		}, "id").Exec(ctx)
		if res.Error != nil {
			return fmt.Errorf("seeding muscle group %s: %w", mg.id, res.Error)
		}
	}

	for _, ex := range seedExercises {
		res := s.ds.From(tableExercises).Upsert(dataclient.Record{
			"id":              ex.id,
			"name":            ex.name,
			"muscle_group_id": ex.group,
		}, "id").Exec(ctx)
		if res.Error != nil {
			return fmt.Errorf("seeding exercise %s: %w", ex.id, res.Error)
		}
	}

	s.log.Info("exercise catalog seeded",
		"muscle_groups", len(seedMuscleGroups),
		"exercises", len(seedExercises))
	return nil
}
