package models

// Focus labels a workout by the muscle groups it targets. The set of values
// mirrors the selection offered in the log form.
type Focus string

const (
	FocusChestShouldersTriceps Focus = "Chest / Shoulders / Triceps"
	FocusBackBiceps            Focus = "Back / Biceps"
	FocusLegs                  Focus = "Legs"
	FocusFullBody              Focus = "Full Body"
	FocusCardio                Focus = "Cardio"
	FocusOther                 Focus = "Other"
)

// Focuses lists every valid focus value, in display order.
var Focuses = []Focus{
	FocusChestShouldersTriceps,
	FocusBackBiceps,
	FocusLegs,
	FocusFullBody,
	FocusCardio,
	FocusOther,
}

// Valid reports whether f is one of the known focus labels.
func (f Focus) Valid() bool {
	for _, known := range Focuses {
		if f == known {
			return true
		}
	}
	return false
}

// Workout is one logged workout occasion.
type Workout struct {
	ID          string `json:"id"`
	UserID      string `json:"user_id"`
	WorkoutDate string `json:"workout_date"` // YYYY-MM-DD, user-local
	Focus       Focus  `json:"focus"`
	Notes       string `json:"notes,omitempty"`
	CreatedAt   string `json:"created_at,omitempty"`
	UpdatedAt   string `json:"updated_at,omitempty"`
}

// WorkoutExercise is one performed set within a workout. Despite the name it
// represents a single set; the full group of rows for one (workout, exercise)
// pair is replaced wholesale whenever that exercise is saved.
type WorkoutExercise struct {
	ID           string  `json:"id"`
	WorkoutID    string  `json:"workout_id"`
	ExerciseID   string  `json:"exercise_id"`
	ExerciseName string  `json:"exercise_name,omitempty"` // denormalized, survives catalog gaps
	SetNumber    int     `json:"set_number"` // 1-based, contiguous after save
	Reps         int     `json:"reps"`
	Weight       float64 `json:"weight"`
	CreatedAt    string  `json:"created_at,omitempty"`
}

// Exercise is a read-only catalog entry used to populate selection lists.
type Exercise struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	MuscleGroupID string `json:"muscle_group_id"`
}

// MuscleGroup partitions the exercise catalog by training focus.
type MuscleGroup struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// WorkoutDetail is a workout joined with its set records.
type WorkoutDetail struct {
	Workout
	Exercises []WorkoutExercise `json:"workout_exercises"`
}

// Volume returns the workout's training volume: the sum of reps x weight
// over every set. Derived on demand, never stored.
func (d WorkoutDetail) Volume() float64 {
	var total float64
	for _, we := range d.Exercises {
		total += float64(we.Reps) * we.Weight
	}
	return total
}

// User is the opaque identity supplied by the identity layer.
type User struct {
	ID          string `json:"id"`
	Login       string `json:"login"`
	DisplayName string `json:"display_name"`
	ProfilePic  string `json:"profile_pic,omitempty"`
}
