// Package stats computes chart and summary data from workout history. All
// functions are pure: total over empty input and never mutating their
// arguments.
package stats

import (
	"sort"
	"time"

	"github.com/claude/liftlog/internal/models"
)

// ProgressPoint is one chart bucket: a labeled period with its total volume
// and session count.
type ProgressPoint struct {
	Date     string  `json:"date"`
	Volume   float64 `json:"volume"`
	Workouts int     `json:"workouts"`
}

// PersonalRecord is the heaviest set observed for one (exercise, reps) pair.
type PersonalRecord struct {
	Exercise string  `json:"exercise"`
	Reps     int     `json:"reps"`
	Weight   float64 `json:"weight"`
	Date     string  `json:"date"`
}

// Dashboard summarizes recent activity for the landing view.
type Dashboard struct {
	TotalWorkouts int `json:"total_workouts"`
	ThisWeek      int `json:"this_week"`
	ThisMonth     int `json:"this_month"`
}

// parseDate reads a YYYY-MM-DD workout date as a wall date, ignoring time
// zones. Unparseable dates are excluded from every aggregate.
func parseDate(s string) (time.Time, bool) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// startOfWeek returns midnight of the week containing t, with weeks starting
// on weekStart.
func startOfWeek(t time.Time, weekStart time.Weekday) time.Time {
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	diff := (int(day.Weekday()) - int(weekStart) + 7) % 7
	return day.AddDate(0, 0, -diff)
}

// WeeklySeries buckets workouts into the trailing 12 calendar weeks plus the
// current week: always exactly 13 points, zeroed where no sessions fall.
func WeeklySeries(workouts []models.WorkoutDetail, now time.Time, weekStart time.Weekday) []ProgressPoint {
	const weeks = 13
	first := startOfWeek(now, weekStart).AddDate(0, 0, -7*(weeks-1))

	points := make([]ProgressPoint, weeks)
	for i := range points {
		points[i].Date = first.AddDate(0, 0, 7*i).Format("Jan 2")
	}

	for _, w := range workouts {
		d, ok := parseDate(w.WorkoutDate)
		if !ok {
			continue
		}
		// Round the day delta so a DST hour cannot shift a bucket.
		days := int(startOfWeek(d, weekStart).Sub(first).Hours()/24 + 0.5)
		idx := days / 7
		if days < 0 {
			idx = -1
		}
		if idx < 0 || idx >= weeks {
			continue
		}
		points[idx].Volume += w.Volume()
		points[idx].Workouts++
	}
	return points
}

// MonthlySeries buckets workouts into the trailing 6 calendar months plus
// the current partial month: always exactly 7 points.
func MonthlySeries(workouts []models.WorkoutDetail, now time.Time) []ProgressPoint {
	const months = 7
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()).AddDate(0, -(months - 1), 0)

	points := make([]ProgressPoint, months)
	for i := range points {
		points[i].Date = first.AddDate(0, i, 0).Format("Jan 2006")
	}

	for _, w := range workouts {
		d, ok := parseDate(w.WorkoutDate)
		if !ok {
			continue
		}
		idx := (d.Year()-first.Year())*12 + int(d.Month()) - int(first.Month())
		if idx < 0 || idx >= months {
			continue
		}
		points[idx].Volume += w.Volume()
		points[idx].Workouts++
	}
	return points
}

// PersonalRecords extracts, for every (exercise name, rep count) pair seen
// across all workouts, the single set with maximum weight. Output is sorted
// by weight descending and truncated to the top 10. An earlier set wins a
// tie, so a record stands until it is strictly beaten.
func PersonalRecords(workouts []models.WorkoutDetail) []PersonalRecord {
	type key struct {
		exercise string
		reps     int
	}
	best := make(map[key]PersonalRecord)
	var order []key

	for _, w := range workouts {
		for _, we := range w.Exercises {
			if we.ExerciseName == "" {
				continue
			}
			k := key{exercise: we.ExerciseName, reps: we.Reps}
			existing, seen := best[k]
			if !seen {
				order = append(order, k)
			}
			if !seen || we.Weight > existing.Weight {
				best[k] = PersonalRecord{
					Exercise: we.ExerciseName,
					Reps:     we.Reps,
					Weight:   we.Weight,
					Date:     w.WorkoutDate,
				}
			}
		}
	}

	records := make([]PersonalRecord, 0, len(order))
	for _, k := range order {
		records = append(records, best[k])
	}
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Weight > records[j].Weight
	})
	if len(records) > 10 {
		records = records[:10]
	}
	return records
}

// DashboardStats counts total workouts, workouts in the last 7 days
// (inclusive of today), and workouts since the first of the current month.
func DashboardStats(workouts []models.Workout, now time.Time) Dashboard {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	weekAgo := today.AddDate(0, 0, -7)
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())

	d := Dashboard{TotalWorkouts: len(workouts)}
	for _, w := range workouts {
		t, ok := parseDate(w.WorkoutDate)
		if !ok || t.After(today) {
			continue
		}
		if !t.Before(weekAgo) {
			d.ThisWeek++
		}
		if !t.Before(monthStart) {
			d.ThisMonth++
		}
	}
	return d
}

// CalendarDay groups the workouts logged on one date.
type CalendarDay struct {
	Date     string           `json:"date"`
	Workouts []models.Workout `json:"workouts"`
}

// Calendar groups a month's workouts by day, ordered by date. Month is
// "YYYY-MM"; workouts outside it are ignored.
func Calendar(workouts []models.Workout, month string) []CalendarDay {
	byDay := make(map[string][]models.Workout)
	var days []string
	for _, w := range workouts {
		if len(w.WorkoutDate) < 7 || w.WorkoutDate[:7] != month {
			continue
		}
		if _, ok := byDay[w.WorkoutDate]; !ok {
			days = append(days, w.WorkoutDate)
		}
		byDay[w.WorkoutDate] = append(byDay[w.WorkoutDate], w)
	}
	sort.Strings(days)

	out := make([]CalendarDay, 0, len(days))
	for _, day := range days {
		out = append(out, CalendarDay{Date: day, Workouts: byDay[day]})
	}
	return out
}
