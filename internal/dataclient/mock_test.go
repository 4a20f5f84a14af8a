package dataclient

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/claude/liftlog/internal/localstore"
)

func newTestEmulator(t *testing.T) *Emulator {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	store, err := localstore.Open(t.TempDir(), log)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return NewEmulator(store, log)
}

// TestInsertAssignsUniqueIDs verifies that every inserted record gets a
// non-empty identifier distinct from all previously inserted ones.
func TestInsertAssignsUniqueIDs(t *testing.T) {
	e := newTestEmulator(t)
	ctx := context.Background()

	seen := make(map[string]bool)
	for i := 0; i < 20; i++ {
		res := e.From("workouts").Insert(Record{"focus": "Legs"}).Exec(ctx)
		if res.Error != nil {
			t.Fatalf("insert %d: %v", i, res.Error)
		}
		rec := res.Record()
		id, _ := rec["id"].(string)
		if id == "" {
			t.Fatalf("insert %d returned empty id", i)
		}
		if seen[id] {
			t.Fatalf("duplicate id %s", id)
		}
		seen[id] = true
		if rec["created_at"] == "" {
			t.Errorf("insert %d missing created_at", i)
		}
	}
}

// TestInsertRoundTripOrder verifies that inserting N records and reading the
// table back yields them in insertion order with their fields intact.
func TestInsertRoundTripOrder(t *testing.T) {
	e := newTestEmulator(t)
	ctx := context.Background()

	names := []string{"first", "second", "third", "fourth"}
	for _, n := range names {
		if res := e.From("workouts").Insert(Record{"name": n}).Exec(ctx); res.Error != nil {
			t.Fatalf("insert %s: %v", n, res.Error)
		}
	}

	res := e.From("workouts").Select().Exec(ctx)
	if res.Error != nil {
		t.Fatalf("select: %v", res.Error)
	}
	records := res.Records()
	if len(records) != len(names) {
		t.Fatalf("got %d records, want %d", len(records), len(names))
	}
	for i, n := range names {
		if records[i]["name"] != n {
			t.Errorf("record %d name = %v, want %s", i, records[i]["name"], n)
		}
	}
}

// TestInsertBulkKeepsSliceShape verifies bulk inserts resolve to a slice
// even for one element, while single inserts resolve to one record.
func TestInsertBulkKeepsSliceShape(t *testing.T) {
	e := newTestEmulator(t)
	ctx := context.Background()

	res := e.From("workout_exercises").InsertMany([]Record{{"reps": 5}}).Exec(ctx)
	if res.Error != nil {
		t.Fatalf("bulk insert: %v", res.Error)
	}
	if _, ok := res.Data.([]Record); !ok {
		t.Errorf("bulk insert data type = %T, want []Record", res.Data)
	}

	res = e.From("workout_exercises").Insert(Record{"reps": 8}).Exec(ctx)
	if res.Error != nil {
		t.Fatalf("single insert: %v", res.Error)
	}
	if _, ok := res.Data.(Record); !ok {
		t.Errorf("single insert data type = %T, want Record", res.Data)
	}
}

// TestSelectFiltersAndCompose verifies equality filters AND-compose and
// survive the JSON number round trip.
func TestSelectFiltersAndCompose(t *testing.T) {
	e := newTestEmulator(t)
	ctx := context.Background()

	rows := []Record{
		{"workout_id": "w1", "exercise_id": "ex-squat", "set_number": 1},
		{"workout_id": "w1", "exercise_id": "ex-squat", "set_number": 2},
		{"workout_id": "w1", "exercise_id": "ex-lunge", "set_number": 1},
		{"workout_id": "w2", "exercise_id": "ex-squat", "set_number": 1},
	}
	if res := e.From("workout_exercises").InsertMany(rows).Exec(ctx); res.Error != nil {
		t.Fatal(res.Error)
	}

	res := e.From("workout_exercises").Select().
		Eq("workout_id", "w1").
		Eq("exercise_id", "ex-squat").
		Exec(ctx)
	if res.Error != nil {
		t.Fatal(res.Error)
	}
	if got := len(res.Records()); got != 2 {
		t.Errorf("matched %d records, want 2", got)
	}

	// Numeric filter matches against JSON-decoded float64 values.
	res = e.From("workout_exercises").Select().Eq("set_number", 2).Exec(ctx)
	if got := len(res.Records()); got != 1 {
		t.Errorf("numeric eq matched %d records, want 1", got)
	}
}

// TestSelectInFilter verifies set-membership filtering.
func TestSelectInFilter(t *testing.T) {
	e := newTestEmulator(t)
	ctx := context.Background()

	for _, id := range []string{"w1", "w2", "w3"} {
		e.From("workout_exercises").Insert(Record{"workout_id": id}).Exec(ctx)
	}

	res := e.From("workout_exercises").Select().
		In("workout_id", []any{"w1", "w3"}).
		Exec(ctx)
	if got := len(res.Records()); got != 2 {
		t.Errorf("in filter matched %d records, want 2", got)
	}
}

// TestSelectOrderAndLimit verifies ordering both directions plus the limit
// cap.
func TestSelectOrderAndLimit(t *testing.T) {
	e := newTestEmulator(t)
	ctx := context.Background()

	for _, d := range []string{"2024-02-01", "2024-01-01", "2024-03-01"} {
		e.From("workouts").Insert(Record{"workout_date": d}).Exec(ctx)
	}

	res := e.From("workouts").Select().Order("workout_date", false).Exec(ctx)
	records := res.Records()
	if records[0]["workout_date"] != "2024-01-01" || records[2]["workout_date"] != "2024-03-01" {
		t.Errorf("ascending order wrong: %v", records)
	}

	res = e.From("workouts").Select().Order("workout_date", true).Limit(1).Exec(ctx)
	records = res.Records()
	if len(records) != 1 || records[0]["workout_date"] != "2024-03-01" {
		t.Errorf("descending+limit wrong: %v", records)
	}
}

// TestSelectOrderDescendingConsistent verifies descending order is the
// strict inversion of ascending, with ties keeping insertion order under the
// stable sort, and that records missing the order column are never dropped.
func TestSelectOrderDescendingConsistent(t *testing.T) {
	e := newTestEmulator(t)
	ctx := context.Background()

	e.From("workouts").InsertMany([]Record{
		{"name": "a", "workout_date": "2024-01-01"},
		{"name": "b", "workout_date": "2024-03-01"},
		{"name": "c", "workout_date": "2024-03-01"},
		{"name": "d", "workout_date": "2024-02-01"},
	}).Exec(ctx)

	records := e.From("workouts").Select().Order("workout_date", true).Exec(ctx).Records()
	if len(records) != 4 {
		t.Fatalf("got %d records, want 4", len(records))
	}
	wantNames := []string{"b", "c", "d", "a"}
	for i, name := range wantNames {
		if records[i]["name"] != name {
			t.Errorf("records[%d] = %v, want %s", i, records[i]["name"], name)
		}
	}

	// A record without the order column compares neither less nor greater
	// than any other; it must still survive the sort.
	e.From("workouts").Insert(Record{"name": "e"}).Exec(ctx)
	records = e.From("workouts").Select().Order("workout_date", true).Exec(ctx).Records()
	if len(records) != 5 {
		t.Errorf("got %d records with an unordered one present, want 5", len(records))
	}
}

// TestSingleNoMatch verifies Single() resolves to nil data, nil error when
// nothing matches.
func TestSingleNoMatch(t *testing.T) {
	e := newTestEmulator(t)
	res := e.From("workouts").Select().Eq("id", "nope").Single().Exec(context.Background())
	if res.Error != nil {
		t.Errorf("error = %v, want nil", res.Error)
	}
	if res.Data != nil {
		t.Errorf("data = %v, want nil", res.Data)
	}
}

// TestUpdateMergesAndStamps verifies update shallow-merges the patch into
// every match and refreshes updated_at.
func TestUpdateMergesAndStamps(t *testing.T) {
	e := newTestEmulator(t)
	ctx := context.Background()

	ins := e.From("workouts").Insert(Record{"focus": "Legs", "notes": "keep me"}).Exec(ctx)
	id := ins.Record()["id"].(string)

	res := e.From("workouts").Update(Record{"focus": "Cardio"}).Eq("id", id).Exec(ctx)
	if res.Error != nil {
		t.Fatalf("update: %v", res.Error)
	}
	rec := res.Record()
	if rec["focus"] != "Cardio" {
		t.Errorf("focus = %v, want Cardio", rec["focus"])
	}
	if rec["notes"] != "keep me" {
		t.Errorf("notes = %v, want untouched", rec["notes"])
	}
	if ts, _ := rec["updated_at"].(string); ts == "" {
		t.Error("updated_at not stamped")
	}
}

// TestUpdateZeroMatches verifies the contract that a no-match update is not
// an error: nil data, nil error.
func TestUpdateZeroMatches(t *testing.T) {
	e := newTestEmulator(t)
	res := e.From("workouts").Update(Record{"focus": "Other"}).Eq("id", "missing").Exec(context.Background())
	if res.Error != nil {
		t.Errorf("error = %v, want nil", res.Error)
	}
	if res.Data != nil {
		t.Errorf("data = %v, want nil", res.Data)
	}
}

// TestDeleteRemovesMatchesOnly verifies delete removes exactly the filtered
// records and always resolves to nil data, nil error.
func TestDeleteRemovesMatchesOnly(t *testing.T) {
	e := newTestEmulator(t)
	ctx := context.Background()

	e.From("workout_exercises").InsertMany([]Record{
		{"workout_id": "w1", "exercise_id": "ex-squat"},
		{"workout_id": "w1", "exercise_id": "ex-lunge"},
		{"workout_id": "w2", "exercise_id": "ex-squat"},
	}).Exec(ctx)

	res := e.From("workout_exercises").Delete().
		Eq("workout_id", "w1").
		Eq("exercise_id", "ex-squat").
		Exec(ctx)
	if res.Error != nil || res.Data != nil {
		t.Fatalf("delete envelope = %+v, want nil/nil", res)
	}

	left := e.From("workout_exercises").Select().Exec(ctx).Records()
	if len(left) != 2 {
		t.Fatalf("got %d records after delete, want 2", len(left))
	}

	// Deleting nothing is also nil/nil.
	res = e.From("workout_exercises").Delete().Eq("workout_id", "w9").Exec(ctx)
	if res.Error != nil || res.Data != nil {
		t.Errorf("no-op delete envelope = %+v, want nil/nil", res)
	}
}

// TestUpsertIdempotent verifies that upserting the same payload twice leaves
// the store equal to one upsert, ignoring the update timestamp.
func TestUpsertIdempotent(t *testing.T) {
	e := newTestEmulator(t)
	ctx := context.Background()

	rec := Record{"id": "mg-legs", "name": "Legs"}
	first := e.From("muscle_groups").Upsert(rec, "id").Exec(ctx)
	if first.Error != nil {
		t.Fatalf("first upsert: %v", first.Error)
	}
	second := e.From("muscle_groups").Upsert(rec, "id").Exec(ctx)
	if second.Error != nil {
		t.Fatalf("second upsert: %v", second.Error)
	}

	all := e.From("muscle_groups").Select().Exec(ctx).Records()
	if len(all) != 1 {
		t.Fatalf("got %d records, want 1", len(all))
	}
	if all[0]["name"] != "Legs" || all[0]["id"] != "mg-legs" {
		t.Errorf("record = %v", all[0])
	}
}

// TestUpsertMergesExisting verifies an upsert on an existing conflict key
// merges fields instead of appending a second record.
func TestUpsertMergesExisting(t *testing.T) {
	e := newTestEmulator(t)
	ctx := context.Background()

	e.From("exercises").Upsert(Record{"id": "ex-squat", "name": "Squat"}, "id").Exec(ctx)
	res := e.From("exercises").Upsert(Record{"id": "ex-squat", "name": "Squats", "muscle_group_id": "mg-legs"}, "id").Exec(ctx)
	if res.Error != nil {
		t.Fatal(res.Error)
	}

	all := e.From("exercises").Select().Exec(ctx).Records()
	if len(all) != 1 {
		t.Fatalf("got %d records, want 1", len(all))
	}
	if all[0]["name"] != "Squats" || all[0]["muscle_group_id"] != "mg-legs" {
		t.Errorf("merged record = %v", all[0])
	}
}

// TestBuilderImmutability verifies that extending a shared base query does
// not leak filters between the derived chains.
func TestBuilderImmutability(t *testing.T) {
	e := newTestEmulator(t)
	ctx := context.Background()

	e.From("workouts").InsertMany([]Record{
		{"user_id": "u1", "focus": "Legs"},
		{"user_id": "u1", "focus": "Cardio"},
		{"user_id": "u2", "focus": "Legs"},
	}).Exec(ctx)

	base := e.From("workouts").Select().Eq("user_id", "u1")
	legs := base.Eq("focus", "Legs")
	cardio := base.Eq("focus", "Cardio")

	if got := len(legs.Exec(ctx).Records()); got != 1 {
		t.Errorf("legs chain matched %d, want 1", got)
	}
	if got := len(cardio.Exec(ctx).Records()); got != 1 {
		t.Errorf("cardio chain matched %d, want 1", got)
	}
	if got := len(base.Exec(ctx).Records()); got != 2 {
		t.Errorf("base chain matched %d, want 2", got)
	}
}

// TestEmulatorNeverErrors exercises every operation kind and asserts the
// envelope's error stays nil throughout.
func TestEmulatorNeverErrors(t *testing.T) {
	e := newTestEmulator(t)
	ctx := context.Background()

	results := []Result{
		e.From("t").Select().Exec(ctx),
		e.From("t").Insert(Record{"a": 1}).Exec(ctx),
		e.From("t").Update(Record{"a": 2}).Eq("a", 99).Exec(ctx),
		e.From("t").Delete().Eq("a", 99).Exec(ctx),
		e.From("t").Upsert(Record{"id": "x"}, "id").Exec(ctx),
		e.From("t").Select().Single().Eq("a", 99).Exec(ctx),
	}
	for i, res := range results {
		if res.Error != nil {
			t.Errorf("operation %d error = %v, want nil", i, res.Error)
		}
	}
}

// TestEmulatorClockStamps verifies timestamps come from the emulator clock.
func TestEmulatorClockStamps(t *testing.T) {
	e := newTestEmulator(t)
	fixed := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	e.now = func() time.Time { return fixed }

	res := e.From("workouts").Insert(Record{"focus": "Legs"}).Exec(context.Background())
	if got := res.Record()["created_at"]; got != "2024-06-01T12:00:00Z" {
		t.Errorf("created_at = %v, want fixed stamp", got)
	}
}
