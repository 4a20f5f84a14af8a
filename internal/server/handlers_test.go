package server

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/claude/liftlog/internal/auth"
	"github.com/claude/liftlog/internal/dataclient"
	"github.com/claude/liftlog/internal/localstore"
	"github.com/claude/liftlog/internal/models"
	"github.com/claude/liftlog/internal/workouts"
)

type testEnv struct {
	server *Server
	store  *localstore.Store
	ds     dataclient.Datastore
}

func newTestServer(t *testing.T) *testEnv {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	store, err := localstore.Open(t.TempDir(), log)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	ds := dataclient.NewEmulator(store, log)
	svc := workouts.New(ds, log)
	if err := svc.SeedCatalog(context.Background()); err != nil {
		t.Fatalf("seed: %v", err)
	}

	devUser := auth.NewUser("tester", "Test User", "")
	return &testEnv{
		server: New(svc, store, devUser, time.Sunday, log),
		store:  store,
		ds:     ds,
	}
}

func (env *testEnv) request(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	env.server.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decoding response %q: %v", rec.Body.String(), err)
	}
	return v
}

func TestMeFallsBackToDevUser(t *testing.T) {
	env := newTestServer(t)

	rec := env.request(t, http.MethodGet, "/api/v1/me", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	user := decodeBody[models.User](t, rec)
	if user.ID != "mock-user-tester" || user.Login != "tester" {
		t.Errorf("user = %+v", user)
	}
}

func TestWorkoutLifecycle(t *testing.T) {
	env := newTestServer(t)

	rec := env.request(t, http.MethodPost, "/api/v1/workouts",
		`{"workout_date":"2075-03-12","focus":"Legs","notes":"pr day"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d: %s", rec.Code, rec.Body.String())
	}
	created := decodeBody[models.Workout](t, rec)
	if created.ID == "" || created.Focus != models.FocusLegs {
		t.Fatalf("created = %+v", created)
	}

	rec = env.request(t, http.MethodGet, "/api/v1/workouts", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d", rec.Code)
	}
	list := decodeBody[[]models.Workout](t, rec)
	if len(list) != 1 || list[0].ID != created.ID {
		t.Fatalf("list = %+v", list)
	}

	rec = env.request(t, http.MethodPut, "/api/v1/workouts/"+created.ID,
		`{"workout_date":"2075-03-13","focus":"Cardio","notes":""}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("update status = %d: %s", rec.Code, rec.Body.String())
	}
	updated := decodeBody[models.Workout](t, rec)
	if updated.WorkoutDate != "2075-03-13" || updated.Focus != models.FocusCardio {
		t.Errorf("updated = %+v", updated)
	}

	rec = env.request(t, http.MethodDelete, "/api/v1/workouts/"+created.ID, "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d", rec.Code)
	}

	rec = env.request(t, http.MethodGet, "/api/v1/workouts/"+created.ID, "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("get after delete status = %d", rec.Code)
	}
}

func TestListWorkoutsFilters(t *testing.T) {
	env := newTestServer(t)

	for _, body := range []string{
		`{"workout_date":"2075-03-01","focus":"Legs"}`,
		`{"workout_date":"2075-03-12","focus":"Cardio"}`,
		`{"workout_date":"2075-02-15","focus":"Legs"}`,
	} {
		if rec := env.request(t, http.MethodPost, "/api/v1/workouts", body); rec.Code != http.StatusCreated {
			t.Fatalf("create status = %d", rec.Code)
		}
	}

	rec := env.request(t, http.MethodGet, "/api/v1/workouts?from=2075-03-01&to=2075-03-31", "")
	ranged := decodeBody[[]models.Workout](t, rec)
	if len(ranged) != 2 {
		t.Errorf("range filter returned %d, want 2", len(ranged))
	}

	rec = env.request(t, http.MethodGet, "/api/v1/workouts?focus=Legs", "")
	legs := decodeBody[[]models.Workout](t, rec)
	if len(legs) != 2 {
		t.Errorf("focus filter returned %d, want 2", len(legs))
	}

	rec = env.request(t, http.MethodGet, "/api/v1/workouts?from=2075-03-01&focus=Legs", "")
	both := decodeBody[[]models.Workout](t, rec)
	if len(both) != 1 || both[0].WorkoutDate != "2075-03-01" {
		t.Errorf("combined filter = %+v", both)
	}
}

func TestCreateWorkoutRejectsBadInput(t *testing.T) {
	env := newTestServer(t)

	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{"workout_date":`},
		{"bad date", `{"workout_date":"12/03/2075","focus":"Legs"}`},
		{"unknown focus", `{"workout_date":"2075-03-12","focus":"Yoga"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.request(t, http.MethodPost, "/api/v1/workouts", tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
		})
	}
}

func TestGetWorkoutNotFound(t *testing.T) {
	env := newTestServer(t)
	rec := env.request(t, http.MethodGet, "/api/v1/workouts/nope", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestUpdateWorkoutNotFound(t *testing.T) {
	env := newTestServer(t)
	rec := env.request(t, http.MethodPut, "/api/v1/workouts/nope",
		`{"workout_date":"2075-03-12","focus":"Legs"}`)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestReplaceSetsEndpoint(t *testing.T) {
	env := newTestServer(t)

	rec := env.request(t, http.MethodPost, "/api/v1/workouts",
		`{"workout_date":"2075-03-12","focus":"Legs"}`)
	created := decodeBody[models.Workout](t, rec)

	rec = env.request(t, http.MethodPut,
		"/api/v1/workouts/"+created.ID+"/exercises/ex-squat/sets",
		`{"sets":[{"reps":5,"weight":100},{"reps":5,"weight":100}]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	sets := decodeBody[[]models.WorkoutExercise](t, rec)
	if len(sets) != 2 {
		t.Fatalf("got %d sets", len(sets))
	}
	if sets[0].SetNumber != 1 || sets[1].SetNumber != 2 {
		t.Errorf("set numbers = %d, %d", sets[0].SetNumber, sets[1].SetNumber)
	}
	if sets[0].ExerciseName != "Squats" {
		t.Errorf("name = %q", sets[0].ExerciseName)
	}

	// Clearing replaces with nothing and still returns a JSON array.
	rec = env.request(t, http.MethodPut,
		"/api/v1/workouts/"+created.ID+"/exercises/ex-squat/sets", `{"sets":[]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("clear status = %d", rec.Code)
	}
	if strings.TrimSpace(rec.Body.String()) != "[]" {
		t.Errorf("clear body = %s", rec.Body.String())
	}
}

func TestListCatalogEndpoints(t *testing.T) {
	env := newTestServer(t)

	rec := env.request(t, http.MethodGet, "/api/v1/exercises", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("exercises status = %d", rec.Code)
	}
	exercises := decodeBody[[]models.Exercise](t, rec)
	if len(exercises) == 0 {
		t.Error("no exercises returned")
	}

	rec = env.request(t, http.MethodGet, "/api/v1/exercises?muscle_group=mg-legs", "")
	filtered := decodeBody[[]models.Exercise](t, rec)
	if len(filtered) == 0 || len(filtered) >= len(exercises) {
		t.Errorf("filter returned %d of %d", len(filtered), len(exercises))
	}

	rec = env.request(t, http.MethodGet, "/api/v1/muscle-groups", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("muscle groups status = %d", rec.Code)
	}
	groups := decodeBody[[]models.MuscleGroup](t, rec)
	if len(groups) == 0 {
		t.Error("no muscle groups returned")
	}
}

func TestSignInStoresIdentityAndMigrates(t *testing.T) {
	env := newTestServer(t)
	ctx := context.Background()

	// A record saved before identities became deterministic carries a
	// timestamp-derived owner id.
	res := env.ds.From("workouts").Insert(dataclient.Record{
		"user_id":      "mock-1700000000000-1",
		"workout_date": "2075-01-01",
		"focus":        "Legs",
	}).Exec(ctx)
	if res.Error != nil {
		t.Fatal(res.Error)
	}

	rec := env.request(t, http.MethodPost, "/api/v1/auth/signin",
		`{"login":"alice@example.com","display_name":"Alice"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("signin status = %d: %s", rec.Code, rec.Body.String())
	}
	user := decodeBody[models.User](t, rec)
	if user.ID != "mock-user-alice-example-com" {
		t.Errorf("user id = %s", user.ID)
	}

	// Identity now resolves from the store, and the legacy workout belongs
	// to the signed-in user.
	rec = env.request(t, http.MethodGet, "/api/v1/me", "")
	me := decodeBody[models.User](t, rec)
	if me.ID != user.ID {
		t.Errorf("me = %+v", me)
	}

	rec = env.request(t, http.MethodGet, "/api/v1/workouts", "")
	list := decodeBody[[]models.Workout](t, rec)
	if len(list) != 1 {
		t.Fatalf("migrated workout not visible: %+v", list)
	}
	if list[0].UserID != user.ID {
		t.Errorf("owner = %s", list[0].UserID)
	}
}

func TestSignInRequiresLogin(t *testing.T) {
	env := newTestServer(t)
	rec := env.request(t, http.MethodPost, "/api/v1/auth/signin", `{"login":""}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestSignOutClearsIdentity(t *testing.T) {
	env := newTestServer(t)

	env.request(t, http.MethodPost, "/api/v1/auth/signin", `{"login":"alice"}`)
	rec := env.request(t, http.MethodPost, "/api/v1/auth/signout", "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("signout status = %d", rec.Code)
	}

	rec = env.request(t, http.MethodGet, "/api/v1/me", "")
	me := decodeBody[models.User](t, rec)
	if me.ID != "mock-user-tester" {
		t.Errorf("me after signout = %+v, want dev fallback", me)
	}
}

func TestProgressEndpoints(t *testing.T) {
	env := newTestServer(t)

	today := time.Now().Format("2006-01-02")
	rec := env.request(t, http.MethodPost, "/api/v1/workouts",
		`{"workout_date":"`+today+`","focus":"Legs"}`)
	created := decodeBody[models.Workout](t, rec)
	env.request(t, http.MethodPut,
		"/api/v1/workouts/"+created.ID+"/exercises/ex-squat/sets",
		`{"sets":[{"reps":5,"weight":100}]}`)

	rec = env.request(t, http.MethodGet, "/api/v1/stats/dashboard", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("dashboard status = %d", rec.Code)
	}
	dash := decodeBody[struct {
		TotalWorkouts int `json:"total_workouts"`
	}](t, rec)
	if dash.TotalWorkouts != 1 {
		t.Errorf("dashboard = %+v", dash)
	}

	rec = env.request(t, http.MethodGet, "/api/v1/progress/weekly", "")
	weekly := decodeBody[[]map[string]any](t, rec)
	if len(weekly) != 13 {
		t.Errorf("weekly has %d points", len(weekly))
	}

	rec = env.request(t, http.MethodGet, "/api/v1/progress/monthly", "")
	monthly := decodeBody[[]map[string]any](t, rec)
	if len(monthly) != 7 {
		t.Errorf("monthly has %d points", len(monthly))
	}

	rec = env.request(t, http.MethodGet, "/api/v1/progress/records", "")
	records := decodeBody[[]map[string]any](t, rec)
	if len(records) != 1 {
		t.Errorf("records = %+v", records)
	}
}

func TestCalendarEndpoint(t *testing.T) {
	env := newTestServer(t)

	env.request(t, http.MethodPost, "/api/v1/workouts",
		`{"workout_date":"2075-03-12","focus":"Legs"}`)

	rec := env.request(t, http.MethodGet, "/api/v1/calendar?month=2075-03", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	days := decodeBody[[]map[string]any](t, rec)
	if len(days) != 1 {
		t.Errorf("days = %+v", days)
	}

	rec = env.request(t, http.MethodGet, "/api/v1/calendar?month=march", "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad month status = %d", rec.Code)
	}
}

func TestCORSPreflight(t *testing.T) {
	env := newTestServer(t)
	rec := env.request(t, http.MethodOptions, "/api/v1/workouts", "")
	if rec.Code != http.StatusNoContent {
		t.Errorf("preflight status = %d", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Error("missing CORS headers")
	}
}
