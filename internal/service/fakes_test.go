package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"fitwell/backend/internal/domain"
	"fitwell/backend/internal/planner"
	"fitwell/backend/internal/repository"
)

var testNow = time.Date(2024, 6, 1, 9, 30, 0, 0, time.UTC)

func fixedClock() time.Time { return testNow }

func completeUser() *domain.User {
	birth := time.Date(1994, 1, 15, 0, 0, 0, 0, time.UTC)
	return &domain.User{
		ID:    primitive.NewObjectID(),
		Name:  "Sam",
		Email: "sam@example.com",
		Profile: domain.Profile{
			HeightCm:      175,
			WeightKg:      70,
			BirthDate:     &birth,
			Gender:        domain.GenderMale,
			FitnessGoal:   domain.GoalLoseWeight,
			ActivityLevel: domain.ActivityModerate,
			FitnessLevel:  domain.LevelBeginner,
		},
	}
}

// --- users ---

type fakeUsers struct {
	mu    sync.Mutex
	users map[primitive.ObjectID]*domain.User
}

func newFakeUsers(users ...*domain.User) *fakeUsers {
	f := &fakeUsers{users: make(map[primitive.ObjectID]*domain.User)}
	for _, u := range users {
		f.users[u.ID] = u
	}
	return f
}

func (f *fakeUsers) Create(_ context.Context, user *domain.User) (primitive.ObjectID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == user.Email {
			return primitive.NilObjectID, repository.ErrDuplicate
		}
	}
	user.ID = primitive.NewObjectID()
	cp := *user
	f.users[user.ID] = &cp
	return user.ID, nil
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeUsers) GetByID(_ context.Context, id primitive.ObjectID) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUsers) UpdateProfile(_ context.Context, id primitive.ObjectID, profile domain.Profile) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.Profile = profile
	return nil
}

// --- generator ---

// recordingGenerator keeps every request and delegates to the embedded
// generator.
type recordingGenerator struct {
	planner.Generator
	mu       sync.Mutex
	meals    []planner.MealRequest
	workouts []planner.WorkoutRequest
}

func (g *recordingGenerator) GenerateMealPlan(ctx context.Context, req planner.MealRequest) (*planner.MealPlan, error) {
	g.mu.Lock()
	g.meals = append(g.meals, req)
	g.mu.Unlock()
	return g.Generator.GenerateMealPlan(ctx, req)
}

func (g *recordingGenerator) GenerateWorkout(ctx context.Context, req planner.WorkoutRequest) (*planner.WorkoutPlan, error) {
	g.mu.Lock()
	g.workouts = append(g.workouts, req)
	g.mu.Unlock()
	return g.Generator.GenerateWorkout(ctx, req)
}

// --- unit of work ---

type fakeUnitOfWork struct {
	mu  sync.Mutex
	txs int
}

func (u *fakeUnitOfWork) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.txs++
	return fn(ctx)
}

// --- meals ---

type fakeMeals struct {
	mu    sync.Mutex
	meals []domain.Meal
}

func (f *fakeMeals) CountFrom(_ context.Context, userID primitive.ObjectID, from time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, m := range f.meals {
		if m.UserID == userID && !m.Date.Before(from) {
			n++
		}
	}
	return n, nil
}

func (f *fakeMeals) DeleteFrom(_ context.Context, userID primitive.ObjectID, from time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	kept := f.meals[:0]
	var n int64
	for _, m := range f.meals {
		if m.UserID == userID && !m.Date.Before(from) {
			n++
			continue
		}
		kept = append(kept, m)
	}
	f.meals = kept
	return n, nil
}

func (f *fakeMeals) InsertMany(_ context.Context, meals []domain.Meal) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range meals {
		m.Items = append([]domain.MealItem(nil), m.Items...)
		f.meals = append(f.meals, m)
	}
	return nil
}

func (f *fakeMeals) ListRange(_ context.Context, userID primitive.ObjectID, from, to time.Time) ([]domain.Meal, error) {
	return f.filter(func(m domain.Meal) bool {
		return m.UserID == userID && !m.Date.Before(from) && m.Date.Before(to)
	}), nil
}

func (f *fakeMeals) ListFrom(_ context.Context, userID primitive.ObjectID, from time.Time) ([]domain.Meal, error) {
	return f.filter(func(m domain.Meal) bool {
		return m.UserID == userID && !m.Date.Before(from)
	}), nil
}

func (f *fakeMeals) filter(keep func(domain.Meal) bool) []domain.Meal {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []domain.Meal{}
	for _, m := range f.meals {
		if keep(m) {
			m.Items = append([]domain.MealItem(nil), m.Items...)
			out = append(out, m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

func (f *fakeMeals) GetByItemID(_ context.Context, userID, itemID primitive.ObjectID) (*domain.Meal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range f.meals {
		if m.UserID != userID {
			continue
		}
		if _, ok := m.Item(itemID); ok {
			m.Items = append([]domain.MealItem(nil), m.Items...)
			return &m, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeMeals) SetItemImage(_ context.Context, mealID, itemID primitive.ObjectID, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.meals {
		if f.meals[i].ID != mealID {
			continue
		}
		if it, ok := f.meals[i].Item(itemID); ok {
			it.ImageKey = key
			return nil
		}
	}
	return repository.ErrNotFound
}

func (f *fakeMeals) batches(userID primitive.ObjectID, from time.Time) map[string]int {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string]int)
	for _, m := range f.meals {
		if m.UserID == userID && !m.Date.Before(from) {
			out[m.BatchID]++
		}
	}
	return out
}

type fakeMealTracking struct {
	mu     sync.Mutex
	events []domain.MealItemTracking
}

func (f *fakeMealTracking) Append(_ context.Context, rec *domain.MealItemTracking) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec.ID = primitive.NewObjectID()
	f.events = append(f.events, *rec)
	return nil
}

func (f *fakeMealTracking) ListByItems(_ context.Context, userID primitive.ObjectID, itemIDs []primitive.ObjectID) ([]domain.MealItemTracking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	want := make(map[primitive.ObjectID]bool, len(itemIDs))
	for _, id := range itemIDs {
		want[id] = true
	}
	out := []domain.MealItemTracking{}
	for _, ev := range f.events {
		if ev.UserID == userID && want[ev.ItemID] {
			out = append(out, ev)
		}
	}
	return out, nil
}

// --- workouts ---

type fakeWorkouts struct {
	mu       sync.Mutex
	workouts []*domain.Workout
}

func (f *fakeWorkouts) Create(_ context.Context, w *domain.Workout) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if w.Kind == domain.WorkoutDaily {
		for _, x := range f.workouts {
			if x.Kind == domain.WorkoutDaily && x.UserID == w.UserID && x.Date.Equal(w.Date) {
				return repository.ErrDuplicate
			}
		}
	}
	w.ID = primitive.NewObjectID()
	cp := *w
	f.workouts = append(f.workouts, &cp)
	return nil
}

func (f *fakeWorkouts) GetByID(_ context.Context, id primitive.ObjectID) (*domain.Workout, error) {
	return f.first(func(w *domain.Workout) bool { return w.ID == id })
}

func (f *fakeWorkouts) GetDaily(_ context.Context, userID primitive.ObjectID, date time.Time) (*domain.Workout, error) {
	return f.first(func(w *domain.Workout) bool {
		return w.Kind == domain.WorkoutDaily && w.UserID == userID && w.Date.Equal(date)
	})
}

func (f *fakeWorkouts) LatestDailyBefore(_ context.Context, userID primitive.ObjectID, date time.Time) (*domain.Workout, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var best *domain.Workout
	for _, w := range f.workouts {
		if w.Kind != domain.WorkoutDaily || w.UserID != userID || !w.Date.Before(date) {
			continue
		}
		if best == nil || w.Date.After(best.Date) {
			best = w
		}
	}
	if best == nil {
		return nil, repository.ErrNotFound
	}
	cp := *best
	return &cp, nil
}

func (f *fakeWorkouts) first(match func(*domain.Workout) bool) (*domain.Workout, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, w := range f.workouts {
		if match(w) {
			cp := *w
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeWorkouts) activeProgram(w *domain.Workout, userID primitive.ObjectID, from time.Time) bool {
	return w.Kind == domain.WorkoutProgram && w.UserID == userID && !w.EndDate.Before(from)
}

func (f *fakeWorkouts) CountProgramsEndingFrom(_ context.Context, userID primitive.ObjectID, from time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, w := range f.workouts {
		if f.activeProgram(w, userID, from) {
			n++
		}
	}
	return n, nil
}

func (f *fakeWorkouts) DeleteProgramsEndingFrom(_ context.Context, userID primitive.ObjectID, from time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	kept := f.workouts[:0]
	var n int64
	for _, w := range f.workouts {
		if f.activeProgram(w, userID, from) {
			n++
			continue
		}
		kept = append(kept, w)
	}
	f.workouts = kept
	return n, nil
}

func (f *fakeWorkouts) ListSince(_ context.Context, userID primitive.ObjectID, from time.Time) ([]domain.Workout, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []domain.Workout{}
	for _, w := range f.workouts {
		if w.UserID == userID && !w.Date.Before(from) {
			out = append(out, *w)
		}
	}
	return out, nil
}

func (f *fakeWorkouts) SetFeedback(_ context.Context, id primitive.ObjectID, fb domain.Feedback, notes string, completedAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, w := range f.workouts {
		if w.ID == id {
			w.Feedback, w.FeedbackNotes, w.CompletedAt = fb, notes, &completedAt
			return nil
		}
	}
	return repository.ErrNotFound
}

type trackingKey struct {
	workoutID primitive.ObjectID
	unit      domain.TrackingUnit
	dayIndex  int
	index     int
}

type fakeWorkoutTracking struct {
	mu   sync.Mutex
	rows map[trackingKey]*domain.WorkoutTracking
}

func newFakeWorkoutTracking() *fakeWorkoutTracking {
	return &fakeWorkoutTracking{rows: make(map[trackingKey]*domain.WorkoutTracking)}
}

func (f *fakeWorkoutTracking) Upsert(_ context.Context, rec *domain.WorkoutTracking) (*domain.WorkoutTracking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	k := trackingKey{rec.WorkoutID, rec.Unit, rec.DayIndex, rec.Index}
	row, ok := f.rows[k]
	if !ok {
		row = &domain.WorkoutTracking{ID: primitive.NewObjectID()}
		f.rows[k] = row
	}
	id := row.ID
	*row = *rec
	row.ID = id
	cp := *row
	return &cp, nil
}

func (f *fakeWorkoutTracking) ListByWorkout(_ context.Context, workoutID primitive.ObjectID) ([]domain.WorkoutTracking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []domain.WorkoutTracking{}
	for k, row := range f.rows {
		if k.workoutID == workoutID {
			out = append(out, *row)
		}
	}
	return out, nil
}

// --- health ---

type fakeHealth struct {
	mu        sync.Mutex
	daily     map[time.Time]domain.HealthData
	heartRate map[time.Time]domain.HeartRateSample
	sleep     map[time.Time]domain.SleepRecord
	water     map[time.Time]domain.WaterIntake
}

func newFakeHealth() *fakeHealth {
	return &fakeHealth{
		daily:     make(map[time.Time]domain.HealthData),
		heartRate: make(map[time.Time]domain.HeartRateSample),
		sleep:     make(map[time.Time]domain.SleepRecord),
		water:     make(map[time.Time]domain.WaterIntake),
	}
}

func (f *fakeHealth) UpsertDaily(_ context.Context, d *domain.HealthData) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.daily[d.Date] = *d
	return nil
}

func (f *fakeHealth) ListDaily(_ context.Context, _ primitive.ObjectID, from time.Time) ([]domain.HealthData, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []domain.HealthData{}
	for d, rec := range f.daily {
		if !d.Before(from) {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (f *fakeHealth) InsertHeartRate(_ context.Context, samples []domain.HeartRateSample) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, s := range samples {
		if _, ok := f.heartRate[s.Timestamp]; ok {
			continue
		}
		f.heartRate[s.Timestamp] = s
		n++
	}
	return n, nil
}

func (f *fakeHealth) ListHeartRate(_ context.Context, _ primitive.ObjectID, from time.Time) ([]domain.HeartRateSample, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []domain.HeartRateSample{}
	for ts, s := range f.heartRate {
		if !ts.Before(from) {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out, nil
}

func (f *fakeHealth) UpsertSleep(_ context.Context, rec *domain.SleepRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sleep[rec.Date] = *rec
	return nil
}

func (f *fakeHealth) ListSleep(_ context.Context, _ primitive.ObjectID, from time.Time) ([]domain.SleepRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []domain.SleepRecord{}
	for d, rec := range f.sleep {
		if !d.Before(from) {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (f *fakeHealth) UpsertWater(_ context.Context, rec *domain.WaterIntake) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.water[rec.Date] = *rec
	return nil
}

func (f *fakeHealth) GetWater(_ context.Context, _ primitive.ObjectID, date time.Time) (*domain.WaterIntake, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.water[date]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &rec, nil
}
