package study_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-scheduler/internal/domain"
	"github.com/phrazzld/scry-scheduler/internal/domain/session"
	"github.com/phrazzld/scry-scheduler/internal/domain/srs"
	"github.com/phrazzld/scry-scheduler/internal/mocks"
	"github.com/phrazzld/scry-scheduler/internal/platform/memory"
	"github.com/phrazzld/scry-scheduler/internal/platform/metrics"
	"github.com/phrazzld/scry-scheduler/internal/service/review"
	"github.com/phrazzld/scry-scheduler/internal/service/study"
	"github.com/phrazzld/scry-scheduler/internal/store"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 03:00 UTC is 10:00 in UTC+7.
var testNow = time.Date(2024, 5, 20, 3, 0, 0, 0, time.UTC)

type fixture struct {
	clock   *srs.Clock
	srs     srs.Service
	store   *memory.Store
	metrics *metrics.Collector
	service study.Service
	userID  uuid.UUID
}

func newFixture(t *testing.T, defaultMaxTerms int) *fixture {
	t.Helper()
	clock := srs.NewFixedClock(testNow, srs.DefaultUTCOffset)
	params := srs.NewDefaultParams()
	srsService := srs.NewServiceWithParams(params, clock)
	items := memory.NewStore(nil)
	collector := metrics.NewCollector("test")
	composer := session.NewSeededComposer(params, session.NewResolver(clock), 42)

	return &fixture{
		clock:   clock,
		srs:     srsService,
		store:   items,
		metrics: collector,
		service: study.NewService(items, srsService, composer, collector, defaultMaxTerms, nil),
		userID:  uuid.New(),
	}
}

// seedNew stores n never-reviewed items.
func (f *fixture) seedNew(t *testing.T, n int) []*domain.MemoryItem {
	t.Helper()
	items := make([]*domain.MemoryItem, 0, n)
	for i := 0; i < n; i++ {
		item, err := domain.NewMemoryItem(f.userID, "front", "back")
		require.NoError(t, err)
		items = append(items, item)
	}
	require.NoError(t, f.store.CreateItems(context.Background(), items))
	return items
}

// seedReviewed stores an item with the given strength due dayOffset days from today.
func (f *fixture) seedReviewed(t *testing.T, strength, dayOffset int) *domain.MemoryItem {
	t.Helper()
	item, err := domain.NewMemoryItem(f.userID, "front", "back")
	require.NoError(t, err)
	reviewed := testNow.AddDate(0, 0, -3)
	due := f.clock.StartOfDay(testNow).AddDate(0, 0, dayOffset)
	item.Strength = strength
	item.LastReviewedAt = &reviewed
	item.NextDueAt = &due
	require.NoError(t, f.store.CreateItems(context.Background(), []*domain.MemoryItem{item}))
	return item
}

func intake(maxTerms int) study.StartOptions {
	return study.StartOptions{
		Mode:               study.ModeIntake,
		MaxTerms:           maxTerms,
		IncludeNewTerms:    true,
		PrioritizeDueTerms: true,
	}
}

func TestNewService_RequiresDependencies(t *testing.T) {
	t.Parallel() // Enable parallel execution
	assert.Panics(t, func() { study.NewService(nil, srs.NewDefaultService(), nil, nil, 0, nil) })
	assert.Panics(t, func() { study.NewService(&mocks.MockItemStore{}, nil, nil, nil, 0, nil) })
	assert.NotPanics(t, func() { study.NewService(&mocks.MockItemStore{}, srs.NewDefaultService(), nil, nil, 0, nil) })
}

func TestSession_WalksPlanToTheEnd(t *testing.T) {
	t.Parallel() // Enable parallel execution
	f := newFixture(t, 0)
	f.seedNew(t, 2)
	ctx := context.Background()

	snap, err := f.service.Start(ctx, f.userID, intake(10))
	require.NoError(t, err)
	assert.Len(t, snap.Plan, 2, "only two items exist")
	assert.Equal(t, 2, snap.Remaining)
	assert.Equal(t, study.ModeIntake, snap.Mode)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.ActiveSessions))

	for i := 0; i < 2; i++ {
		item, err := f.service.Next(ctx, snap.ID)
		require.NoError(t, err)
		assert.Equal(t, snap.Plan[i].ID, item.ID)

		result, err := f.service.Answer(ctx, snap.ID, study.Answer{
			ItemID: item.ID, Outcome: domain.ReviewOutcomeCorrect, LatencyMs: 1500,
		})
		require.NoError(t, err)
		assert.Equal(t, 1, result.Item.Strength)
		assert.False(t, result.Requeued)
		assert.Equal(t, i == 1, result.Finished)
	}

	_, err = f.service.Next(ctx, snap.ID)
	assert.ErrorIs(t, err, study.ErrSessionFinished)

	stats, err := f.service.Stats(ctx, snap.ID)
	require.NoError(t, err)
	assert.Equal(t, session.Stats{TotalReviewed: 2, CorrectAnswers: 2, AveragePerformance: 5}, stats)

	final, err := f.service.End(ctx, snap.ID)
	require.NoError(t, err)
	assert.Equal(t, stats, final)
	assert.Equal(t, 0.0, testutil.ToFloat64(f.metrics.ActiveSessions))

	_, err = f.service.Get(ctx, snap.ID)
	assert.ErrorIs(t, err, study.ErrSessionNotFound)
	_, err = f.service.End(ctx, snap.ID)
	assert.ErrorIs(t, err, study.ErrSessionNotFound)
}

func TestSession_IncorrectAnswerRequeuesOnce(t *testing.T) {
	t.Parallel() // Enable parallel execution
	f := newFixture(t, 0)
	item := f.seedReviewed(t, 2, 0)
	ctx := context.Background()

	snap, err := f.service.Start(ctx, f.userID, intake(10))
	require.NoError(t, err)
	require.Len(t, snap.Plan, 1)

	first, err := f.service.Answer(ctx, snap.ID, study.Answer{
		ItemID: item.ID, Outcome: domain.ReviewOutcomeIncorrect, LatencyMs: 3000,
	})
	require.NoError(t, err)
	assert.True(t, first.Requeued)
	assert.False(t, first.Finished)
	assert.Equal(t, 1, first.Item.Strength)

	again, err := f.service.Next(ctx, snap.ID)
	require.NoError(t, err)
	assert.Equal(t, item.ID, again.ID)
	assert.Equal(t, 1, again.Version)
	assert.Equal(t, 1, again.WrongCount)

	second, err := f.service.Answer(ctx, snap.ID, study.Answer{
		ItemID: item.ID, Outcome: domain.ReviewOutcomeIncorrect, LatencyMs: 3000,
	})
	require.NoError(t, err)
	assert.False(t, second.Requeued, "an item is re-queued at most once")
	assert.True(t, second.Finished)
	assert.Equal(t, 1, second.Item.Strength, "the second review in a session does not adjust")
	assert.Equal(t, 2, second.Item.WrongCount)

	got, err := f.service.Get(ctx, snap.ID)
	require.NoError(t, err)
	assert.Len(t, got.Plan, 1, "the plan itself never repeats an item")
	assert.Equal(t, 0, got.Remaining)
	assert.Equal(t, 2, got.Stats.IncorrectAnswers)

	events, err := f.service.History(ctx, f.userID, item.ID)
	require.NoError(t, err)
	assert.Len(t, events, 2)
}

func TestSession_AnswerErrors(t *testing.T) {
	t.Parallel() // Enable parallel execution
	f := newFixture(t, 0)
	f.seedNew(t, 2)
	ctx := context.Background()

	snap, err := f.service.Start(ctx, f.userID, intake(10))
	require.NoError(t, err)

	_, err = f.service.Answer(ctx, snap.ID, study.Answer{ItemID: snap.Plan[1].ID, Outcome: domain.ReviewOutcomeCorrect})
	assert.ErrorIs(t, err, study.ErrNotCurrentItem)

	_, err = f.service.Answer(ctx, snap.ID, study.Answer{ItemID: snap.Plan[0].ID, Outcome: "skip"})
	assert.ErrorIs(t, err, review.ErrInvalidOutcome)

	_, err = f.service.Answer(ctx, uuid.New(), study.Answer{ItemID: snap.Plan[0].ID, Outcome: domain.ReviewOutcomeCorrect})
	assert.ErrorIs(t, err, study.ErrSessionNotFound)

	got, err := f.service.Get(ctx, snap.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Remaining, "rejected answers do not advance the session")
}

func TestSession_NothingToStudy(t *testing.T) {
	t.Parallel() // Enable parallel execution
	f := newFixture(t, 0)
	f.seedReviewed(t, 3, 2)
	ctx := context.Background()

	snap, err := f.service.Start(ctx, f.userID, study.StartOptions{Mode: study.ModeMixed, MaxTerms: 10})
	require.NoError(t, err)
	assert.Empty(t, snap.Plan)

	_, err = f.service.Next(ctx, snap.ID)
	assert.ErrorIs(t, err, study.ErrSessionFinished)
}

func TestStart_MixedModeBlendsPools(t *testing.T) {
	t.Parallel() // Enable parallel execution
	f := newFixture(t, 0)
	newItems := f.seedNew(t, 9)
	for i := 0; i < 5; i++ {
		f.seedReviewed(t, 2, -1)
	}
	f.seedReviewed(t, 4, 3) // not due

	snap, err := f.service.Start(context.Background(), f.userID, study.StartOptions{Mode: study.ModeMixed, MaxTerms: 10})
	require.NoError(t, err)
	require.Len(t, snap.Plan, 10)

	isNew := make(map[uuid.UUID]bool, len(newItems))
	for _, item := range newItems {
		isNew[item.ID] = true
	}
	newCount := 0
	seen := make(map[uuid.UUID]bool)
	for _, item := range snap.Plan {
		assert.False(t, seen[item.ID], "duplicate item in plan")
		seen[item.ID] = true
		if isNew[item.ID] {
			newCount++
		}
	}
	assert.Equal(t, 8, newCount)
}

func TestStart_Options(t *testing.T) {
	t.Parallel() // Enable parallel execution

	testCases := []struct {
		name     string
		opts     study.StartOptions
		wantErr  error
		wantSize int
	}{
		{"default size", study.StartOptions{IncludeNewTerms: true}, nil, 5},
		{"explicit size", intake(3), nil, 3},
		{"new items excluded", study.StartOptions{Mode: study.ModeIntake, MaxTerms: 10}, nil, 0},
		// 120s: ceil(90/30)=3 new; no review items to fill the other 30s
		{"time budget in mixed mode", study.StartOptions{Mode: study.ModeMixed, TimeBudget: 2 * time.Minute}, nil, 3},
		{"unknown mode", study.StartOptions{Mode: "cram"}, study.ErrInvalidMode, 0},
		{"negative size", study.StartOptions{MaxTerms: -1}, study.ErrInvalidMaxTerms, 0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			f := newFixture(t, 5)
			f.seedNew(t, 12)

			plan, err := f.service.Preview(context.Background(), f.userID, tc.opts)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.wantSize, plan.Len())
		})
	}
}

func TestStart_LoadFailure(t *testing.T) {
	t.Parallel() // Enable parallel execution

	cause := errors.New("database unavailable")
	items := &mocks.MockItemStore{Err: cause}
	service := study.NewService(items, srs.NewDefaultService(), nil, nil, 0, nil)

	_, err := service.Start(context.Background(), uuid.New(), study.StartOptions{})
	assert.ErrorIs(t, err, cause)
	var serviceErr *study.ServiceError
	require.ErrorAs(t, err, &serviceErr)
	assert.Equal(t, "start_session", serviceErr.Operation)
}

func TestAnswer_StaleItemIsRefreshed(t *testing.T) {
	t.Parallel() // Enable parallel execution
	f := newFixture(t, 0)
	item := f.seedReviewed(t, 2, 0)
	ctx := context.Background()

	snap, err := f.service.Start(ctx, f.userID, intake(10))
	require.NoError(t, err)

	// Another device reviews the same item first.
	other := review.NewRecorder(f.srs, f.store, nil, nil)
	_, err = other.Record(ctx, review.Input{
		UserID: f.userID, Item: item, Outcome: domain.ReviewOutcomeCorrect, At: testNow,
	}, session.NewAdjustedSet(), nil)
	require.NoError(t, err)

	_, err = f.service.Answer(ctx, snap.ID, study.Answer{ItemID: item.ID, Outcome: domain.ReviewOutcomeCorrect})
	require.ErrorIs(t, err, store.ErrConcurrentUpdate)

	current, err := f.service.Next(ctx, snap.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, current.Version)
	assert.Equal(t, 3, current.Strength)

	result, err := f.service.Answer(ctx, snap.ID, study.Answer{ItemID: item.ID, Outcome: domain.ReviewOutcomeCorrect})
	require.NoError(t, err)
	assert.Equal(t, 2, result.Item.Version)
	assert.Equal(t, 4, result.Item.Strength)
}

func TestDueItems(t *testing.T) {
	t.Parallel() // Enable parallel execution
	f := newFixture(t, 0)
	fresh := f.seedNew(t, 1)[0]
	dueToday := f.seedReviewed(t, 1, 0)
	f.seedReviewed(t, 1, 1)

	due, err := f.service.DueItems(context.Background(), f.userID)
	require.NoError(t, err)

	ids := make([]uuid.UUID, 0, len(due))
	for _, item := range due {
		ids = append(ids, item.ID)
	}
	assert.ElementsMatch(t, []uuid.UUID{fresh.ID, dueToday.ID}, ids)
}

func TestImportItems(t *testing.T) {
	t.Parallel() // Enable parallel execution
	f := newFixture(t, 0)
	ctx := context.Background()

	created, err := f.service.ImportItems(ctx, f.userID, []study.NewItem{
		{Front: "hola", Back: "hello"},
		{Front: "adiós", Back: "goodbye"},
	})
	require.NoError(t, err)
	require.Len(t, created, 2)
	for _, item := range created {
		assert.True(t, item.IsNew())
		assert.Equal(t, f.userID, item.UserID)
	}

	_, err = f.service.ImportItems(ctx, f.userID, []study.NewItem{{Front: "ok"}, {Front: ""}})
	assert.ErrorIs(t, err, study.ErrInvalidItem)

	stored, err := f.store.LoadItems(ctx, f.userID)
	require.NoError(t, err)
	assert.Len(t, stored, 2, "a rejected batch stores nothing")
}

func TestStart_ConcurrentSessions(t *testing.T) {
	t.Parallel() // Enable parallel execution
	f := newFixture(t, 0)
	f.seedNew(t, 3)
	ctx := context.Background()

	var wg sync.WaitGroup
	ids := make(chan uuid.UUID, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			snap, err := f.service.Start(ctx, f.userID, intake(3))
			if err == nil {
				ids <- snap.ID
			}
		}()
	}
	wg.Wait()
	close(ids)

	unique := make(map[uuid.UUID]bool)
	for id := range ids {
		unique[id] = true
	}
	assert.Len(t, unique, 10)
	assert.Equal(t, 10.0, testutil.ToFloat64(f.metrics.ActiveSessions))
}

// steppingClock is a test clock that only moves when advanced.
type steppingClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *steppingClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *steppingClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestStart_EvictsIdleSessions(t *testing.T) {
	t.Parallel() // Enable parallel execution
	ctx := context.Background()

	wall := &steppingClock{now: testNow}
	clock := srs.NewClockFunc(wall.Now, srs.DefaultUTCOffset)
	params := srs.NewDefaultParams()
	items := memory.NewStore(nil)
	collector := metrics.NewCollector("test")
	svc := study.NewService(items, srs.NewServiceWithParams(params, clock),
		session.NewSeededComposer(params, session.NewResolver(clock), 42),
		collector, 0, nil, study.WithSessionTTL(time.Hour))

	userID := uuid.New()
	item, err := domain.NewMemoryItem(userID, "front", "back")
	require.NoError(t, err)
	require.NoError(t, items.CreateItems(ctx, []*domain.MemoryItem{item}))

	idle, err := svc.Start(ctx, userID, intake(1))
	require.NoError(t, err)
	active, err := svc.Start(ctx, userID, intake(1))
	require.NoError(t, err)

	wall.Advance(40 * time.Minute)
	_, err = svc.Next(ctx, active.ID)
	require.NoError(t, err)

	wall.Advance(30 * time.Minute)
	fresh, err := svc.Start(ctx, userID, intake(1))
	require.NoError(t, err)

	_, err = svc.Get(ctx, idle.ID)
	assert.ErrorIs(t, err, study.ErrSessionNotFound, "session idle for 70m should be gone")
	_, err = svc.Get(ctx, active.ID)
	assert.NoError(t, err, "session touched 30m ago should survive")
	_, err = svc.Get(ctx, fresh.ID)
	assert.NoError(t, err)
	assert.Equal(t, 2.0, testutil.ToFloat64(collector.ActiveSessions))

	_, err = svc.End(ctx, idle.ID)
	assert.ErrorIs(t, err, study.ErrSessionNotFound)
}

func TestStart_ZeroTTLKeepsSessions(t *testing.T) {
	t.Parallel() // Enable parallel execution
	ctx := context.Background()

	wall := &steppingClock{now: testNow}
	clock := srs.NewClockFunc(wall.Now, srs.DefaultUTCOffset)
	params := srs.NewDefaultParams()
	svc := study.NewService(memory.NewStore(nil), srs.NewServiceWithParams(params, clock),
		nil, nil, 0, nil, study.WithSessionTTL(0))

	userID := uuid.New()
	old, err := svc.Start(ctx, userID, intake(1))
	require.NoError(t, err)

	wall.Advance(30 * 24 * time.Hour)
	_, err = svc.Start(ctx, userID, intake(1))
	require.NoError(t, err)

	_, err = svc.Get(ctx, old.ID)
	assert.NoError(t, err)
}
