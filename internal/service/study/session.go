package study

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-scheduler/internal/domain"
	"github.com/phrazzld/scry-scheduler/internal/domain/session"
)

// studySession is the ephemeral state of one session. The plan itself never
// repeats an id; the queue may, because an incorrect answer puts the item
// back at the end once.
type studySession struct {
	id        uuid.UUID
	userID    uuid.UUID
	mode      Mode
	startedAt time.Time

	// lastActive is unix nanoseconds of the latest access. It is read during
	// eviction without taking mu, which Answer holds across a store call.
	lastActive atomic.Int64

	mu       sync.Mutex
	plan     session.Plan
	items    map[uuid.UUID]*domain.MemoryItem // latest known state
	queue    []uuid.UUID
	cursor   int
	requeued map[uuid.UUID]bool
	adjusted session.AdjustedSet
	tracker  *session.Tracker
}

func newStudySession(userID uuid.UUID, mode Mode, plan session.Plan, now time.Time) *studySession {
	items := make(map[uuid.UUID]*domain.MemoryItem, plan.Len())
	for _, item := range plan.Items {
		items[item.ID] = item.Clone()
	}
	sess := &studySession{
		id:        uuid.New(),
		userID:    userID,
		mode:      mode,
		startedAt: now,
		plan:      plan,
		items:     items,
		queue:     plan.IDs(),
		requeued:  make(map[uuid.UUID]bool),
		adjusted:  session.NewAdjustedSet(),
		tracker:   session.NewTracker(),
	}
	sess.touch(now)
	return sess
}

func (s *studySession) touch(now time.Time) {
	s.lastActive.Store(now.UnixNano())
}

func (s *studySession) lastActiveAt() time.Time {
	return time.Unix(0, s.lastActive.Load())
}

// current returns the item due next. Callers hold mu.
func (s *studySession) current() (*domain.MemoryItem, bool) {
	if s.cursor >= len(s.queue) {
		return nil, false
	}
	return s.items[s.queue[s.cursor]], true
}

// advance moves past the current item, re-queueing it once after an
// incorrect answer. Callers hold mu.
func (s *studySession) advance(item *domain.MemoryItem, outcome domain.ReviewOutcome) bool {
	s.items[item.ID] = item
	s.cursor++

	if outcome != domain.ReviewOutcomeIncorrect || s.requeued[item.ID] {
		return false
	}
	s.requeued[item.ID] = true
	s.queue = append(s.queue, item.ID)
	return true
}

func (s *studySession) finished() bool {
	return s.cursor >= len(s.queue)
}

func (s *studySession) snapshot() *Snapshot {
	plan := make([]*domain.MemoryItem, 0, s.plan.Len())
	for _, id := range s.plan.IDs() {
		plan = append(plan, s.items[id].Clone())
	}
	return &Snapshot{
		ID:        s.id,
		UserID:    s.userID,
		Mode:      s.mode,
		StartedAt: s.startedAt,
		Plan:      plan,
		Remaining: len(s.queue) - s.cursor,
		Stats:     s.tracker.Stats(),
	}
}
