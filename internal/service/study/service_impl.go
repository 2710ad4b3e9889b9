package study

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-scheduler/internal/domain"
	"github.com/phrazzld/scry-scheduler/internal/domain/session"
	"github.com/phrazzld/scry-scheduler/internal/domain/srs"
	"github.com/phrazzld/scry-scheduler/internal/platform/logger"
	"github.com/phrazzld/scry-scheduler/internal/platform/metrics"
	"github.com/phrazzld/scry-scheduler/internal/service/review"
	"github.com/phrazzld/scry-scheduler/internal/store"
)

// DefaultMaxTerms is used when neither the caller nor the constructor sets a
// session size.
const DefaultMaxTerms = 20

// DefaultSessionTTL is how long a session may sit untouched before the next
// Start drops it.
const DefaultSessionTTL = 24 * time.Hour

// Option configures optional behaviour of the study service.
type Option func(*serviceImpl)

// WithSessionTTL sets the idle time after which a session is evicted.
// A zero ttl keeps sessions until End.
func WithSessionTTL(ttl time.Duration) Option {
	return func(s *serviceImpl) {
		s.sessionTTL = ttl
	}
}

// Verify interface compliance at compile time
var _ Service = (*serviceImpl)(nil)

type serviceImpl struct {
	items    store.Store
	recorder *review.Recorder
	resolver *session.Resolver
	composer *session.Composer
	clock    *srs.Clock
	metrics  *metrics.Collector
	logger   *slog.Logger

	defaultMaxTerms int
	sessionTTL      time.Duration

	mu       sync.RWMutex
	sessions map[uuid.UUID]*studySession
}

// NewService creates the study service.
//
// composer may be nil, in which case a randomly seeded one is built from the
// SRS parameters. collector may be nil. defaultMaxTerms <= 0 means
// DefaultMaxTerms.
func NewService(
	items store.Store,
	srsService srs.Service,
	composer *session.Composer,
	collector *metrics.Collector,
	defaultMaxTerms int,
	logger *slog.Logger,
	opts ...Option,
) Service {
	if items == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("items cannot be nil")
	}
	if srsService == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("srsService cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	if defaultMaxTerms <= 0 {
		defaultMaxTerms = DefaultMaxTerms
	}

	resolver := session.NewResolver(srsService.Clock())
	if composer == nil {
		composer = session.NewComposer(srsService.Params(), resolver)
	}

	s := &serviceImpl{
		items:           items,
		recorder:        review.NewRecorder(srsService, items, collector, logger),
		resolver:        resolver,
		composer:        composer,
		clock:           srsService.Clock(),
		metrics:         collector,
		logger:          logger.With(slog.String("component", "study_service")),
		defaultMaxTerms: defaultMaxTerms,
		sessionTTL:      DefaultSessionTTL,
		sessions:        make(map[uuid.UUID]*studySession),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start implements Service.Start.
func (s *serviceImpl) Start(ctx context.Context, userID uuid.UUID, opts StartOptions) (*Snapshot, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	opts, plan, err := s.plan(ctx, userID, opts)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	sess := newStudySession(userID, opts.Mode, plan, now)
	s.mu.Lock()
	s.evictIdle(ctx, now)
	s.sessions[sess.id] = sess
	s.mu.Unlock()

	s.metrics.SessionStarted()
	s.metrics.ObservePlan(string(opts.Mode), plan.Len())

	log.Info("study session started",
		slog.String("user_id", userID.String()),
		slog.String("session_id", sess.id.String()),
		slog.String("mode", string(opts.Mode)),
		slog.Int("planned", plan.Len()))

	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.snapshot(), nil
}

// Preview implements Service.Preview.
func (s *serviceImpl) Preview(ctx context.Context, userID uuid.UUID, opts StartOptions) (session.Plan, error) {
	_, plan, err := s.plan(ctx, userID, opts)
	return plan, err
}

// plan normalizes opts and composes the plan for userID.
func (s *serviceImpl) plan(ctx context.Context, userID uuid.UUID, opts StartOptions) (StartOptions, session.Plan, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if opts.Mode == "" {
		opts.Mode = ModeIntake
	}
	if !opts.Mode.Valid() {
		return opts, session.Plan{}, newServiceError("start_session", string(opts.Mode), ErrInvalidMode)
	}
	if opts.MaxTerms < 0 || opts.TimeBudget < 0 {
		return opts, session.Plan{}, newServiceError("start_session", "negative session size", ErrInvalidMaxTerms)
	}
	if opts.MaxTerms == 0 && (opts.Mode == ModeIntake || opts.TimeBudget == 0) {
		opts.MaxTerms = s.defaultMaxTerms
	}

	items, err := s.items.LoadItems(ctx, userID)
	if err != nil {
		log.Error("failed to load items",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return opts, session.Plan{}, newServiceError("start_session", "failed to load items", err)
	}

	now := s.clock.Now()
	var plan session.Plan
	switch opts.Mode {
	case ModeMixed:
		newPool, reviewPool := s.resolver.Split(items, now)
		plan = s.composer.Blend(newPool, reviewPool, session.BlendOptions{
			MaxTerms:   opts.MaxTerms,
			TimeBudget: opts.TimeBudget,
		})
	default:
		plan = s.composer.Compose(items, session.Options{
			MaxTerms:           opts.MaxTerms,
			IncludeNewTerms:    opts.IncludeNewTerms,
			PrioritizeDueTerms: opts.PrioritizeDueTerms,
		}, now)
	}

	log.Debug("session plan composed",
		slog.String("user_id", userID.String()),
		slog.String("mode", string(opts.Mode)),
		slog.Int("items", len(items)),
		slog.Int("planned", plan.Len()))
	return opts, plan, nil
}

// Get implements Service.Get.
func (s *serviceImpl) Get(_ context.Context, sessionID uuid.UUID) (*Snapshot, error) {
	sess, err := s.lookup(sessionID)
	if err != nil {
		return nil, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.snapshot(), nil
}

// Next implements Service.Next.
func (s *serviceImpl) Next(_ context.Context, sessionID uuid.UUID) (*domain.MemoryItem, error) {
	sess, err := s.lookup(sessionID)
	if err != nil {
		return nil, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()

	item, ok := sess.current()
	if !ok {
		return nil, ErrSessionFinished
	}
	return item.Clone(), nil
}

// Answer implements Service.Answer. Answers within one session are
// serialized; the store call happens under the session lock.
func (s *serviceImpl) Answer(ctx context.Context, sessionID uuid.UUID, answer Answer) (*AnswerResult, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	sess, err := s.lookup(sessionID)
	if err != nil {
		return nil, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()

	item, ok := sess.current()
	if !ok {
		return nil, ErrSessionFinished
	}
	if item.ID != answer.ItemID {
		log.Warn("answer for item out of turn",
			slog.String("session_id", sessionID.String()),
			slog.String("item_id", answer.ItemID.String()),
			slog.String("current_item_id", item.ID.String()))
		return nil, ErrNotCurrentItem
	}

	result, err := s.recorder.Record(ctx, review.Input{
		UserID:    sess.userID,
		Item:      item,
		Outcome:   answer.Outcome,
		LatencyMs: answer.LatencyMs,
	}, sess.adjusted, sess.tracker)
	if err != nil {
		if errors.Is(err, store.ErrConcurrentUpdate) {
			s.refresh(ctx, sess, item.ID)
		}
		return nil, err
	}

	requeued := sess.advance(result.Item, answer.Outcome)
	return &AnswerResult{
		Item:     result.Item.Clone(),
		Event:    result.Event,
		Stats:    sess.tracker.Stats(),
		Requeued: requeued,
		Finished: sess.finished(),
	}, nil
}

// refresh replaces a stale item with the stored state so the next answer is
// computed from it. Callers hold sess.mu.
func (s *serviceImpl) refresh(ctx context.Context, sess *studySession, itemID uuid.UUID) {
	items, err := s.items.LoadItems(ctx, sess.userID)
	if err != nil {
		s.logger.Warn("failed to refresh stale item",
			slog.String("error", err.Error()),
			slog.String("item_id", itemID.String()))
		return
	}
	for _, item := range items {
		if item.ID == itemID {
			sess.items[itemID] = item
			return
		}
	}
}

// Stats implements Service.Stats.
func (s *serviceImpl) Stats(_ context.Context, sessionID uuid.UUID) (session.Stats, error) {
	sess, err := s.lookup(sessionID)
	if err != nil {
		return session.Stats{}, err
	}
	return sess.tracker.Stats(), nil
}

// End implements Service.End.
func (s *serviceImpl) End(ctx context.Context, sessionID uuid.UUID) (session.Stats, error) {
	s.mu.Lock()
	sess, ok := s.sessions[sessionID]
	delete(s.sessions, sessionID)
	s.mu.Unlock()
	if !ok {
		return session.Stats{}, ErrSessionNotFound
	}

	s.metrics.SessionEnded()
	stats := sess.tracker.Stats()
	logger.FromContextOrDefault(ctx, s.logger).Info("study session ended",
		slog.String("session_id", sessionID.String()),
		slog.Int("total_reviewed", stats.TotalReviewed),
		slog.Float64("average_performance", stats.AveragePerformance))
	return stats, nil
}

// DueItems implements Service.DueItems.
func (s *serviceImpl) DueItems(ctx context.Context, userID uuid.UUID) ([]*domain.MemoryItem, error) {
	items, err := s.items.LoadItems(ctx, userID)
	if err != nil {
		return nil, newServiceError("due_items", "failed to load items", err)
	}
	return s.resolver.Resolve(items, s.clock.Now()), nil
}

// ImportItems implements Service.ImportItems.
func (s *serviceImpl) ImportItems(ctx context.Context, userID uuid.UUID, inputs []NewItem) ([]*domain.MemoryItem, error) {
	items := make([]*domain.MemoryItem, 0, len(inputs))
	for i, in := range inputs {
		item, err := domain.NewMemoryItem(userID, in.Front, in.Back)
		if err != nil {
			return nil, newServiceError("import_items", "item "+strconv.Itoa(i), errors.Join(ErrInvalidItem, err))
		}
		items = append(items, item)
	}

	if err := s.items.CreateItems(ctx, items); err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to import items",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()),
			slog.Int("count", len(items)))
		return nil, newServiceError("import_items", "failed to create items", err)
	}
	return items, nil
}

// History implements Service.History.
func (s *serviceImpl) History(ctx context.Context, userID, itemID uuid.UUID) ([]domain.ReviewEvent, error) {
	events, err := s.items.ListEvents(ctx, userID, itemID)
	if err != nil {
		return nil, newServiceError("history", "failed to list events", err)
	}
	return events, nil
}

func (s *serviceImpl) lookup(sessionID uuid.UUID) (*studySession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	sess.touch(s.clock.Now())
	return sess, nil
}

// evictIdle drops sessions untouched for longer than the TTL. Callers hold
// s.mu for writing.
func (s *serviceImpl) evictIdle(ctx context.Context, now time.Time) {
	if s.sessionTTL <= 0 {
		return
	}
	log := logger.FromContextOrDefault(ctx, s.logger)
	for id, sess := range s.sessions {
		idle := now.Sub(sess.lastActiveAt())
		if idle <= s.sessionTTL {
			continue
		}
		delete(s.sessions, id)
		s.metrics.SessionEnded()
		log.Info("study session expired",
			slog.String("session_id", id.String()),
			slog.String("user_id", sess.userID.String()),
			slog.Duration("idle", idle))
	}
}
