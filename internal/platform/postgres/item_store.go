package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-scheduler/internal/domain"
	"github.com/phrazzld/scry-scheduler/internal/store"
)

const itemColumns = `id, user_id, front_content, back_content, strength,
	last_reviewed_at, next_due_at, wrong_count, version, created_at, updated_at`

const eventColumns = `id, user_id, item_id, reviewed_at, outcome,
	response_latency_ms, performance_score`

// PostgresItemStore implements store.Store using a PostgreSQL database as the
// storage backend.
type PostgresItemStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// Ensure PostgresItemStore implements store.Store interface
var _ store.Store = (*PostgresItemStore)(nil)

// NewPostgresItemStore creates a new PostgreSQL implementation of store.Store.
// It accepts a database handle that is initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresItemStore(db *sql.DB, logger *slog.Logger) *PostgresItemStore {
	if db == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresItemStore{
		db:     db,
		logger: logger.With(slog.String("component", "item_store")),
	}
}

// LoadItems implements store.ItemStore.LoadItems.
func (s *PostgresItemStore) LoadItems(ctx context.Context, userID uuid.UUID) ([]*domain.MemoryItem, error) {
	query := `SELECT ` + itemColumns + `
		FROM memory_items
		WHERE user_id = $1
		ORDER BY created_at, id`

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		s.logger.Error("failed to query items",
			slog.String("user_id", userID.String()),
			slog.String("error", err.Error()))
		return nil, store.NewStoreError("item", "load", "failed to query items", MapError(err))
	}
	defer func() { _ = rows.Close() }()

	items := make([]*domain.MemoryItem, 0)
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, store.NewStoreError("item", "load", "failed to scan item", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, store.NewStoreError("item", "load", "failed to iterate items", MapError(err))
	}

	return items, nil
}

// SaveItemAndAppendEvent implements store.ItemStore.SaveItemAndAppendEvent.
// The conditional UPDATE and the event INSERT share one transaction.
func (s *PostgresItemStore) SaveItemAndAppendEvent(
	ctx context.Context,
	userID uuid.UUID,
	item *domain.MemoryItem,
	event *domain.ReviewEvent,
) error {
	if err := store.CheckReviewWrite(userID, item, event); err != nil {
		return err
	}

	log := s.logger.With(
		slog.String("user_id", userID.String()),
		slog.String("item_id", item.ID.String()),
	)

	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		if err := updateItem(ctx, tx, userID, item); err != nil {
			return err
		}
		return insertEvent(ctx, tx, event)
	})
	if err != nil {
		if errors.Is(err, store.ErrConcurrentUpdate) || errors.Is(err, store.ErrItemNotFound) {
			log.Debug("review write rejected", slog.String("error", err.Error()))
			return err
		}
		log.Error("failed to save review", slog.String("error", err.Error()))
		return store.NewStoreError("item", "save", "failed to save item and event", err)
	}

	log.Debug("review saved", slog.Int("version", item.Version))
	return nil
}

// updateItem applies the optimistic version check. Zero affected rows means
// either the item is missing or another writer got there first.
func updateItem(ctx context.Context, db store.DBTX, userID uuid.UUID, item *domain.MemoryItem) error {
	query := `UPDATE memory_items
		SET strength = $1, last_reviewed_at = $2, next_due_at = $3,
			wrong_count = $4, version = $5, updated_at = $6
		WHERE id = $7 AND user_id = $8 AND version = $9`

	result, err := db.ExecContext(ctx, query,
		item.Strength,
		nullTime(item.LastReviewedAt),
		nullTime(item.NextDueAt),
		item.WrongCount,
		item.Version,
		item.UpdatedAt.UTC(),
		item.ID,
		userID,
		item.Version-1,
	)
	if err != nil {
		return MapError(err)
	}

	ok, err := affectedOne(result)
	if err != nil {
		return err
	}
	if ok {
		return nil
	}

	var stored int
	err = db.QueryRowContext(ctx,
		`SELECT version FROM memory_items WHERE id = $1 AND user_id = $2`,
		item.ID, userID,
	).Scan(&stored)
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrItemNotFound
	}
	if err != nil {
		return MapError(err)
	}
	return store.NewStoreError("item", "save",
		fmt.Sprintf("stored version %d, update expects %d", stored, item.Version-1),
		store.ErrConcurrentUpdate)
}

func insertEvent(ctx context.Context, db store.DBTX, event *domain.ReviewEvent) error {
	query := `INSERT INTO review_events (` + eventColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := db.ExecContext(ctx, query,
		event.ID,
		event.UserID,
		event.ItemID,
		event.Timestamp.UTC(),
		string(event.Outcome),
		event.ResponseLatencyMs,
		event.PerformanceScore,
	)
	return MapError(err)
}

// CreateItems implements store.ItemSeeder.CreateItems.
// The operation is atomic - either all items are created or none.
func (s *PostgresItemStore) CreateItems(ctx context.Context, items []*domain.MemoryItem) error {
	if err := store.CheckSeed(items); err != nil {
		return err
	}
	if len(items) == 0 {
		return nil
	}

	query := `INSERT INTO memory_items (` + itemColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, query)
		if err != nil {
			return MapError(err)
		}
		defer func() { _ = stmt.Close() }()

		for _, item := range items {
			_, err := stmt.ExecContext(ctx,
				item.ID,
				item.UserID,
				item.FrontContent,
				item.BackContent,
				item.Strength,
				nullTime(item.LastReviewedAt),
				nullTime(item.NextDueAt),
				item.WrongCount,
				item.Version,
				item.CreatedAt.UTC(),
				item.UpdatedAt.UTC(),
			)
			if err != nil {
				if IsUniqueViolation(err) {
					return fmt.Errorf("%w: %v", store.ErrItemExists, err)
				}
				return MapError(err)
			}
		}
		return nil
	})
	if err != nil {
		s.logger.Error("failed to create items",
			slog.Int("count", len(items)),
			slog.String("error", err.Error()))
		return store.NewStoreError("item", "create", "failed to insert items", err)
	}

	s.logger.Debug("items created", slog.Int("count", len(items)))
	return nil
}

// ListEvents implements store.EventReader.ListEvents.
func (s *PostgresItemStore) ListEvents(
	ctx context.Context,
	userID, itemID uuid.UUID,
) ([]domain.ReviewEvent, error) {
	query := `SELECT ` + eventColumns + `
		FROM review_events
		WHERE user_id = $1`
	args := []any{userID}
	if itemID != uuid.Nil {
		query += ` AND item_id = $2`
		args = append(args, itemID)
	}
	query += ` ORDER BY reviewed_at, id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, store.NewStoreError("review_event", "list", "failed to query events", MapError(err))
	}
	defer func() { _ = rows.Close() }()

	events := make([]domain.ReviewEvent, 0)
	for rows.Next() {
		var (
			event   domain.ReviewEvent
			outcome string
		)
		if err := rows.Scan(
			&event.ID,
			&event.UserID,
			&event.ItemID,
			&event.Timestamp,
			&outcome,
			&event.ResponseLatencyMs,
			&event.PerformanceScore,
		); err != nil {
			return nil, store.NewStoreError("review_event", "list", "failed to scan event", err)
		}
		event.Outcome = domain.ReviewOutcome(outcome)
		event.Timestamp = event.Timestamp.UTC()
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, store.NewStoreError("review_event", "list", "failed to iterate events", MapError(err))
	}

	return events, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanItem(row scanner) (*domain.MemoryItem, error) {
	var (
		item         domain.MemoryItem
		lastReviewed sql.NullTime
		nextDue      sql.NullTime
	)
	err := row.Scan(
		&item.ID,
		&item.UserID,
		&item.FrontContent,
		&item.BackContent,
		&item.Strength,
		&lastReviewed,
		&nextDue,
		&item.WrongCount,
		&item.Version,
		&item.CreatedAt,
		&item.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	item.LastReviewedAt = timePtr(lastReviewed)
	item.NextDueAt = timePtr(nextDue)
	item.CreatedAt = item.CreatedAt.UTC()
	item.UpdatedAt = item.UpdatedAt.UTC()
	return &item, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}

func timePtr(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time.UTC()
	return &t
}
