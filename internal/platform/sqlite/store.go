package sqlite

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/phrazzld/scry-scheduler/internal/domain"
	"github.com/phrazzld/scry-scheduler/internal/store"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Store implements store.Store on a gorm handle.
type Store struct {
	db     *gorm.DB
	logger *slog.Logger
}

var _ store.Store = (*Store)(nil)

// Open opens (creating if needed) the database file at path, applies the
// schema and returns a ready Store. ":memory:" opens a private in-memory
// database.
func Open(path string, logger *slog.Logger) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create sqlite directory: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(path+"?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to sqlite: %w", err)
	}

	// SQLite allows a single writer; one connection keeps an in-memory
	// database alive and serializes the review transactions.
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := Migrate(db); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}

	return NewStore(db, logger), nil
}

// Migrate creates or updates the schema.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&itemRecord{}, &eventRecord{}); err != nil {
		return fmt.Errorf("failed to migrate sqlite schema: %w", err)
	}
	return nil
}

// NewStore wraps an open, migrated gorm handle.
func NewStore(db *gorm.DB, logger *slog.Logger) *Store {
	if db == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		db:     db,
		logger: logger.With(slog.String("component", "sqlite_store")),
	}
}

// Close releases the underlying connection.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	return sqlDB.Close()
}

// LoadItems implements store.ItemStore.
func (s *Store) LoadItems(ctx context.Context, userID uuid.UUID) ([]*domain.MemoryItem, error) {
	var records []itemRecord
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID.String()).
		Order("created_at, id").
		Find(&records).Error
	if err != nil {
		s.logger.Error("failed to load items",
			slog.String("user_id", userID.String()),
			slog.String("error", err.Error()))
		return nil, store.NewStoreError("item", "load", "failed to query items", err)
	}

	items := make([]*domain.MemoryItem, 0, len(records))
	for _, r := range records {
		item, err := r.toDomain()
		if err != nil {
			return nil, store.NewStoreError("item", "load", "corrupt item row", err)
		}
		items = append(items, item)
	}
	return items, nil
}

// SaveItemAndAppendEvent implements store.ItemStore. The versioned update and
// the event insert run in one gorm transaction.
func (s *Store) SaveItemAndAppendEvent(
	ctx context.Context,
	userID uuid.UUID,
	item *domain.MemoryItem,
	event *domain.ReviewEvent,
) error {
	if err := store.CheckReviewWrite(userID, item, event); err != nil {
		return err
	}

	record := toItemRecord(item)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&itemRecord{}).
			Where("id = ? AND user_id = ? AND version = ?", record.ID, record.UserID, item.Version-1).
			Updates(map[string]interface{}{
				"strength":         record.Strength,
				"last_reviewed_at": record.LastReviewedAt,
				"next_due_at":      record.NextDueAt,
				"wrong_count":      record.WrongCount,
				"version":          record.Version,
				"updated_at":       record.UpdatedAt,
			})
		if result.Error != nil {
			return result.Error
		}

		if result.RowsAffected == 0 {
			// Check if record exists with different version
			var count int64
			if err := tx.Model(&itemRecord{}).
				Where("id = ? AND user_id = ?", record.ID, record.UserID).
				Count(&count).Error; err != nil {
				return err
			}
			if count > 0 {
				return store.NewStoreError("item", "save", "version mismatch", store.ErrConcurrentUpdate)
			}
			return store.ErrItemNotFound
		}

		eventRecord := toEventRecord(event)
		return tx.Create(&eventRecord).Error
	})
	if err != nil {
		if errors.Is(err, store.ErrConcurrentUpdate) || errors.Is(err, store.ErrItemNotFound) {
			return err
		}
		s.logger.Error("failed to save review",
			slog.String("user_id", userID.String()),
			slog.String("item_id", item.ID.String()),
			slog.String("error", err.Error()))
		return store.NewStoreError("item", "save", "failed to save item and event", err)
	}
	return nil
}

// CreateItems implements store.ItemSeeder.
func (s *Store) CreateItems(ctx context.Context, items []*domain.MemoryItem) error {
	if err := store.CheckSeed(items); err != nil {
		return err
	}
	if len(items) == 0 {
		return nil
	}

	records := make([]itemRecord, 0, len(items))
	ids := make([]string, 0, len(items))
	for _, item := range items {
		r := toItemRecord(item)
		records = append(records, r)
		ids = append(ids, r.ID)
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing int64
		if err := tx.Model(&itemRecord{}).Where("id IN ?", ids).Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return store.ErrItemExists
		}
		return tx.Create(&records).Error
	})
	if err != nil {
		if errors.Is(err, store.ErrItemExists) {
			return err
		}
		return store.NewStoreError("item", "create", "failed to insert items", err)
	}
	return nil
}

// ListEvents implements store.EventReader.
func (s *Store) ListEvents(ctx context.Context, userID, itemID uuid.UUID) ([]domain.ReviewEvent, error) {
	query := s.db.WithContext(ctx).Where("user_id = ?", userID.String())
	if itemID != uuid.Nil {
		query = query.Where("item_id = ?", itemID.String())
	}

	var records []eventRecord
	if err := query.Order("reviewed_at, id").Find(&records).Error; err != nil {
		return nil, store.NewStoreError("review_event", "list", "failed to query events", err)
	}

	events := make([]domain.ReviewEvent, 0, len(records))
	for _, r := range records {
		event, err := r.toDomain()
		if err != nil {
			return nil, store.NewStoreError("review_event", "list", "corrupt event row", err)
		}
		events = append(events, event)
	}
	return events, nil
}
