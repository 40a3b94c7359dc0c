package indexer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"qststaking/core/events"
	"qststaking/core/types"
	"qststaking/observability/metrics"
)

// EventRecord is one committed staking event.
type EventRecord struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	Sequence   uint64    `gorm:"uniqueIndex;not null"`
	Type       string    `gorm:"index;not null"`
	Owner      string    `gorm:"index"`
	Amount     uint64
	Attributes string `gorm:"type:text"`
	CreatedAt  time.Time
}

// Decode returns the attribute map stored with the record.
func (r EventRecord) Decode() (map[string]string, error) {
	attrs := map[string]string{}
	if r.Attributes == "" {
		return attrs, nil
	}
	if err := json.Unmarshal([]byte(r.Attributes), &attrs); err != nil {
		return nil, fmt.Errorf("indexer: decode attributes: %w", err)
	}
	return attrs, nil
}

// Store persists committed events so participants can query their history.
// It implements events.Emitter.
type Store struct {
	db      *gorm.DB
	logger  *slog.Logger
	metrics *metrics.StakingMetrics

	mu  sync.Mutex
	seq uint64
}

// Open connects to dsn. DSNs starting with postgres:// or postgresql:// use
// Postgres; anything else is handed to SQLite.
func Open(dsn string) (*Store, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return nil, fmt.Errorf("indexer: dsn required")
	}
	var dialector gorm.Dialector
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		dialector = postgres.Open(dsn)
	} else {
		dialector = sqlite.Open(dsn)
	}
	db, err := gorm.Open(dialector, &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		return nil, fmt.Errorf("indexer: open: %w", err)
	}
	return New(db)
}

// New wraps an existing connection and migrates the schema.
func New(db *gorm.DB) (*Store, error) {
	if err := db.AutoMigrate(&EventRecord{}); err != nil {
		return nil, fmt.Errorf("indexer: migrate: %w", err)
	}
	var last uint64
	if err := db.Model(&EventRecord{}).Select("COALESCE(MAX(sequence), 0)").Scan(&last).Error; err != nil {
		return nil, fmt.Errorf("indexer: load sequence: %w", err)
	}
	return &Store{
		db:      db,
		logger:  slog.Default().With("component", "indexer"),
		metrics: metrics.Staking(),
		seq:     last,
	}, nil
}

// Emit persists evt. Failures are logged and counted; emitters cannot report
// errors to the invocation that already committed.
func (s *Store) Emit(evt events.Event) {
	payload, ok := evt.(events.Payload)
	if !ok {
		return
	}
	if err := s.Record(context.Background(), payload.Event()); err != nil {
		s.metrics.IncIndexerFailure()
		s.logger.Error("persist event failed", "type", evt.EventType(), "error", err)
	}
}

// Record persists a single event.
func (s *Store) Record(ctx context.Context, evt *types.Event) error {
	if evt == nil {
		return nil
	}
	encoded, err := json.Marshal(evt.Attributes)
	if err != nil {
		return fmt.Errorf("indexer: encode attributes: %w", err)
	}
	var amount uint64
	if raw, ok := evt.Attributes["amount"]; ok {
		if amount, err = strconv.ParseUint(raw, 10, 64); err != nil {
			return fmt.Errorf("indexer: amount %q: %w", raw, err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	record := EventRecord{
		ID:         uuid.New(),
		Sequence:   s.seq + 1,
		Type:       evt.Type,
		Owner:      evt.Attributes["owner"],
		Amount:     amount,
		Attributes: string(encoded),
	}
	if err := s.db.WithContext(ctx).Create(&record).Error; err != nil {
		return fmt.Errorf("indexer: insert: %w", err)
	}
	s.seq = record.Sequence
	s.metrics.IncEventIndexed(evt.Type)
	return nil
}

// History returns owner's events in commit order. A positive limit keeps the
// most recent entries only.
func (s *Store) History(ctx context.Context, owner string, limit int) ([]EventRecord, error) {
	var records []EventRecord
	query := s.db.WithContext(ctx).Where("owner = ?", owner).Order("sequence desc")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&records).Error; err != nil {
		return nil, fmt.Errorf("indexer: history: %w", err)
	}
	for i, j := 0, len(records)-1; i < j; i, j = i+1, j-1 {
		records[i], records[j] = records[j], records[i]
	}
	return records, nil
}

// CountByType returns how many events of eventType were recorded.
func (s *Store) CountByType(ctx context.Context, eventType string) (int64, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&EventRecord{}).Where("type = ?", eventType).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("indexer: count: %w", err)
	}
	return count, nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
