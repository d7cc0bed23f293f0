package snapshot

import (
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/pickban/draft-server/internal/draft"
)

// RoomRecord is one persisted room: its code, which side created it, and the
// latest state snapshot as JSON text.
type RoomRecord struct {
	Code      string `gorm:"primaryKey;size:16"`
	OwnerSide string `gorm:"size:16"`
	State     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type job struct {
	del    bool
	record RoomRecord
}

// Store persists room rows best-effort: writes go through a buffered worker
// queue and are dropped (with a log line) when the queue is full, so the
// mutation path never waits on the database. A nil *Store is a valid no-op
// store, used when no DATABASE_URL is configured.
type Store struct {
	db    *gorm.DB
	queue chan job
	done  chan struct{}
	log   *zap.Logger
}

func Open(dsn string, log *zap.Logger) (*Store, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("open snapshot db: %w", err)
	}
	if err := db.AutoMigrate(&RoomRecord{}); err != nil {
		return nil, fmt.Errorf("migrate snapshot db: %w", err)
	}

	s := &Store{
		db:    db,
		queue: make(chan job, 256),
		done:  make(chan struct{}),
		log:   log,
	}
	go s.worker()
	return s, nil
}

func (s *Store) worker() {
	defer close(s.done)
	for j := range s.queue {
		var err error
		if j.del {
			err = s.db.Delete(&RoomRecord{}, "code = ?", j.record.Code).Error
		} else {
			err = s.db.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "code"}},
				DoUpdates: clause.AssignmentColumns([]string{"state", "updated_at"}),
			}).Create(&j.record).Error
		}
		if err != nil {
			s.log.Warn("snapshot write failed",
				zap.String("code", j.record.Code),
				zap.Bool("delete", j.del),
				zap.Error(err))
		}
	}
}

func (s *Store) enqueue(j job) {
	select {
	case s.queue <- j:
	default:
		s.log.Warn("snapshot queue full, dropping write", zap.String("code", j.record.Code))
	}
}

// Save records the latest state for a room. Best effort, never blocks.
func (s *Store) Save(code, ownerSide string, state draft.State) {
	if s == nil {
		return
	}
	raw, err := json.Marshal(state)
	if err != nil {
		s.log.Warn("snapshot marshal failed", zap.String("code", code), zap.Error(err))
		return
	}
	s.enqueue(job{record: RoomRecord{Code: code, OwnerSide: ownerSide, State: string(raw), UpdatedAt: time.Now()}})
}

// Delete drops a room's row. Best effort, never blocks.
func (s *Store) Delete(code string) {
	if s == nil {
		return
	}
	s.enqueue(job{del: true, record: RoomRecord{Code: code}})
}

// List returns all stored rooms, newest first.
func (s *Store) List() ([]RoomRecord, error) {
	if s == nil {
		return nil, nil
	}
	var rows []RoomRecord
	if err := s.db.Order("created_at desc").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list snapshot rows: %w", err)
	}
	return rows, nil
}

// Close drains pending writes and stops the worker.
func (s *Store) Close() {
	if s == nil {
		return
	}
	close(s.queue)
	<-s.done
}
