package runlog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"dailies/core/database"

	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"
	"gorm.io/gorm"
)

// ErrNotFound is returned by Get for an unknown run id.
var ErrNotFound = errors.New("run not found")

// ListOptions filters List.
type ListOptions struct {
	// Pair restricts the result to one pair.
	Pair string
	// Limit caps the number of runs (default 50).
	Limit int
}

// Store appends and reads runs.
type Store struct {
	db  *gorm.DB
	enc *zstd.Encoder
	dec *zstd.Decoder
}

// NewStore creates a store on db.
func NewStore(db *gorm.DB) (*Store, error) {
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, err
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		enc.Close()
		return nil, err
	}
	return &Store{db: db, enc: enc, dec: dec}, nil
}

// Close releases the codec resources.
func (s *Store) Close() {
	_ = s.enc.Close()
	s.dec.Close()
}

// Migrate creates or extends the run table.
func (s *Store) Migrate() error {
	if err := s.db.AutoMigrate(&Run{}); err != nil {
		return fmt.Errorf("failed to migrate %s: %w", TableName, err)
	}
	return nil
}

// Check verifies that the run table has every column the store writes.
func (s *Store) Check() error {
	missing, err := database.MissingColumns(s.db, TableName, columns)
	if err != nil {
		return err
	}
	if len(missing) > 0 {
		return fmt.Errorf("table %s is missing columns: %s", TableName, strings.Join(missing, ", "))
	}
	return nil
}

// Append inserts run with p as its payload. An empty ID is filled with a new
// UUID, and the summary columns are derived from p.
func (s *Store) Append(ctx context.Context, run *Run, p Payload) error {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.FinishedAt.IsZero() {
		run.FinishedAt = time.Now().UTC()
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = run.FinishedAt
	}
	run.Summarize(p)

	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to encode run payload: %w", err)
	}
	run.Payload = s.enc.EncodeAll(data, nil)

	if err := s.db.WithContext(ctx).Create(run).Error; err != nil {
		return fmt.Errorf("failed to append run %s: %w", run.ID, err)
	}
	return nil
}

// List returns the most recent runs, newest first, without payloads.
func (s *Store) List(ctx context.Context, opts ListOptions) ([]Run, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 50
	}

	q := s.db.WithContext(ctx).Omit("payload").Order("started_at DESC").Order("id").Limit(limit)
	if opts.Pair != "" {
		q = q.Where("pair = ?", opts.Pair)
	}

	var runs []Run
	if err := q.Find(&runs).Error; err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	return runs, nil
}

// Get returns one run with its decoded payload.
func (s *Store) Get(ctx context.Context, id string) (*Run, *Payload, error) {
	var run Run
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&run).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get run %s: %w", id, err)
	}

	var p Payload
	if len(run.Payload) > 0 {
		data, err := s.dec.DecodeAll(run.Payload, nil)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to decompress run %s: %w", id, err)
		}
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, nil, fmt.Errorf("failed to decode run %s: %w", id, err)
		}
	}
	return &run, &p, nil
}
