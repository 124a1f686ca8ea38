package callstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"

	contractx "github.com/voxline/voxline/agent/contract"
)

type Config struct {
	DSN string `envconfig:"DSN" split_words:"true"`
}

type callOutcomeRow struct {
	bun.BaseModel `bun:"table:call_outcomes"`

	ID            int64     `bun:"id,pk,autoincrement"`
	JobID         string    `bun:"job_id,notnull"`
	Room          string    `bun:"room"`
	PhoneNumber   string    `bun:"phone_number"`
	CustomerIndex int       `bun:"customer_index"`
	Status        string    `bun:"status,notnull"`
	Error         string    `bun:"error"`
	CreatedAt     time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}

// Store persists dispatch outcomes in Postgres. The table is created lazily
// on first record.
type Store struct {
	db       *bun.DB
	initOnce sync.Once
	initErr  error
}

var _ contractx.OutcomeStore = (*Store)(nil)

func New(cfg Config) (*Store, error) {
	dsn := strings.TrimSpace(cfg.DSN)
	if dsn == "" {
		return nil, errors.New("callstore dsn is required")
	}

	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())

	return &Store{db: db}, nil
}

func (s *Store) init(ctx context.Context) error {
	s.initOnce.Do(func() {
		_, s.initErr = s.db.NewCreateTable().
			Model((*callOutcomeRow)(nil)).
			IfNotExists().
			Exec(ctx)
	})
	return s.initErr
}

func (s *Store) Record(ctx context.Context, outcome contractx.CallOutcome) error {
	if err := s.init(ctx); err != nil {
		return fmt.Errorf("create call_outcomes table: %w", err)
	}

	row := &callOutcomeRow{
		JobID:         outcome.JobID,
		Room:          outcome.Room,
		PhoneNumber:   outcome.PhoneNumber,
		CustomerIndex: outcome.CustomerIndex,
		Status:        string(outcome.Status),
		Error:         outcome.Error,
	}
	if _, err := s.db.NewInsert().Model(row).Exec(ctx); err != nil {
		return fmt.Errorf("insert call outcome job=%s: %w", outcome.JobID, err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}
