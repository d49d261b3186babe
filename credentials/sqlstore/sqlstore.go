// Package sqlstore persists credentials in a SQL table through bun. SQLite suits a single machine;
// Postgres lets several client processes share one session.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jrsteele09/go-learn-client/credentials"
	apperrors "github.com/jrsteele09/go-learn-client/internal/errors"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"

	pgxDriverName = "pgx"
)

var ErrUnknownDriver = errors.New("unknown sql driver")

var _ credentials.Store = (*Store)(nil)
var _ credentials.Closer = (*Store)(nil)

type entry struct {
	bun.BaseModel `bun:"table:credentials,alias:c"`

	Key       string    `bun:"key,pk"`
	Value     string    `bun:"value,notnull"`
	UpdatedAt time.Time `bun:"updated_at,notnull"`
}

type Store struct {
	db *bun.DB
}

// Open connects with the given driver and DSN and makes sure the credentials table exists.
func Open(ctx context.Context, driver, dsn string) (*Store, error) {
	var db *bun.DB

	switch driver {
	case DriverSQLite:
		sqldb, err := sql.Open(sqliteshim.ShimName, dsn)
		if err != nil {
			return nil, fmt.Errorf("[sqlstore Open] sqlite: %w", err)
		}
		sqldb.SetMaxOpenConns(1)
		db = bun.NewDB(sqldb, sqlitedialect.New())
	case DriverPostgres:
		sqldb, err := sql.Open(pgxDriverName, dsn)
		if err != nil {
			return nil, fmt.Errorf("[sqlstore Open] postgres: %w", err)
		}
		db = bun.NewDB(sqldb, pgdialect.New())
	default:
		return nil, apperrors.Wrapf(ErrUnknownDriver, "[sqlstore Open] %q", driver)
	}

	s, err := New(ctx, db)
	if err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// New wraps an existing bun database.
func New(ctx context.Context, db *bun.DB) (*Store, error) {
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("[sqlstore New] ping: %w", err)
	}
	if _, err := db.NewCreateTable().Model((*entry)(nil)).IfNotExists().Exec(ctx); err != nil {
		return nil, fmt.Errorf("[sqlstore New] create table: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Read(ctx context.Context, key string) (string, bool, error) {
	if key == "" {
		return "", false, apperrors.ErrEmptyKey
	}

	e := entry{Key: key}
	err := s.db.NewSelect().Model(&e).WherePK().Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("[sqlstore Read] %s: %w", key, err)
	}
	return e.Value, true, nil
}

func (s *Store) Write(ctx context.Context, key, value string) error {
	if key == "" {
		return apperrors.ErrEmptyKey
	}

	e := entry{Key: key, Value: value, UpdatedAt: time.Now().UTC()}
	_, err := s.db.NewInsert().
		Model(&e).
		On("CONFLICT (key) DO UPDATE").
		Set("value = EXCLUDED.value").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("[sqlstore Write] %s: %w", key, err)
	}
	return nil
}

func (s *Store) Remove(ctx context.Context, key string) error {
	if key == "" {
		return apperrors.ErrEmptyKey
	}

	if _, err := s.db.NewDelete().Model(&entry{Key: key}).WherePK().Exec(ctx); err != nil {
		return fmt.Errorf("[sqlstore Remove] %s: %w", key, err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}
