package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"golang.org/x/xerrors"

	"github.com/adeilh/go-keyed/config"
)

var ErrInvalidTable = errors.New("postgres: table name must be a lowercase identifier")

// Source reads settings from a name/value table, see SettingsSchema. Every
// lookup queries the table; a missing row reads as the empty string.
type Source struct {
	db    *sql.DB
	table string

	selectQuery string
	upsertQuery string
	deleteQuery string
}

var _ config.Source = (*Source)(nil)

func NewSource(db *sql.DB, table string) (*Source, error) {
	if !tableName.MatchString(table) {
		return nil, ErrInvalidTable
	}
	t := pq.QuoteIdentifier(table)
	return &Source{
		db:          db,
		table:       table,
		selectQuery: fmt.Sprintf(`SELECT value FROM %s WHERE name = $1`, t),
		upsertQuery: fmt.Sprintf(`INSERT INTO %s (name, value, updated_at) VALUES ($1, $2, now())
                   ON CONFLICT (name) DO UPDATE SET value = EXCLUDED.value, updated_at = now()`, t),
		deleteQuery: fmt.Sprintf(`DELETE FROM %s WHERE name = $1`, t),
	}, nil
}

// Get is GetContext without a deadline. Query errors read as the empty
// string; config.KeyedConfig reads through GetContext and fails instead.
func (s *Source) Get(name string) string {
	v, _ := s.GetContext(context.Background(), name)
	return v
}

func (s *Source) GetContext(ctx context.Context, name string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, s.selectQuery, name).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", xerrors.Errorf("postgres: read setting %s from %s: %w", name, s.table, err)
	}
	return value, nil
}

// Put inserts or replaces a setting.
func (s *Source) Put(ctx context.Context, name, value string) error {
	if _, err := s.db.ExecContext(ctx, s.upsertQuery, name, value); err != nil {
		return xerrors.Errorf("postgres: write setting %s: %w", name, err)
	}
	return nil
}

// Delete removes a setting. It reports whether a row existed.
func (s *Source) Delete(ctx context.Context, name string) (bool, error) {
	res, err := s.db.ExecContext(ctx, s.deleteQuery, name)
	if err != nil {
		return false, xerrors.Errorf("postgres: delete setting %s: %w", name, err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// NewSourceFromConfig opens a Source on the table named by POSTGRES_SETTINGS_TABLE.
func NewSourceFromConfig(ctx context.Context, db *sql.DB, cfg config.Resolver) (*Source, error) {
	v, err := cfg.ResolveContext(ctx, SettingsTableKey)
	if err != nil {
		return nil, err
	}
	return NewSource(db, v.String())
}
