package settings

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/grzegorzmaniak/fieldguard/helpers"
	_ "github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"
)

const (
	DefaultSettingsTable = "settings"
	DefaultQueryTimeout  = 3 * time.Second
)

var tableNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// PostgresProvider reads settings from a key/value table:
//
//	CREATE TABLE settings (key TEXT PRIMARY KEY, value TEXT NOT NULL, updated_at TIMESTAMPTZ DEFAULT NOW());
type PostgresProvider struct {
	db      *sql.DB
	table   string
	timeout time.Duration
}

// OpenPostgres opens a pgx-backed connection pool and verifies it.
func OpenPostgres(ctx context.Context, dsn string) (*sql.DB, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("settings: postgres DSN cannot be empty")
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("settings: failed to open postgres: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("settings: failed to reach postgres: %w", err)
	}
	return db, nil
}

// NewPostgresProvider wraps db. An empty table selects DefaultSettingsTable and a
// non-positive timeout selects DefaultQueryTimeout.
func NewPostgresProvider(db *sql.DB, table string, timeout time.Duration) (*PostgresProvider, error) {
	if db == nil {
		return nil, fmt.Errorf("settings: database handle cannot be nil")
	}
	table = helpers.Default(table, DefaultSettingsTable)
	if !tableNamePattern.MatchString(table) {
		return nil, fmt.Errorf("settings: invalid table name %q", table)
	}
	return &PostgresProvider{db: db, table: table, timeout: helpers.DefaultPositive(timeout, DefaultQueryTimeout)}, nil
}

// escapeLike escapes LIKE wildcards so the prefix is matched literally.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

func (p *PostgresProvider) Fetch(ctx context.Context, prefix string) (map[string]string, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	query := fmt.Sprintf(`SELECT key, value FROM %s WHERE key LIKE $1 ESCAPE '\'`, p.table)
	rows, err := p.db.QueryContext(ctx, query, escapeLike(prefix)+"%")
	if err != nil {
		zap.L().Error("Settings query failed", zap.String("prefix", prefix), zap.Error(err))
		return nil, fmt.Errorf("settings: query for prefix '%s' failed: %w", prefix, err)
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var key string
		var value sql.NullString
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("settings: failed to scan row for prefix '%s': %w", prefix, err)
		}
		if value.Valid {
			out[key] = value.String
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("settings: failed to read rows for prefix '%s': %w", prefix, err)
	}

	return out, nil
}

// Upsert writes a single setting. It is used by administrative tooling and tests.
func (p *PostgresProvider) Upsert(ctx context.Context, key, value string) error {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	query := fmt.Sprintf(`
		INSERT INTO %s (key, value, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (key)
		DO UPDATE SET
			value = EXCLUDED.value,
			updated_at = NOW()
	`, p.table)
	if _, err := p.db.ExecContext(ctx, query, key, value); err != nil {
		return fmt.Errorf("settings: failed to upsert '%s': %w", key, err)
	}
	return nil
}
