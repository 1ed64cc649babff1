package out

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"

	"fieldcap/internal/modules/capture/domain"
	captureout "fieldcap/internal/modules/capture/port/out"
)

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

var selectColumns = []string{
	"id", "user_id", "session_id", "latitude", "longitude", "accuracy", "location",
	"image_url", "qr_payload", "storage", "sequence", "is_primary", "captured_at",
}

// PostgresRecords writes capture metadata rows through pgx's database/sql driver.
type PostgresRecords struct {
	db *sqlx.DB
}

var _ captureout.RemoteRecords = (*PostgresRecords)(nil)

func OpenPostgresRecords(ctx context.Context, databaseURL string) (*PostgresRecords, error) {
	db, err := sqlx.Open("pgx", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open remote database: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping remote database: %w", err)
	}
	return &PostgresRecords{db: db}, nil
}

func (p *PostgresRecords) Close() error {
	return p.db.Close()
}

func (p *PostgresRecords) Insert(ctx context.Context, table string, record domain.RemoteRecord) (int64, error) {
	query, args, err := BuildInsert(table, record)
	if err != nil {
		return 0, err
	}
	var id int64
	if err := p.db.QueryRowxContext(ctx, query, args...).Scan(&id); err != nil {
		return 0, fmt.Errorf("insert into %s: %w", table, err)
	}
	return id, nil
}

func (p *PostgresRecords) Select(ctx context.Context, table string, filter map[string]any) ([]domain.RemoteRecord, error) {
	query, args, err := BuildSelect(table, filter)
	if err != nil {
		return nil, err
	}
	rows := []domain.RemoteRecord{}
	if err := p.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select from %s: %w", table, err)
	}
	return rows, nil
}

// BuildInsert renders the parameterized insert for record, returning the new id.
func BuildInsert(table string, record domain.RemoteRecord) (string, []any, error) {
	if !identifierPattern.MatchString(table) {
		return "", nil, fmt.Errorf("invalid table name %q", table)
	}
	columns, args := record.Columns()
	placeholders := make([]string, len(columns))
	for i := range columns {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) RETURNING id",
		table, strings.Join(columns, ", "), strings.Join(placeholders, ", "))
	return query, args, nil
}

// BuildSelect renders an equality-filtered select. Filter keys are applied in sorted order.
func BuildSelect(table string, filter map[string]any) (string, []any, error) {
	if !identifierPattern.MatchString(table) {
		return "", nil, fmt.Errorf("invalid table name %q", table)
	}
	keys := make([]string, 0, len(filter))
	for key := range filter {
		if !knownColumn(key) {
			return "", nil, fmt.Errorf("unknown filter column %q", key)
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)
	query := fmt.Sprintf("SELECT %s FROM %s", strings.Join(selectColumns, ", "), table)
	args := make([]any, 0, len(keys))
	for i, key := range keys {
		if i == 0 {
			query += " WHERE "
		} else {
			query += " AND "
		}
		query += fmt.Sprintf("%s = $%d", key, i+1)
		args = append(args, filter[key])
	}
	return query + " ORDER BY id", args, nil
}

func knownColumn(name string) bool {
	for _, column := range selectColumns {
		if column == name {
			return true
		}
	}
	return false
}
