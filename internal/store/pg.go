package store

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const uniqueViolation = "23505"

var tableNameRe = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// PG implements Store on Postgres. Every logical table is a JSONB document
// table with id, revision and timestamps; filters resolve to jsonb field
// equality.
type PG struct {
	Pool *pgxpool.Pool
}

// NewPG wraps an existing pool.
func NewPG(pool *pgxpool.Pool) *PG {
	return &PG{Pool: pool}
}

// EnsureSchema creates the document tables when they do not exist yet. With
// no arguments it covers every table the storefront core uses.
func (s *PG) EnsureSchema(ctx context.Context, tables ...string) error {
	if s == nil || s.Pool == nil {
		return errors.New("store: pool not configured")
	}
	if len(tables) == 0 {
		tables = []string{TableProducts, TableOrders, TableOrderItems, TableLoyaltyRecords, TableDomainEvents}
	}
	for _, table := range tables {
		if err := validTable(table); err != nil {
			return err
		}
		ddl := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id TEXT PRIMARY KEY,
			revision BIGINT NOT NULL DEFAULT 1,
			data JSONB NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`, table)
		if _, err := s.Pool.Exec(ctx, ddl); err != nil {
			return fmt.Errorf("store: ensure table %s: %w", table, err)
		}
	}
	return nil
}

// Get implements Store.
func (s *PG) Get(ctx context.Context, table, id string) (Row, error) {
	if err := validTable(table); err != nil {
		return Row{}, err
	}
	query := fmt.Sprintf(`SELECT id, revision, data, created_at, updated_at FROM %s WHERE id = $1`, table)
	var row Row
	err := s.Pool.QueryRow(ctx, query, id).Scan(&row.ID, &row.Revision, &row.Data, &row.CreatedAt, &row.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Row{}, ErrNotFound
		}
		return Row{}, fmt.Errorf("store: get %s/%s: %w", table, id, err)
	}
	return row, nil
}

// List implements Store.
func (s *PG) List(ctx context.Context, table string, filters ...Filter) ([]Row, error) {
	if err := validTable(table); err != nil {
		return nil, err
	}
	query := fmt.Sprintf(`SELECT id, revision, data, created_at, updated_at FROM %s`, table)
	args := make([]any, 0, len(filters))
	for i, f := range filters {
		clause := " WHERE"
		if i > 0 {
			clause = " AND"
		}
		query += fmt.Sprintf("%s data ->> '%s' = $%d", clause, sanitizeField(f.Field), i+1)
		args = append(args, fmt.Sprintf("%v", f.Value))
	}
	query += " ORDER BY created_at"
	rows, err := s.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("store: list %s: %w", table, err)
	}
	defer rows.Close()
	var out []Row
	for rows.Next() {
		var row Row
		if err := rows.Scan(&row.ID, &row.Revision, &row.Data, &row.CreatedAt, &row.UpdatedAt); err != nil {
			return nil, fmt.Errorf("store: scan %s: %w", table, err)
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// Create implements Store.
func (s *PG) Create(ctx context.Context, table, id string, data any) (Row, error) {
	return s.insert(ctx, table, id, data, false)
}

// CreateIfAbsent implements Store.
func (s *PG) CreateIfAbsent(ctx context.Context, table, id string, data any) (Row, error) {
	return s.insert(ctx, table, id, data, true)
}

func (s *PG) insert(ctx context.Context, table, id string, data any, conditional bool) (Row, error) {
	if err := validTable(table); err != nil {
		return Row{}, err
	}
	payload, err := encode(data)
	if err != nil {
		return Row{}, fmt.Errorf("store: encode %s/%s: %w", table, id, err)
	}
	query := fmt.Sprintf(`INSERT INTO %s (id, data) VALUES ($1, $2)
		RETURNING id, revision, data, created_at, updated_at`, table)
	var row Row
	err = s.Pool.QueryRow(ctx, query, id, payload).Scan(&row.ID, &row.Revision, &row.Data, &row.CreatedAt, &row.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			if conditional {
				return Row{}, ErrConflict
			}
			return Row{}, fmt.Errorf("store: create %s/%s: %w", table, id, ErrConflict)
		}
		return Row{}, fmt.Errorf("store: create %s/%s: %w", table, id, err)
	}
	return row, nil
}

// Update implements Store.
func (s *PG) Update(ctx context.Context, table, id string, data any, expectedRevision int64) (Row, error) {
	if err := validTable(table); err != nil {
		return Row{}, err
	}
	payload, err := encode(data)
	if err != nil {
		return Row{}, fmt.Errorf("store: encode %s/%s: %w", table, id, err)
	}
	var row Row
	if expectedRevision == AnyRevision {
		query := fmt.Sprintf(`UPDATE %s SET data = $2, revision = revision + 1, updated_at = now()
			WHERE id = $1 RETURNING id, revision, data, created_at, updated_at`, table)
		err = s.Pool.QueryRow(ctx, query, id, payload).Scan(&row.ID, &row.Revision, &row.Data, &row.CreatedAt, &row.UpdatedAt)
	} else {
		query := fmt.Sprintf(`UPDATE %s SET data = $2, revision = revision + 1, updated_at = now()
			WHERE id = $1 AND revision = $3 RETURNING id, revision, data, created_at, updated_at`, table)
		err = s.Pool.QueryRow(ctx, query, id, payload, expectedRevision).Scan(&row.ID, &row.Revision, &row.Data, &row.CreatedAt, &row.UpdatedAt)
	}
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			if expectedRevision == AnyRevision {
				return Row{}, ErrNotFound
			}
			// Row missing and revision mismatch are indistinguishable here;
			// a second read settles it.
			if _, getErr := s.Get(ctx, table, id); errors.Is(getErr, ErrNotFound) {
				return Row{}, ErrNotFound
			}
			return Row{}, ErrConflict
		}
		return Row{}, fmt.Errorf("store: update %s/%s: %w", table, id, err)
	}
	return row, nil
}

// Delete implements Store.
func (s *PG) Delete(ctx context.Context, table, id string) error {
	if err := validTable(table); err != nil {
		return err
	}
	tag, err := s.Pool.Exec(ctx, fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, table), id)
	if err != nil {
		return fmt.Errorf("store: delete %s/%s: %w", table, id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func validTable(table string) error {
	if !tableNameRe.MatchString(table) {
		return fmt.Errorf("store: invalid table name %q", table)
	}
	return nil
}

var fieldRe = regexp.MustCompile(`[^a-zA-Z0-9_]`)

func sanitizeField(field string) string {
	return fieldRe.ReplaceAllString(field, "")
}
