package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	_ "modernc.org/sqlite" // pure go sqlite driver

	"github.com/theduckgroup/Apps-sub000/internal/domain"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS catalogs (
	id         TEXT PRIMARY KEY,
	kind       TEXT NOT NULL,
	name       TEXT NOT NULL,
	updated_at INTEGER NOT NULL,
	payload    BLOB NOT NULL
);
CREATE INDEX IF NOT EXISTS catalogs_name ON catalogs (name, id);
CREATE TABLE IF NOT EXISTS reports (
	id           TEXT PRIMARY KEY,
	catalog_id   TEXT NOT NULL,
	user         TEXT NOT NULL,
	submitted_at INTEGER NOT NULL,
	payload      BLOB NOT NULL
);
CREATE INDEX IF NOT EXISTS reports_user ON reports (user, submitted_at DESC);
`

// SQLiteRepository is the single-node store: catalogs and reports live as
// JSON blobs in one SQLite file.
type SQLiteRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

var (
	_ domain.CatalogRepository = (*SQLiteRepository)(nil)
	_ domain.ReportRepository  = (*SQLiteRepository)(nil)
	_ domain.HealthChecker     = (*SQLiteRepository)(nil)
)

func NewSQLiteRepository(path string, logger *zap.Logger) (*SQLiteRepository, error) {
	if path == "" {
		path = "catalogs.db"
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, fmt.Errorf("create dirs: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One connection: SQLite has a single writer.
	db.SetMaxOpenConns(1)

	repo := &SQLiteRepository{db: db, logger: logger}
	if err := repo.EnsureCollections(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return repo, nil
}

func (s *SQLiteRepository) EnsureCollections(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, sqliteSchema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

func (s *SQLiteRepository) CheckConnection(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLiteRepository) Close() error {
	return s.db.Close()
}

func (s *SQLiteRepository) Get(ctx context.Context, id string) (*domain.Catalog, error) {
	var payload string
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM catalogs WHERE id = ?`, id).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("catalog %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("select catalog %s: %w", id, err)
	}
	return decodeCatalog(payload)
}

func (s *SQLiteRepository) Put(ctx context.Context, c *domain.Catalog) error {
	payload, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode catalog %s: %w", c.ID, err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO catalogs (id, kind, name, updated_at, payload) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			kind = excluded.kind,
			name = excluded.name,
			updated_at = excluded.updated_at,
			payload = excluded.payload`,
		c.ID, string(c.Kind), c.Name, c.UpdatedAt.UnixNano(), string(payload))
	if err != nil {
		s.logger.Error("catalog upsert failed", zap.String("id", c.ID), zap.Error(err))
		return fmt.Errorf("upsert catalog %s: %w", c.ID, err)
	}
	return nil
}

func (s *SQLiteRepository) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM catalogs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete catalog %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("catalog %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

func (s *SQLiteRepository) List(ctx context.Context, filter domain.CatalogFilter) (*domain.PaginatedResult[*domain.Catalog], error) {
	where, args := "", []any{}
	if filter.Kind != "" {
		where, args = "WHERE kind = ?", append(args, string(filter.Kind))
	}

	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM catalogs `+where, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count catalogs: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT payload FROM catalogs `+where+` ORDER BY name, id LIMIT ? OFFSET ?`,
		append(args, sqlLimit(filter.Limit), filter.Offset)...)
	if err != nil {
		return nil, fmt.Errorf("list catalogs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var items []*domain.Catalog
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan catalog: %w", err)
		}
		c, err := decodeCatalog(payload)
		if err != nil {
			return nil, err
		}
		items = append(items, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list catalogs: %w", err)
	}
	return domain.NewPaginatedResult(items, total, filter.PaginationParams), nil
}

func (s *SQLiteRepository) Create(ctx context.Context, r *domain.Report) error {
	payload, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("encode report %s: %w", r.ID, err)
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO reports (id, catalog_id, user, submitted_at, payload) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING`,
		r.ID, r.CatalogID, r.User, r.SubmittedAt.UnixNano(), string(payload))
	if err != nil {
		s.logger.Error("report insert failed", zap.String("id", r.ID), zap.Error(err))
		return fmt.Errorf("insert report %s: %w", r.ID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("report %s: %w", r.ID, domain.ErrAlreadyExists)
	}
	return nil
}

func (s *SQLiteRepository) GetByID(ctx context.Context, id string) (*domain.Report, error) {
	var payload string
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM reports WHERE id = ?`, id).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("report %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("select report %s: %w", id, err)
	}
	return decodeReport(payload)
}

func (s *SQLiteRepository) ListByUser(ctx context.Context, user string, params domain.PaginationParams) (*domain.PaginatedResult[*domain.Report], error) {
	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM reports WHERE user = ?`, user).Scan(&total); err != nil {
		return nil, fmt.Errorf("count reports: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT payload FROM reports WHERE user = ? ORDER BY submitted_at DESC, id LIMIT ? OFFSET ?`,
		user, sqlLimit(params.Limit), params.Offset)
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var items []*domain.Report
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan report: %w", err)
		}
		r, err := decodeReport(payload)
		if err != nil {
			return nil, err
		}
		items = append(items, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	return domain.NewPaginatedResult(items, total, params), nil
}

// sqlLimit maps "no limit" to SQLite's -1.
func sqlLimit(limit int) int {
	if limit <= 0 {
		return -1
	}
	return limit
}
