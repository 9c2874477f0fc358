package provider

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/aryasaputra/journalvault/pkg/classify"
	"github.com/aryasaputra/journalvault/pkg/types"
)

// SQLiteStore keeps the metadata rows in a local SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.initTables(); err != nil {
		return nil, fmt.Errorf("failed to initialize tables: %w", err)
	}
	return store, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) initTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS files (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		title TEXT,
		original_name TEXT NOT NULL,
		storage_key TEXT NOT NULL UNIQUE,
		mimetype TEXT NOT NULL DEFAULT 'application/octet-stream',
		size INTEGER NOT NULL,
		uploaded_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_files_uploaded_at ON files(uploaded_at);
	CREATE INDEX IF NOT EXISTS idx_files_original_name ON files(original_name);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Insert stores a new row and returns the record with its assigned id.
func (s *SQLiteStore) Insert(ctx context.Context, rec *types.FileRecord) (*types.FileRecord, error) {
	if rec.UploadedAt.IsZero() {
		rec.UploadedAt = time.Now().UTC()
	}

	var title sql.NullString
	if rec.Title != nil {
		title = sql.NullString{String: *rec.Title, Valid: true}
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO files (title, original_name, storage_key, mimetype, size, uploaded_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		title, rec.OriginalName, rec.StorageKey, rec.MimeType, rec.SizeBytes, rec.UploadedAt,
	)
	if err != nil {
		return nil, &types.ProviderError{Op: "insert record", Err: err}
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, &types.ProviderError{Op: "insert record", Err: err}
	}

	out := *rec
	out.ID = id
	return &out, nil
}

func (s *SQLiteStore) Get(ctx context.Context, id int64) (*types.FileRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, title, original_name, storage_key, mimetype, size, uploaded_at
		FROM files WHERE id = ?`, id)

	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, &types.ProviderError{Op: "get record", Err: err}
	}
	return rec, nil
}

func (s *SQLiteStore) Delete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM files WHERE id = ?", id)
	if err != nil {
		return &types.ProviderError{Op: "delete record", Err: err}
	}
	n, err := res.RowsAffected()
	if err != nil {
		return &types.ProviderError{Op: "delete record", Err: err}
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// List returns records newest first. The query matches title and original
// name case-insensitively; the category filter re-classifies each row so
// it agrees with what the badges show.
func (s *SQLiteStore) List(ctx context.Context, filter types.ListFilter) ([]types.FileRecord, error) {
	query := `
		SELECT id, title, original_name, storage_key, mimetype, size, uploaded_at
		FROM files`
	var args []interface{}

	if q := strings.TrimSpace(filter.Query); q != "" {
		query += ` WHERE LOWER(IFNULL(title, '')) LIKE ? OR LOWER(original_name) LIKE ?`
		pat := "%" + strings.ToLower(q) + "%"
		args = append(args, pat, pat)
	}
	query += ` ORDER BY uploaded_at DESC, id DESC`

	// Limit/offset move into SQL only when no category filter applies;
	// with one, paging happens after re-classification.
	if filter.Category == "" && filter.Limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, filter.Limit, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, &types.ProviderError{Op: "list records", Err: err}
	}
	defer rows.Close()

	var records []types.FileRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, &types.ProviderError{Op: "list records", Err: err}
		}
		records = append(records, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, &types.ProviderError{Op: "list records", Err: err}
	}

	if filter.Category != "" {
		records = filterByCategory(records, filter.Category)
		records = page(records, filter.Limit, filter.Offset)
	}
	return records, nil
}

func filterByCategory(records []types.FileRecord, cat types.Category) []types.FileRecord {
	out := records[:0]
	for _, rec := range records {
		if classify.Classify(rec.MimeType, rec.OriginalName) == cat {
			out = append(out, rec)
		}
	}
	return out
}

func page(records []types.FileRecord, limit, offset int) []types.FileRecord {
	if offset > 0 {
		if offset >= len(records) {
			return nil
		}
		records = records[offset:]
	}
	if limit > 0 && limit < len(records) {
		records = records[:limit]
	}
	return records
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRecord(row scanner) (*types.FileRecord, error) {
	var rec types.FileRecord
	var title sql.NullString
	if err := row.Scan(&rec.ID, &title, &rec.OriginalName, &rec.StorageKey,
		&rec.MimeType, &rec.SizeBytes, &rec.UploadedAt); err != nil {
		return nil, err
	}
	if title.Valid {
		rec.Title = &title.String
	}
	return &rec, nil
}
