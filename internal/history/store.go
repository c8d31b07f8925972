package history

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite" // pure Go SQLite driver, registers as "sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Store is the SQLite-backed HistoryStore. All of its operations are safe
// for concurrent use; the underlying *sql.DB pools its own connections and
// SQLite's WAL mode lets readers proceed alongside a writer.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open opens (creating if necessary) the SQLite database at path, applies
// pending goose migrations, and migrates a sibling legacy JSON dump on
// first run if one is present.
func Open(ctx context.Context, path string, logger *slog.Logger) (*Store, error) {
	logger.Info("opening history store", "path", path)

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("history: open sqlite: %w", err)
	}

	if err := setPragmas(ctx, db); err != nil {
		db.Close()

		return nil, err
	}

	goose.SetBaseFS(migrationsFS)

	if err := goose.SetDialect("sqlite3"); err != nil {
		db.Close()

		return nil, fmt.Errorf("history: set goose dialect: %w", err)
	}

	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		db.Close()

		return nil, fmt.Errorf("history: running migrations: %w", err)
	}

	s := &Store{db: db, logger: logger}

	if err := s.migrateLegacyJSON(ctx, path); err != nil {
		db.Close()

		return nil, err
	}

	logger.Info("history store ready", "path", path)

	return s, nil
}

func setPragmas(ctx context.Context, db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA foreign_keys = ON",
	}

	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			return fmt.Errorf("history: set pragma %q: %w", p, err)
		}
	}

	return nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	s.logger.Info("closing history store")

	if err := s.db.Close(); err != nil {
		return fmt.Errorf("history: close: %w", err)
	}

	return nil
}

// IsUploaded reports whether a successful upload with this content hash is
// already recorded.
func (s *Store) IsUploaded(ctx context.Context, fileHash string) (bool, error) {
	var count int

	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM uploads WHERE file_hash = ? AND status = ?`,
		fileHash, StatusSuccess,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("history: is uploaded %q: %w", fileHash, err)
	}

	return count > 0, nil
}

// IsUploadedByPath reports whether a successful upload with this file path
// is already recorded. This is the cheap fast-path check performed before
// hashing the file (spec: avoid hashing files that are obviously already
// uploaded by path).
func (s *Store) IsUploadedByPath(ctx context.Context, filePath string) (bool, error) {
	var count int

	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM uploads WHERE file_path = ? AND status = ?`,
		filePath, StatusSuccess,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("history: is uploaded by path %q: %w", filePath, err)
	}

	return count > 0, nil
}

const upsertSQL = `
INSERT INTO uploads (file_hash, file_path, video_id, metadata_json, timestamp, status, error, playlist_name, file_size)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(file_hash) DO UPDATE SET
	file_path     = excluded.file_path,
	video_id      = excluded.video_id,
	metadata_json = excluded.metadata_json,
	timestamp     = MAX(excluded.timestamp, uploads.timestamp),
	status        = excluded.status,
	error         = excluded.error,
	playlist_name = excluded.playlist_name,
	file_size     = excluded.file_size
`

// UpsertSuccess records a completed upload, replacing any existing row for
// the same content hash.
func (s *Store) UpsertSuccess(ctx context.Context, rec UploadRecord) error {
	rec.Status = StatusSuccess
	rec.Error = ""

	return s.upsert(ctx, rec)
}

// UpsertFailure records a failed upload attempt, replacing any existing row
// for the same content hash.
func (s *Store) UpsertFailure(ctx context.Context, rec UploadRecord) error {
	rec.Status = StatusFailed
	rec.VideoID = ""

	return s.upsert(ctx, rec)
}

func (s *Store) upsert(ctx context.Context, rec UploadRecord) error {
	_, err := s.db.ExecContext(ctx, upsertSQL,
		rec.FileHash, rec.FilePath, nullable(rec.VideoID), rec.MetadataJSON,
		rec.Timestamp, rec.Status, nullable(rec.Error), nullable(rec.PlaylistName), rec.FileSize,
	)
	if err != nil {
		return fmt.Errorf("history: upsert %q: %w", rec.FileHash, err)
	}

	return nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}

	return s
}

// DeleteByHash removes the record with the given content hash. Returns
// false if no such record existed.
func (s *Store) DeleteByHash(ctx context.Context, hash string) (bool, error) {
	return s.delete(ctx, `DELETE FROM uploads WHERE file_hash = ?`, hash)
}

// DeleteByPath removes all records matching the given file path. Returns
// false if no such record existed.
func (s *Store) DeleteByPath(ctx context.Context, path string) (bool, error) {
	return s.delete(ctx, `DELETE FROM uploads WHERE file_path = ?`, path)
}

// DeleteByVideoID removes the record with the given remote video id.
// Returns false if no such record existed.
func (s *Store) DeleteByVideoID(ctx context.Context, videoID string) (bool, error) {
	return s.delete(ctx, `DELETE FROM uploads WHERE video_id = ?`, videoID)
}

func (s *Store) delete(ctx context.Context, query string, arg string) (bool, error) {
	result, err := s.db.ExecContext(ctx, query, arg)
	if err != nil {
		return false, fmt.Errorf("history: delete: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("history: rows affected: %w", err)
	}

	return n > 0, nil
}

const selectColumns = `file_hash, file_path, video_id, metadata_json, timestamp, status, error, playlist_name, file_size`

func scanRecord(row interface{ Scan(...any) error }) (UploadRecord, error) {
	var (
		rec               UploadRecord
		videoID, errField, playlistName sql.NullString
	)

	err := row.Scan(
		&rec.FileHash, &rec.FilePath, &videoID, &rec.MetadataJSON,
		&rec.Timestamp, &rec.Status, &errField, &playlistName, &rec.FileSize,
	)
	if err != nil {
		return UploadRecord{}, err
	}

	rec.VideoID = videoID.String
	rec.Error = errField.String
	rec.PlaylistName = playlistName.String

	return rec, nil
}

// GetByHash returns the record with the given content hash, or nil if none
// exists.
func (s *Store) GetByHash(ctx context.Context, hash string) (*UploadRecord, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+selectColumns+` FROM uploads WHERE file_hash = ?`, hash)

	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil //nolint:nilnil // nil record means "not found"
	}

	if err != nil {
		return nil, fmt.Errorf("history: get by hash %q: %w", hash, err)
	}

	return &rec, nil
}

// GetByVideoID returns the record with the given remote video id, or nil if
// none exists.
func (s *Store) GetByVideoID(ctx context.Context, videoID string) (*UploadRecord, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+selectColumns+` FROM uploads WHERE video_id = ?`, videoID)

	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil //nolint:nilnil // nil record means "not found"
	}

	if err != nil {
		return nil, fmt.Errorf("history: get by video id %q: %w", videoID, err)
	}

	return &rec, nil
}

// GetAll returns every record, most recent first. limit <= 0 means no
// limit.
func (s *Store) GetAll(ctx context.Context, limit int) ([]UploadRecord, error) {
	query := `SELECT ` + selectColumns + ` FROM uploads ORDER BY timestamp DESC`

	var (
		rows *sql.Rows
		err  error
	)

	if limit > 0 {
		rows, err = s.db.QueryContext(ctx, query+` LIMIT ?`, limit)
	} else {
		rows, err = s.db.QueryContext(ctx, query)
	}

	if err != nil {
		return nil, fmt.Errorf("history: get all: %w", err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

// GetFailed returns every record whose status is "failed".
func (s *Store) GetFailed(ctx context.Context) ([]UploadRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+selectColumns+` FROM uploads WHERE status = ? ORDER BY timestamp DESC`, StatusFailed)
	if err != nil {
		return nil, fmt.Errorf("history: get failed: %w", err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

func scanRecords(rows *sql.Rows) ([]UploadRecord, error) {
	var recs []UploadRecord

	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("history: scan row: %w", err)
		}

		recs = append(recs, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("history: iterate rows: %w", err)
	}

	return recs, nil
}

// CountSince returns the count and total file size of successful uploads
// recorded at or after cutoff (unix seconds). Used by the QuotaEstimator to
// compute today's usage without scanning the whole table client-side.
func (s *Store) CountSince(ctx context.Context, cutoff int64) (count int, totalSize int64, err error) {
	err = s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(file_size), 0) FROM uploads WHERE status = ? AND timestamp >= ?`,
		StatusSuccess, cutoff,
	).Scan(&count, &totalSize)
	if err != nil {
		return 0, 0, fmt.Errorf("history: count since %d: %w", cutoff, err)
	}

	return count, totalSize, nil
}
