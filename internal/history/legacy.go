package history

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// legacyRecord mirrors one row of the original TinyDB "uploads" table
// (src/lib/data/history.py), as found under the JSON document's "uploads"
// key, either as {"<doc_id>": {...}, ...} or as a bare list [{...}, ...].
type legacyRecord struct {
	FilePath     string         `json:"file_path"`
	FileHash     string         `json:"file_hash"`
	VideoID      *string        `json:"video_id"`
	Metadata     map[string]any `json:"metadata"`
	Timestamp    float64        `json:"timestamp"`
	Status       string         `json:"status"`
	Error        *string        `json:"error"`
	PlaylistName *string        `json:"playlist_name"`
	FileSize     int64          `json:"file_size"`
}

type legacyDocument struct {
	Uploads json.RawMessage `json:"uploads"`
}

const legacyMigratedSuffix = ".migrated"

// migrateLegacyJSON looks for a sibling upload_history.json (the name the
// TinyDB store used before this database existed) next to dbPath. If found,
// and the uploads table is still empty, every record is decoded and
// upserted, and the legacy file is renamed with a ".migrated" suffix so it
// is never silently lost. This is a one-shot, idempotent operation: once
// the table has any rows, or the legacy file has already been renamed,
// nothing happens.
func (s *Store) migrateLegacyJSON(ctx context.Context, dbPath string) error {
	legacyPath := legacyJSONPath(dbPath)

	data, err := os.ReadFile(legacyPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}

		return fmt.Errorf("history: read legacy json %q: %w", legacyPath, err)
	}

	var count int

	err = s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM uploads`).Scan(&count)
	if err != nil {
		return fmt.Errorf("history: count existing rows: %w", err)
	}

	if count > 0 {
		s.logger.Info("legacy json present but history already populated, skipping migration",
			"legacy_path", legacyPath)

		return nil
	}

	var doc legacyDocument

	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("history: parse legacy json %q: %w", legacyPath, err)
	}

	var records []legacyRecord

	var byID map[string]legacyRecord
	if err := json.Unmarshal(doc.Uploads, &byID); err == nil {
		for _, rec := range byID {
			records = append(records, rec)
		}
	} else if len(doc.Uploads) > 0 {
		if err := json.Unmarshal(doc.Uploads, &records); err != nil {
			return fmt.Errorf("history: parse legacy json %q: %w", legacyPath, err)
		}
	}

	imported := 0

	for _, rec := range records {
		converted, err := convertLegacyRecord(rec)
		if err != nil {
			s.logger.Warn("skipping unconvertible legacy record", "file_path", rec.FilePath, "error", err)

			continue
		}

		if err := s.upsert(ctx, converted); err != nil {
			return fmt.Errorf("history: import legacy record %q: %w", rec.FilePath, err)
		}

		imported++
	}

	if err := os.Rename(legacyPath, legacyPath+legacyMigratedSuffix); err != nil {
		return fmt.Errorf("history: rename migrated legacy json: %w", err)
	}

	s.logger.Info("migrated legacy json history", "imported", imported, "legacy_path", legacyPath)

	return nil
}

func legacyJSONPath(dbPath string) string {
	dir := filepath.Dir(dbPath)

	return filepath.Join(dir, "upload_history.json")
}

func convertLegacyRecord(rec legacyRecord) (UploadRecord, error) {
	metadataJSON := "{}"

	if len(rec.Metadata) > 0 {
		b, err := json.Marshal(rec.Metadata)
		if err != nil {
			return UploadRecord{}, fmt.Errorf("marshal legacy metadata: %w", err)
		}

		metadataJSON = string(b)
	}

	status := strings.ToLower(strings.TrimSpace(rec.Status))
	if status != StatusSuccess && status != StatusFailed {
		status = StatusFailed
	}

	out := UploadRecord{
		FilePath:     rec.FilePath,
		FileHash:     rec.FileHash,
		MetadataJSON: metadataJSON,
		Timestamp:    int64(rec.Timestamp),
		Status:       status,
		FileSize:     rec.FileSize,
	}

	if rec.VideoID != nil {
		out.VideoID = *rec.VideoID
	}

	if rec.Error != nil {
		out.Error = *rec.Error
	}

	if rec.PlaylistName != nil {
		out.PlaylistName = *rec.PlaylistName
	}

	return out, nil
}

// ExportFormat selects the output encoding for Store.Export.
type ExportFormat int

const (
	// ExportJSON writes the full record set as a JSON array.
	ExportJSON ExportFormat = iota
	// ExportCSV writes the full record set as CSV with a header row.
	ExportCSV
)
