package history

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
)

// Export writes every record to w in the given format, most recent first.
func (s *Store) Export(ctx context.Context, format ExportFormat, w io.Writer) error {
	recs, err := s.GetAll(ctx, 0)
	if err != nil {
		return fmt.Errorf("history: export: %w", err)
	}

	switch format {
	case ExportJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")

		if err := enc.Encode(recs); err != nil {
			return fmt.Errorf("history: encode json export: %w", err)
		}

		return nil
	case ExportCSV:
		return exportCSV(recs, w)
	default:
		return fmt.Errorf("history: unknown export format %d", format)
	}
}

func exportCSV(recs []UploadRecord, w io.Writer) error {
	cw := csv.NewWriter(w)

	header := []string{
		"file_hash", "file_path", "video_id", "metadata_json",
		"timestamp", "status", "error", "playlist_name", "file_size",
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("history: write csv header: %w", err)
	}

	for _, rec := range recs {
		row := []string{
			rec.FileHash, rec.FilePath, rec.VideoID, rec.MetadataJSON,
			strconv.FormatInt(rec.Timestamp, 10), rec.Status, rec.Error,
			rec.PlaylistName, strconv.FormatInt(rec.FileSize, 10),
		}

		if err := cw.Write(row); err != nil {
			return fmt.Errorf("history: write csv row: %w", err)
		}
	}

	cw.Flush()

	if err := cw.Error(); err != nil {
		return fmt.Errorf("history: flush csv: %w", err)
	}

	return nil
}

// Import inserts each of recs into the store, counting how many were newly
// inserted versus how many were skipped. A row with no file_hash is skipped,
// and a row whose file_hash already exists is skipped leaving the existing
// row untouched — import never overwrites local state.
func (s *Store) Import(ctx context.Context, recs []UploadRecord) (imported, skipped int, err error) {
	for _, rec := range recs {
		if rec.FileHash == "" {
			skipped++
			continue
		}

		existing, err := s.GetByHash(ctx, rec.FileHash)
		if err != nil {
			return imported, skipped, fmt.Errorf("history: import lookup %q: %w", rec.FileHash, err)
		}

		if existing != nil {
			skipped++
			continue
		}

		if err := s.upsert(ctx, rec); err != nil {
			return imported, skipped, fmt.Errorf("history: import upsert %q: %w", rec.FileHash, err)
		}

		imported++
	}

	return imported, skipped, nil
}
