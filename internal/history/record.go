// Package history implements the durable upload ledger: a SQLite-backed
// store of every upload attempt, keyed by content hash, with a path fast
// path for pre-hash dedup checks.
package history

// Status values for UploadRecord.Status.
const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

// UploadRecord is one row of upload history: either a completed upload or a
// recorded failure. FileHash is the primary key; a record with the same
// hash as an existing row replaces it (last write wins), per the upsert
// contract.
type UploadRecord struct {
	FileHash     string
	FilePath     string
	VideoID      string
	MetadataJSON string
	Timestamp    int64
	Status       string
	Error        string
	PlaylistName string
	FileSize     int64
}
