// Package metadata builds the title, description, tags, and recording
// details attached to each upload, by combining per-folder template
// configuration with whatever container metadata (creation time, GPS) can
// be extracted from the file itself.
package metadata

// Location is a GPS fix extracted from (or alongside) a video file.
type Location struct {
	Latitude  float64
	Longitude float64
	Altitude  *float64
}

// RecordingDetails mirrors the platform's recordingDetails upload field.
type RecordingDetails struct {
	// RecordingDate is ISO-8601 with a trailing "Z", empty if unknown.
	RecordingDate string
	Location      *Location
}

// Record is the fully built metadata for one upload.
type Record struct {
	Title            string
	Description      string
	Tags             []string
	RecordingDetails RecordingDetails
}
