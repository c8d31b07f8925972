package metadata

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"time"
)

// containerInfo holds whatever an MP4/QuickTime box walk was able to
// extract: creation time from the movie header, and GPS if a "©xyz"
// user-data string atom was present.
type containerInfo struct {
	CreationTime time.Time
	Location     *Location
}

// macEpoch is the QuickTime/MP4 "seconds since" reference instant
// (1904-01-01T00:00:00Z), used by mvhd's creation_time/modification_time
// fields.
var macEpoch = time.Date(1904, time.January, 1, 0, 0, 0, 0, time.UTC)

// containerBoxTypes that hold child boxes rather than opaque payload, so
// the walk recurses into them.
var containerBoxTypes = map[string]bool{
	"moov": true,
	"udta": true,
	"meta": true,
	"trak": true,
	"mdia": true,
}

// extractContainerMetadata walks the top-level box structure of an
// MP4/QuickTime file looking for "mvhd" (creation time) and "©xyz" (a
// free-text GPS string in ISO 6709 form, as written by most phone
// cameras). Returns a zero-value containerInfo (no error) if the file
// isn't a box-structured container at all; parse errors deeper in the
// tree are tolerated the same way, since container metadata is always a
// best-effort enrichment, never required for an upload to proceed.
func extractContainerMetadata(path string) (containerInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		return containerInfo{}, fmt.Errorf("metadata: container open %q: %w", path, err)
	}
	defer f.Close()

	info, err := os.Stat(path)
	if err != nil {
		return containerInfo{}, fmt.Errorf("metadata: container stat %q: %w", path, err)
	}

	var out containerInfo

	walkBoxes(f, info.Size(), &out)

	return out, nil
}

// walkBoxes scans boxes in [offset, end) of r, recursing into container
// box types and extracting mvhd/©xyz data as it finds them. Malformed
// boxes simply stop the walk at that level rather than erroring, since this
// is a best-effort enrichment over an ordinary binary file.
func walkBoxes(r io.ReadSeeker, end int64, out *containerInfo) {
	var header [8]byte

	for {
		pos, err := r.Seek(0, io.SeekCurrent)
		if err != nil || pos >= end {
			return
		}

		if _, err := io.ReadFull(r, header[:]); err != nil {
			return
		}

		size := int64(binary.BigEndian.Uint32(header[0:4]))
		boxType := string(header[4:8])

		if size < 8 {
			return
		}

		bodyStart := pos + 8
		bodyEnd := pos + size

		if bodyEnd > end {
			return
		}

		switch {
		case containerBoxTypes[boxType]:
			walkBoxes(r, bodyEnd, out)
		case boxType == "mvhd":
			readMVHD(r, bodyStart, out)
		case boxType == "\xa9xyz":
			readXYZ(r, bodyStart, bodyEnd, out)
		}

		if _, err := r.Seek(bodyEnd, io.SeekStart); err != nil {
			return
		}
	}
}

func readMVHD(r io.ReadSeeker, bodyStart int64, out *containerInfo) {
	if _, err := r.Seek(bodyStart, io.SeekStart); err != nil {
		return
	}

	var versionFlags [4]byte
	if _, err := io.ReadFull(r, versionFlags[:]); err != nil {
		return
	}

	version := versionFlags[0]

	var creationSeconds uint64

	if version == 1 {
		var buf [8]byte
		if _, err := io.ReadFull(r, buf[:]); err != nil {
			return
		}

		creationSeconds = binary.BigEndian.Uint64(buf[:])
	} else {
		var buf [4]byte
		if _, err := io.ReadFull(r, buf[:]); err != nil {
			return
		}

		creationSeconds = uint64(binary.BigEndian.Uint32(buf[:]))
	}

	if creationSeconds == 0 {
		return
	}

	out.CreationTime = macEpoch.Add(time.Duration(creationSeconds) * time.Second)
}

func readXYZ(r io.ReadSeeker, bodyStart, bodyEnd int64, out *containerInfo) {
	if out.Location != nil {
		return
	}

	n := bodyEnd - bodyStart
	if n <= 0 || n > 1<<16 {
		return
	}

	if _, err := r.Seek(bodyStart, io.SeekStart); err != nil {
		return
	}

	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return
	}

	out.Location = matchISO6709(buf)
}
