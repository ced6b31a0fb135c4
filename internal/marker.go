package internal

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/go-git/go-billy/v5"
)

// Marker records the digest of the mirror the last time it changed, with a
// timestamp for operators. File format: digest on the first line, RFC3339
// UTC timestamp on the second.
type Marker struct {
	Digest    string
	UpdatedAt time.Time
}

// ReadMarker loads the marker file. A missing file is not an error; it
// returns an empty marker, which never matches a real digest.
func ReadMarker(fs billy.Filesystem, path string) (Marker, error) {
	file, err := fs.Open(path)
	if os.IsNotExist(err) {
		return Marker{}, nil
	}
	if err != nil {
		return Marker{}, fmt.Errorf("opening marker %s: %w", path, err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return Marker{}, fmt.Errorf("reading marker %s: %w", path, err)
	}

	fields := strings.Fields(string(data))
	marker := Marker{}
	if len(fields) > 0 {
		marker.Digest = fields[0]
	}
	if len(fields) > 1 {
		if ts, err := time.Parse(time.RFC3339, fields[1]); err == nil {
			marker.UpdatedAt = ts
		}
	}
	return marker, nil
}

// WriteMarker persists the marker, truncating any previous record.
func WriteMarker(fs billy.Filesystem, path string, marker Marker) error {
	file, err := fs.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("opening marker %s: %w", path, err)
	}
	defer file.Close()

	content := fmt.Sprintf("%s\n%s", marker.Digest, marker.UpdatedAt.UTC().Format(time.RFC3339))
	if _, err := file.Write([]byte(content)); err != nil {
		return fmt.Errorf("writing marker %s: %w", path, err)
	}
	return nil
}
