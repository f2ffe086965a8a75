package results

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jszwec/csvutil"
	"github.com/skyscout/skyscout/internal/skyapi"
)

// WriteCSV encodes rows with a header line. An empty slice still writes
// the header.
func WriteCSV(w io.Writer, rows []Row) error {
	cw := csv.NewWriter(w)
	enc := csvutil.NewEncoder(cw)
	enc.AutoHeader = true

	if len(rows) == 0 {
		if err := enc.EncodeHeader(Row{}); err != nil {
			return fmt.Errorf("encode csv header: %w", err)
		}
	}
	for _, row := range rows {
		if err := enc.Encode(row); err != nil {
			return fmt.Errorf("encode csv row: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}

// Export writes itineraries for q into a new file under dir and returns
// its path. The name encodes the route and the export time.
func Export(dir string, q skyapi.FlightQuery, items []skyapi.Itinerary, now time.Time) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create export dir: %w", err)
	}
	name := fmt.Sprintf("skyscout-%s-%s-%s-%s.csv",
		fileSafe(q.Origin.SkyID), fileSafe(q.Destination.SkyID), fileSafe(q.Date),
		now.Format("20060102-150405"))
	path := filepath.Join(dir, name)

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("create export: %w", err)
	}
	if err := WriteCSV(file, SummarizeAll(items)); err != nil {
		file.Close()
		return "", err
	}
	if err := file.Close(); err != nil {
		return "", fmt.Errorf("close export: %w", err)
	}
	return path, nil
}

func fileSafe(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "any"
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-':
			return r
		default:
			return '_'
		}
	}, s)
}
