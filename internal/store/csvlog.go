package store

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/akravchenko/alertmap/internal/models"
)

var csvHeader = []string{"message", "place", "lat", "lon", "timestamp"}

// CSVLog is the durable columnar alert log consumed by external tooling:
// one row per record, header row, RFC-3339 UTC timestamps. Appended to on
// every new record and fully rewritten on every prune pass.
type CSVLog struct {
	path string
	mu   sync.Mutex
}

// NewCSVLog opens the log at path, creating an empty file with a header row
// when none exists.
func NewCSVLog(path string) (*CSVLog, error) {
	l := &CSVLog{path: path}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := l.Rewrite(nil); err != nil {
			return nil, fmt.Errorf("error creating alert log: %w", err)
		}
	} else if err != nil {
		return nil, fmt.Errorf("error checking alert log: %w", err)
	}

	return l, nil
}

// Append writes one record to the end of the log.
func (l *CSVLog) Append(r models.AlertRecord) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("error opening alert log: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(recordRow(r)); err != nil {
		return fmt.Errorf("error writing alert log row: %w", err)
	}
	w.Flush()
	return w.Error()
}

// Rewrite replaces the whole log with the given records.
func (l *CSVLog) Rewrite(records []models.AlertRecord) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.Create(l.path)
	if err != nil {
		return fmt.Errorf("error rewriting alert log: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(csvHeader); err != nil {
		return fmt.Errorf("error writing alert log header: %w", err)
	}
	for _, r := range records {
		if err := w.Write(recordRow(r)); err != nil {
			return fmt.Errorf("error writing alert log row: %w", err)
		}
	}
	w.Flush()
	return w.Error()
}

func recordRow(r models.AlertRecord) []string {
	return []string{
		r.Message,
		r.Place,
		strconv.FormatFloat(r.Latitude, 'f', -1, 64),
		strconv.FormatFloat(r.Longitude, 'f', -1, 64),
		r.Timestamp.UTC().Format(time.RFC3339Nano),
	}
}
