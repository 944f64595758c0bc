package store

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/isohyet-io/isohyet/types"
)

// UltimateLog is the append-only record of dates that failed both the
// initial pass and the retry pass. Entries are JSON lines; nothing ever
// rewrites or removes them.
type UltimateLog struct {
	path string
}

// NewUltimateLog returns a log backed by the JSONL file at path.
func NewUltimateLog(path string) *UltimateLog {
	return &UltimateLog{path: path}
}

// Path returns the log file location.
func (u *UltimateLog) Path() string { return u.path }

// Append adds records to the end of the log. Records from prior passes
// are preserved.
func (u *UltimateLog) Append(records []types.FailureRecord) error {
	if len(records) == 0 {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(u.path), 0o755); err != nil {
		return fmt.Errorf("creating log directory: %w", err)
	}

	f, err := os.OpenFile(u.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("opening ultimate log %s: %w", u.path, err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	for _, rec := range records {
		if err := enc.Encode(rec); err != nil {
			return fmt.Errorf("appending to ultimate log: %w", err)
		}
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("syncing ultimate log: %w", err)
	}
	return nil
}

// Read returns every record in the log in append order. A log that has
// never been written reads as empty.
func (u *UltimateLog) Read() ([]types.FailureRecord, error) {
	f, err := os.Open(u.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening ultimate log %s: %w", u.path, err)
	}
	defer f.Close()

	var records []types.FailureRecord
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}
		var rec types.FailureRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			return nil, fmt.Errorf("parsing ultimate log %s line %d: %w", u.path, line, err)
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading ultimate log %s: %w", u.path, err)
	}
	return records, nil
}
