package store

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/isohyet-io/isohyet/types"
)

// Ledger records which dates failed during a pass so a later retry pass
// can pick them up.
type Ledger interface {
	// Read returns the recorded failures. A ledger that has never been
	// written reads as empty.
	Read() ([]types.FailureRecord, error)
	// Write replaces the entire ledger contents. The ledger on disk is
	// always either the previous complete set or the new complete set,
	// never a mix.
	Write(records []types.FailureRecord) error
}

// FileLedger stores failure records as a JSON array in a single file.
// Writes go through a temp file and rename so a crash mid-write leaves
// the previous ledger intact.
type FileLedger struct {
	path string
}

// NewFileLedger returns a ledger backed by the file at path. The file
// need not exist yet.
func NewFileLedger(path string) *FileLedger {
	return &FileLedger{path: path}
}

// Path returns the ledger file location.
func (l *FileLedger) Path() string { return l.path }

// Read implements Ledger.
func (l *FileLedger) Read() ([]types.FailureRecord, error) {
	data, err := os.ReadFile(l.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading ledger %s: %w", l.path, err)
	}

	var records []types.FailureRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parsing ledger %s: %w", l.path, err)
	}
	return records, nil
}

// Write implements Ledger. An empty or nil slice writes an empty array,
// not an empty file, so Read on the result succeeds.
func (l *FileLedger) Write(records []types.FailureRecord) error {
	if records == nil {
		records = []types.FailureRecord{}
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding ledger: %w", err)
	}
	data = append(data, '\n')

	if err := writeFileAtomic(l.path, data); err != nil {
		return fmt.Errorf("writing ledger: %w", err)
	}
	return nil
}

var _ Ledger = (*FileLedger)(nil)
