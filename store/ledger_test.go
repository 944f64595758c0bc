package store

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/isohyet-io/isohyet/types"
)

func mustDate(t *testing.T, s string) types.Date {
	t.Helper()
	d, err := types.ParseDate(s)
	if err != nil {
		t.Fatal(err)
	}
	return d
}

func failureFor(t *testing.T, s string, kind types.FailureKind) types.FailureRecord {
	t.Helper()
	return types.FailureRecord{
		Date:      mustDate(t, s),
		Kind:      kind,
		Message:   "slice fetch failed",
		Timestamp: time.Date(2026, 8, 23, 12, 0, 0, 0, time.UTC),
	}
}

func TestFileLedger_MissingFileReadsEmpty(t *testing.T) {
	ledger := NewFileLedger(filepath.Join(t.TempDir(), "failed_jobs.json"))

	records, err := ledger.Read()
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("expected empty ledger, got %d records", len(records))
	}
}

func TestFileLedger_WriteReadRoundtrip(t *testing.T) {
	ledger := NewFileLedger(filepath.Join(t.TempDir(), "failed_jobs.json"))

	want := []types.FailureRecord{
		failureFor(t, "1988-04-01", types.FailureDownload),
		failureFor(t, "1988-04-02", types.FailureValidation),
	}
	if err := ledger.Write(want); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	got, err := ledger.Read()
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 records, got %d", len(got))
	}
	if got[0].Date != want[0].Date || got[0].Kind != want[0].Kind {
		t.Errorf("first record = %+v", got[0])
	}
	if got[1].Kind != types.FailureValidation {
		t.Errorf("second record kind = %s", got[1].Kind)
	}
}

func TestFileLedger_WriteReplacesPreviousContents(t *testing.T) {
	ledger := NewFileLedger(filepath.Join(t.TempDir(), "failed_jobs.json"))

	if err := ledger.Write([]types.FailureRecord{
		failureFor(t, "1988-04-01", types.FailureDownload),
		failureFor(t, "1988-04-02", types.FailureDownload),
	}); err != nil {
		t.Fatal(err)
	}
	if err := ledger.Write([]types.FailureRecord{
		failureFor(t, "1988-04-03", types.FailureAggregation),
	}); err != nil {
		t.Fatal(err)
	}

	got, err := ledger.Read()
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Date.String() != "1988-04-03" {
		t.Errorf("ledger not replaced: %+v", got)
	}
}

func TestFileLedger_EmptyWriteIsValidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "failed_jobs.json")
	ledger := NewFileLedger(path)

	if err := ledger.Write(nil); err != nil {
		t.Fatalf("Write(nil) failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(strings.TrimSpace(string(data)), "[") {
		t.Errorf("empty ledger is not a JSON array: %q", data)
	}

	got, err := ledger.Read()
	if err != nil {
		t.Fatalf("Read after empty write failed: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected empty, got %d records", len(got))
	}
}

func TestFileLedger_NoTempFilesLeftBehind(t *testing.T) {
	dir := t.TempDir()
	ledger := NewFileLedger(filepath.Join(dir, "failed_jobs.json"))

	if err := ledger.Write([]types.FailureRecord{
		failureFor(t, "1988-04-01", types.FailureDownload),
	}); err != nil {
		t.Fatal(err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Name() != "failed_jobs.json" {
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Errorf("unexpected files after write: %v", names)
	}
}

func TestFileLedger_CorruptFileReturnsError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "failed_jobs.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := NewFileLedger(path).Read(); err == nil {
		t.Fatal("expected error for corrupt ledger")
	}
}
