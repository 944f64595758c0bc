package store

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/parquet-go/parquet-go"

	"github.com/isohyet-io/isohyet/types"
)

// AggregateStore persists one daily aggregate per date. A date either has
// a complete, validated aggregate on disk or nothing at all.
type AggregateStore interface {
	// WriteDaily persists the aggregate for its date, replacing any
	// previous version. The write is atomic: readers and crashes never
	// observe a partial file.
	WriteDaily(agg *types.DailyAggregate) error
	// Exists reports whether a completed aggregate is stored for date.
	Exists(date types.Date) (bool, error)
	// Read loads the stored aggregate for date.
	Read(date types.Date) (*types.DailyAggregate, error)
	// Remove deletes the stored aggregate for date, if present.
	Remove(date types.Date) error
	// Dates lists every date with a stored aggregate, ascending.
	Dates() ([]types.Date, error)
}

// Compile-time interface check.
var _ AggregateStore = (*ParquetStore)(nil)

// ParquetStore keeps daily aggregates as Parquet files on disk, one file
// per date under <DataDir>/daily/<YYYY>/<YYYY-MM-DD>.parquet.
type ParquetStore struct {
	DataDir string
}

// NewParquetStore creates a store rooted at the given data directory.
func NewParquetStore(dataDir string) *ParquetStore {
	return &ParquetStore{DataDir: dataDir}
}

// VariableRecord is the Parquet schema for daily aggregates. Each row
// holds one variable's full daily grid.
type VariableRecord struct {
	Date     string    `parquet:"date"`
	Variable string    `parquet:"variable"`
	Method   string    `parquet:"method"`
	Cells    int64     `parquet:"cells"`
	Values   []float64 `parquet:"values"`
}

// WriteDaily implements AggregateStore. The Parquet file is written to a
// temp path next to its destination and renamed into place, so a crash
// mid-write cannot leave a truncated aggregate where Exists would find it.
func (s *ParquetStore) WriteDaily(agg *types.DailyAggregate) error {
	if agg == nil || agg.Date.IsZero() {
		return fmt.Errorf("aggregate has no date")
	}

	names := make([]string, 0, len(agg.Values))
	for name := range agg.Values {
		names = append(names, name)
	}
	sort.Strings(names)

	records := make([]VariableRecord, 0, len(names))
	for _, name := range names {
		records = append(records, VariableRecord{
			Date:     agg.Date.String(),
			Variable: name,
			Method:   string(agg.Methods[name]),
			Cells:    int64(agg.Cells),
			Values:   agg.Values[name],
		})
	}

	path := s.dailyPath(agg.Date)
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}

	tmp := filepath.Join(dir, "."+filepath.Base(path)+".tmp")
	if err := parquet.WriteFile(tmp, records); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("writing aggregate for %s: %w", agg.Date, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("installing aggregate for %s: %w", agg.Date, err)
	}
	return nil
}

// Exists implements AggregateStore.
func (s *ParquetStore) Exists(date types.Date) (bool, error) {
	_, err := os.Stat(s.dailyPath(date))
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Read implements AggregateStore.
func (s *ParquetStore) Read(date types.Date) (*types.DailyAggregate, error) {
	path := s.dailyPath(date)
	records, err := parquet.ReadFile[VariableRecord](path)
	if err != nil {
		return nil, fmt.Errorf("reading aggregate for %s: %w", date, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("aggregate for %s is empty", date)
	}

	agg := &types.DailyAggregate{
		Date:    date,
		Cells:   int(records[0].Cells),
		Values:  make(map[string][]float64, len(records)),
		Methods: make(map[string]types.AggMethod, len(records)),
	}
	for _, rec := range records {
		agg.Values[rec.Variable] = rec.Values
		agg.Methods[rec.Variable] = types.AggMethod(rec.Method)
	}
	return agg, nil
}

// Remove implements AggregateStore.
func (s *ParquetStore) Remove(date types.Date) error {
	err := os.Remove(s.dailyPath(date))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// Dates implements AggregateStore. Files that do not parse as dates are
// skipped rather than failing the listing.
func (s *ParquetStore) Dates() ([]types.Date, error) {
	root := filepath.Join(s.DataDir, "daily")
	years, err := os.ReadDir(root)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", root, err)
	}

	var dates []types.Date
	for _, year := range years {
		if !year.IsDir() {
			continue
		}
		entries, err := os.ReadDir(filepath.Join(root, year.Name()))
		if err != nil {
			return nil, err
		}
		for _, e := range entries {
			name := e.Name()
			if filepath.Ext(name) != ".parquet" {
				continue
			}
			d, err := types.ParseDate(name[:len(name)-len(".parquet")])
			if err != nil {
				continue
			}
			dates = append(dates, d)
		}
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	return dates, nil
}

// dailyPath returns the file for a date's aggregate.
// Layout: <DataDir>/daily/<YYYY>/<YYYY-MM-DD>.parquet
func (s *ParquetStore) dailyPath(date types.Date) string {
	return filepath.Join(s.DataDir, "daily",
		fmt.Sprintf("%04d", date.Year), date.String()+".parquet")
}
