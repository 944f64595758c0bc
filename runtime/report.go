package runtime

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/isohyet-io/isohyet/metrics"
	"github.com/isohyet-io/isohyet/types"
)

// Pass kinds in reports.
const (
	PassKindInitial = "initial"
	PassKindRetry   = "retry"
)

// PassReport is the structured JSON report written after a pass.
type PassReport struct {
	PassID     string `json:"pass_id"`
	Kind       string `json:"kind"`
	Attempt    int    `json:"attempt"`
	ExitCode   int    `json:"exit_code"`
	DatesTotal int64  `json:"dates_total"`
	Succeeded  int64  `json:"succeeded"`
	Failed     int64  `json:"failed"`
	Skipped    int64  `json:"skipped"`

	Jobs    []JobReport       `json:"jobs"`
	Metrics *metrics.Snapshot `json:"metrics"`
}

// JobReport is one job's line in the report.
type JobReport struct {
	Date       string            `json:"date"`
	State      types.JobState    `json:"state"`
	Kind       types.FailureKind `json:"failure_kind,omitempty"`
	Message    string            `json:"message,omitempty"`
	Skipped    bool              `json:"skipped,omitempty"`
	DurationMs int64             `json:"duration_ms"`
}

// BuildPassReport composes a PassReport from a pass result and metrics
// snapshot. Jobs are listed in date order.
func BuildPassReport(passID, kind string, attempt, exitCode int, result *PassResult, snap metrics.Snapshot) *PassReport {
	jobs := make([]JobReport, 0, len(result.Outcomes))
	for _, o := range result.Outcomes {
		jobs = append(jobs, JobReport{
			Date:       o.Date.String(),
			State:      o.State,
			Kind:       o.Kind,
			Message:    o.Message,
			Skipped:    o.Skipped,
			DurationMs: o.Duration.Milliseconds(),
		})
	}
	sort.Slice(jobs, func(i, j int) bool { return jobs[i].Date < jobs[j].Date })

	return &PassReport{
		PassID:     passID,
		Kind:       kind,
		Attempt:    attempt,
		ExitCode:   exitCode,
		DatesTotal: result.DatesTotal,
		Succeeded:  result.Succeeded,
		Failed:     result.Failed,
		Skipped:    result.Skipped,
		Jobs:       jobs,
		Metrics:    &snap,
	}
}

// WritePassReport writes the report as JSON to the specified path.
// If path is "-", writes to stderr.
func WritePassReport(report *PassReport, path string) error {
	if path == "" {
		return errors.New("report path must not be empty")
	}
	if path == "-" {
		return writePassReportTo(report, os.Stderr)
	}

	data, err := marshalPassReport(report)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing report to %s: %w", path, err)
	}
	return nil
}

func writePassReportTo(report *PassReport, w io.Writer) error {
	data, err := marshalPassReport(report)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

func marshalPassReport(report *PassReport) ([]byte, error) {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling report: %w", err)
	}
	return append(data, '\n'), nil
}
