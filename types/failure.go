package types

import "time"

// FailureKind classifies why a day job failed.
type FailureKind string

const (
	// FailureDownload covers an unreachable archive, rejected credentials,
	// or an incomplete hourly slice set.
	FailureDownload FailureKind = "download_error"
	// FailureValidation covers a daily aggregate that violates a
	// plausibility rule.
	FailureValidation FailureKind = "validation_error"
	// FailureAggregation covers internal failures combining slices, such
	// as a grid shape mismatch between hours.
	FailureAggregation FailureKind = "aggregation_error"
)

// FailureRecord is the durable record of one failed day job within a pass.
// The ledger holds the records of the most recent pass; the ultimate
// failure log accumulates records of days that failed both passes.
type FailureRecord struct {
	Date      Date        `json:"date"`
	Kind      FailureKind `json:"kind"`
	Message   string      `json:"message"`
	Timestamp time.Time   `json:"timestamp"`
}
