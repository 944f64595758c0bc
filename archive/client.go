package archive

import (
	"context"
	"fmt"

	"github.com/isohyet-io/isohyet/types"
)

// Client fetches hourly slices from the remote archive.
// Implementations must be safe for concurrent use by multiple day workers.
type Client interface {
	// FetchHour retrieves one hourly slice. hour is 0..23.
	// Failures are returned as *FetchError with a classified Kind.
	FetchHour(ctx context.Context, date types.Date, hour int) (*types.HourlySlice, error)

	// Close releases client resources.
	Close() error
}

// ObjectKey computes the archive object key for one hourly slice.
// Layout: <prefix>/day=YYYY-MM-DD/hour=HH.msgpack
func ObjectKey(prefix string, date types.Date, hour int) string {
	if prefix == "" {
		return fmt.Sprintf("day=%s/hour=%02d.msgpack", date, hour)
	}
	return fmt.Sprintf("%s/day=%s/hour=%02d.msgpack", prefix, date, hour)
}
