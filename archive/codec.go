package archive

import (
	"fmt"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/isohyet-io/isohyet/types"
)

// EncodeSlice serializes an hourly slice to its msgpack wire form.
// This is the format hourly objects are stored in at the archive.
func EncodeSlice(slice *types.HourlySlice) ([]byte, error) {
	data, err := msgpack.Marshal(slice)
	if err != nil {
		return nil, fmt.Errorf("encoding slice %s hour %02d: %w", slice.Date, slice.Hour, err)
	}
	return data, nil
}

// DecodeSlice deserializes an hourly slice from its msgpack wire form and
// checks that the payload is internally consistent: a non-empty variable
// map whose grids all share one length.
func DecodeSlice(data []byte) (*types.HourlySlice, error) {
	var slice types.HourlySlice
	if err := msgpack.Unmarshal(data, &slice); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	if len(slice.Values) == 0 {
		return nil, fmt.Errorf("%w: slice has no variables", ErrDecode)
	}
	cells := -1
	for name, grid := range slice.Values {
		if cells == -1 {
			cells = len(grid)
			continue
		}
		if len(grid) != cells {
			return nil, fmt.Errorf("%w: variable %s has %d cells, expected %d",
				ErrDecode, name, len(grid), cells)
		}
	}

	return &slice, nil
}
