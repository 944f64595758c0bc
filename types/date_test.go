package types

import (
	"encoding/json"
	"testing"
	"time"
)

func TestParseDate_RoundTrip(t *testing.T) {
	d, err := ParseDate("1988-03-31")
	if err != nil {
		t.Fatalf("ParseDate failed: %v", err)
	}
	if d.Year != 1988 || d.Month != time.March || d.Day != 31 {
		t.Errorf("unexpected components: %+v", d)
	}
	if got := d.String(); got != "1988-03-31" {
		t.Errorf("String() = %q, want 1988-03-31", got)
	}
}

func TestParseDate_Invalid(t *testing.T) {
	for _, s := range []string{"", "1988-3-31", "31/03/1988", "1988-13-01"} {
		if _, err := ParseDate(s); err == nil {
			t.Errorf("ParseDate(%q) should fail", s)
		}
	}
}

func TestDate_NextCrossesMonthAndYear(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"1988-03-31", "1988-04-01"},
		{"1988-12-31", "1989-01-01"},
		{"1988-02-28", "1988-02-29"}, // leap year
	}
	for _, tc := range tests {
		d, err := ParseDate(tc.in)
		if err != nil {
			t.Fatalf("ParseDate(%q): %v", tc.in, err)
		}
		if got := d.Next().String(); got != tc.want {
			t.Errorf("Next(%s) = %s, want %s", tc.in, got, tc.want)
		}
	}
}

func TestDateRange_Inclusive(t *testing.T) {
	start, _ := ParseDate("1988-03-30")
	end, _ := ParseDate("1988-04-02")

	dates := DateRange(start, end)
	if len(dates) != 4 {
		t.Fatalf("expected 4 dates, got %d", len(dates))
	}
	if dates[0] != start || dates[3] != end {
		t.Errorf("range endpoints wrong: %v", dates)
	}
}

func TestDateRange_EndBeforeStart(t *testing.T) {
	start, _ := ParseDate("1988-04-02")
	end, _ := ParseDate("1988-03-30")

	if dates := DateRange(start, end); dates != nil {
		t.Errorf("expected nil range, got %v", dates)
	}
}

func TestDateRange_SingleDay(t *testing.T) {
	d, _ := ParseDate("1988-04-01")
	dates := DateRange(d, d)
	if len(dates) != 1 || dates[0] != d {
		t.Errorf("single-day range wrong: %v", dates)
	}
}

func TestDate_JSONMapKey(t *testing.T) {
	d, _ := ParseDate("1988-04-01")
	m := map[Date]string{d: "ok"}

	data, err := json.Marshal(m)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	if string(data) != `{"1988-04-01":"ok"}` {
		t.Errorf("unexpected JSON: %s", data)
	}

	var back map[Date]string
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if back[d] != "ok" {
		t.Errorf("round trip lost entry: %v", back)
	}
}
