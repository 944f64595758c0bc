package render

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

type sampleRow struct {
	Date string `json:"date"`
	Kind string `json:"kind"`
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"json", FormatJSON, false},
		{"JSON", FormatJSON, false},
		{"table", FormatTable, false},
		{"yaml", FormatYAML, false},
		{"", "", false},
		{"xml", "", true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseFormat(%q) error = %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseFormat(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestRenderJSON(t *testing.T) {
	var buf bytes.Buffer
	r := NewRendererWithWriter(FormatJSON, false, &buf)

	if err := r.Render([]sampleRow{{Date: "1988-04-01", Kind: "download_error"}}); err != nil {
		t.Fatal(err)
	}

	var rows []sampleRow
	if err := json.Unmarshal(buf.Bytes(), &rows); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if len(rows) != 1 || rows[0].Date != "1988-04-01" {
		t.Errorf("rows = %+v", rows)
	}
}

func TestRenderTable_SliceWithHeaders(t *testing.T) {
	var buf bytes.Buffer
	r := NewRendererWithWriter(FormatTable, true, &buf)

	rows := []sampleRow{
		{Date: "1988-04-01", Kind: "download_error"},
		{Date: "1988-04-02", Kind: "validation_error"},
	}
	if err := r.Render(rows); err != nil {
		t.Fatal(err)
	}

	out := buf.String()
	if !strings.Contains(out, "date") || !strings.Contains(out, "kind") {
		t.Errorf("missing headers:\n%s", out)
	}
	if !strings.Contains(out, "1988-04-02") {
		t.Errorf("missing row:\n%s", out)
	}
}

func TestRenderTable_EmptySlice(t *testing.T) {
	var buf bytes.Buffer
	r := NewRendererWithWriter(FormatTable, true, &buf)

	if err := r.Render([]sampleRow{}); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "(no results)") {
		t.Errorf("output = %q", buf.String())
	}
}

func TestRenderYAML(t *testing.T) {
	var buf bytes.Buffer
	r := NewRendererWithWriter(FormatYAML, false, &buf)

	if err := r.Render(sampleRow{Date: "1988-04-01", Kind: "download_error"}); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "date: \"1988-04-01\"") &&
		!strings.Contains(buf.String(), "date: 1988-04-01") {
		t.Errorf("yaml output = %q", buf.String())
	}
}
