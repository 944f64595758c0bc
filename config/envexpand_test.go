package config

import "testing"

func TestExpandEnv(t *testing.T) {
	t.Setenv("ISOHYET_SET", "value")
	t.Setenv("ISOHYET_EMPTY", "")

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"set var", "bucket: ${ISOHYET_SET}", "bucket: value"},
		{"unset var", "bucket: ${ISOHYET_UNSET}", "bucket: "},
		{"unset with default", "region: ${ISOHYET_UNSET:-us-east-1}", "region: us-east-1"},
		{"empty uses default", "region: ${ISOHYET_EMPTY:-fallback}", "region: fallback"},
		{"set ignores default", "x: ${ISOHYET_SET:-other}", "x: value"},
		{"no pattern", "plain text $VAR", "plain text $VAR"},
		{"multiple", "${ISOHYET_SET}/${ISOHYET_UNSET:-d}", "value/d"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := ExpandEnv(tc.input); got != tc.want {
				t.Errorf("ExpandEnv(%q) = %q, want %q", tc.input, got, tc.want)
			}
		})
	}
}
