package utils

import "testing"

func TestTruncateForLog(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		input  string
		limit  int
		expect string
	}{
		{name: "non-positive limit", input: "chief financial officer", limit: 0, expect: ""},
		{name: "fits the limit", input: "board", limit: 5, expect: "board"},
		{name: "long query is cut", input: "chief financial officer", limit: 5, expect: "chief..."},
		{name: "surrounding whitespace is dropped", input: "\n  audit committee  ", limit: 15, expect: "audit committee"},
		{name: "cuts on runes", input: "Zürich Führungskraft", limit: 2, expect: "Zü..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := TruncateForLog(tt.input, tt.limit); got != tt.expect {
				t.Fatalf("expected %q, got %q", tt.expect, got)
			}
		})
	}
}
