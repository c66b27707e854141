package roster

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestParseCSV(t *testing.T) {
	t.Parallel()

	input := strings.Join([]string{
		"Name,Professional Title/Employment & Career,Board Service,Notes",
		"Jane Doe,Chief Financial Officer,Audit committee,ignored",
		"  ,Orphan row,,",
		"John Roe,Software engineer",
	}, "\n")

	r, err := Parse("roster.CSV", strings.NewReader(input), ParseOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if r.Len() != 2 {
		t.Fatalf("expected 2 records, got %d", r.Len())
	}
	if r.Dropped != 1 {
		t.Fatalf("expected 1 dropped row, got %d", r.Dropped)
	}
	if len(r.Columns) != 4 || r.Columns[3] != "Notes" {
		t.Fatalf("unexpected columns: %v", r.Columns)
	}

	want := Record{Name: "Jane Doe", Employment: "Chief Financial Officer", BoardService: "Audit committee"}
	if r.Records[0] != want {
		t.Fatalf("expected %+v, got %+v", want, r.Records[0])
	}
	if r.Records[1].BoardService != "" {
		t.Fatalf("expected missing cell to be empty, got %q", r.Records[1].BoardService)
	}
}

func TestParseJSON(t *testing.T) {
	t.Parallel()

	input := `[
		{"name": "Jane Doe", "employment": "CFO", "board_service": "Audit", "age": 51},
		{"Name": "Ann Poe", "Employment": 42},
		{"employment": "no name"}
	]`

	r, err := Parse("people.json", strings.NewReader(input), ParseOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if r.Len() != 2 || r.Dropped != 1 {
		t.Fatalf("expected 2 records and 1 dropped, got %d and %d", r.Len(), r.Dropped)
	}
	if r.Records[1].Employment != "42" {
		t.Fatalf("expected weakly typed employment, got %q", r.Records[1].Employment)
	}
}

func TestParseErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		filename string
		input    string
		expect   error
	}{
		{name: "unsupported extension", filename: "roster.txt", input: "Name\nA", expect: ErrUnsupportedFormat},
		{name: "missing name column", filename: "roster.csv", input: "Employment\nCFO", expect: ErrMissingColumn},
		{name: "empty csv", filename: "roster.csv", input: "", expect: ErrMissingColumn},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if _, err := Parse(tt.filename, strings.NewReader(tt.input), ParseOptions{}); !errors.Is(err, tt.expect) {
				t.Fatalf("expected %v, got %v", tt.expect, err)
			}
		})
	}

	if _, err := Parse("roster.json", strings.NewReader("{not json"), ParseOptions{}); err == nil {
		t.Fatalf("expected error for malformed json")
	}
}

func TestParseClean(t *testing.T) {
	t.Parallel()

	input := "Name,Employment,Board Service\nJane Doe,CFO<br>Acme,No board service info\n"

	r, err := Parse("roster.csv", strings.NewReader(input), ParseOptions{Clean: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Records[0].Employment != "CFO Acme" {
		t.Fatalf("expected cleaned employment, got %q", r.Records[0].Employment)
	}
	if r.Records[0].BoardService != "" {
		t.Fatalf("expected placeholder to be removed, got %q", r.Records[0].BoardService)
	}
}

func TestXLSXRoundTrip(t *testing.T) {
	t.Parallel()

	rows := []ExportRow{
		{Name: "Jane Doe", Employment: "CFO", BoardService: "Audit", Score: 0.91, Rank: 1},
		{Name: "Ann Poe", Employment: "CEO", BoardService: "", Score: 0.4, Rank: 2},
	}

	var buf bytes.Buffer
	if err := WriteXLSX(&buf, rows); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	r, err := Parse("matches.xlsx", &buf, ParseOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if r.Len() != 2 {
		t.Fatalf("expected 2 records, got %d", r.Len())
	}
	if r.Records[0] != (Record{Name: "Jane Doe", Employment: "CFO", BoardService: "Audit"}) {
		t.Fatalf("unexpected first record: %+v", r.Records[0])
	}
	if r.Records[1].Name != "Ann Poe" || r.Records[1].BoardService != "" {
		t.Fatalf("unexpected second record: %+v", r.Records[1])
	}
}

func TestClean(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		input  string
		expect string
	}{
		{name: "empty", input: "", expect: ""},
		{name: "plain text untouched", input: "Chief Executive Officer", expect: "Chief Executive Officer"},
		{name: "line breaks", input: "CEO<br/>Acme<BR>Widget", expect: "CEO Acme Widget"},
		{name: "placeholder case insensitive", input: "NO INFO AVAILABLE", expect: ""},
		{name: "longest placeholder wins", input: "No board service information provided", expect: ""},
		{name: "placeholder inside text", input: "Director; no info available ", expect: "Director;"},
		{name: "year ranges", input: "CFO, Acme 2010 - 2015; Chair 2019-Present", expect: "CFO, Acme ; Chair"},
		{name: "retired marker", input: "CFO, Acme (Retired)", expect: "CFO, Acme"},
		{name: "collapses whitespace", input: "  a \t\n b  ", expect: "a b"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := Clean(tt.input); got != tt.expect {
				t.Fatalf("expected %q, got %q", tt.expect, got)
			}
		})
	}
}

func TestRecordText(t *testing.T) {
	t.Parallel()

	rec := Record{Name: "Jane", Employment: " CFO ", BoardService: ""}
	if got := rec.Text(false); got != "CFO" {
		t.Fatalf("expected %q, got %q", "CFO", got)
	}
	if got := rec.Text(true); got != "Jane CFO" {
		t.Fatalf("expected %q, got %q", "Jane CFO", got)
	}
	if got := rec.GetStringField("unknown"); got != "" {
		t.Fatalf("expected empty value for unknown field, got %q", got)
	}
}

func TestStripOrgSuffixes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		input  string
		expect string
	}{
		{name: "empty", input: "", expect: ""},
		{name: "legal forms", input: "CFO, Acme Corp. and Widget Inc", expect: "CFO, Acme and Widget"},
		{name: "institutions", input: "Trustee, Acme Foundation; Gotham University", expect: "Trustee, Acme ; Gotham"},
		{name: "whole words only", input: "Incubator Cooperative", expect: "Incubator Cooperative"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := StripOrgSuffixes(tt.input); got != tt.expect {
				t.Fatalf("expected %q, got %q", tt.expect, got)
			}
		})
	}
}

func TestParseStripOrgSuffixes(t *testing.T) {
	t.Parallel()

	input := "Name,Employment,Board Service\nJane Doe,CFO at Acme Corp,Acme Foundation trustee\n"

	r, err := Parse("roster.csv", strings.NewReader(input), ParseOptions{StripOrgSuffixes: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Records[0].Employment != "CFO at Acme" || r.Records[0].BoardService != "Acme trustee" {
		t.Fatalf("unexpected record: %+v", r.Records[0])
	}

	r, err = Parse("roster.csv", strings.NewReader(input), ParseOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Records[0].Employment != "CFO at Acme Corp" {
		t.Fatalf("expected suffixes to stay by default, got %q", r.Records[0].Employment)
	}
}
