package roster

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/xuri/excelize/v2"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported roster format")
	ErrMissingColumn     = errors.New("required column is missing")
)

// columnAliases maps lower-cased spreadsheet headers to record fields.
var columnAliases = map[string]string{
	"name":                                   FieldName,
	"employment":                             FieldEmployment,
	"professional title/employment & career": FieldEmployment,
	"employment & career":                    FieldEmployment,
	"board service":                          FieldBoardService,
	"board_service":                          FieldBoardService,
}

type ParseOptions struct {
	// Clean removes placeholder phrases and markup from text cells.
	Clean bool `mapstructure:"clean"`
	// StripOrgSuffixes drops words like "Inc" or "Foundation" from text cells.
	StripOrgSuffixes bool `mapstructure:"strip-org-suffixes"`
}

// Roster is the result of parsing an uploaded file.
type Roster struct {
	Records []Record
	// Columns are the headers found in the source, in source order.
	Columns []string
	// Dropped counts rows rejected because they had no name.
	Dropped int
}

func (r *Roster) Len() int {
	return len(r.Records)
}

// Parse reads a roster from r. The format is chosen by the extension of
// filename: .xlsx, .csv or .json.
func Parse(filename string, r io.Reader, opts ParseOptions) (*Roster, error) {
	ext := strings.ToLower(filepath.Ext(filename))

	var (
		header []string
		rows   []map[string]any
		err    error
	)

	switch ext {
	case ".xlsx":
		header, rows, err = readXLSX(r)
	case ".csv":
		header, rows, err = readCSV(r)
	case ".json":
		header, rows, err = readJSON(r)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	if err != nil {
		return nil, err
	}

	return decodeRows(header, rows, opts)
}

func readXLSX(r io.Reader) ([]string, []map[string]any, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil, fmt.Errorf("xlsx has no sheets")
	}

	grid, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}

	header, rows := gridToRows(grid)
	return header, rows, nil
}

func readCSV(r io.Reader) ([]string, []map[string]any, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	grid, err := reader.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("read csv: %w", err)
	}

	header, rows := gridToRows(grid)
	return header, rows, nil
}

func readJSON(r io.Reader) ([]string, []map[string]any, error) {
	var items []map[string]any
	if err := json.NewDecoder(r).Decode(&items); err != nil {
		return nil, nil, fmt.Errorf("decode json roster: %w", err)
	}

	seen := make(map[string]struct{})
	header := make([]string, 0)
	rows := make([]map[string]any, 0, len(items))

	for _, item := range items {
		row := make(map[string]any, len(item))
		for key, value := range item {
			if _, ok := seen[key]; !ok {
				seen[key] = struct{}{}
				header = append(header, key)
			}
			if field, ok := columnAliases[normalizeHeader(key)]; ok {
				row[field] = value
			}
		}
		rows = append(rows, row)
	}

	return header, rows, nil
}

// gridToRows turns a header row plus data rows into field-keyed maps.
// Spreadsheet readers trim trailing empty cells, so short rows are expected.
func gridToRows(grid [][]string) ([]string, []map[string]any) {
	if len(grid) == 0 {
		return nil, nil
	}

	header := make([]string, len(grid[0]))
	fields := make([]string, len(grid[0]))
	for i, h := range grid[0] {
		header[i] = strings.TrimSpace(h)
		fields[i] = columnAliases[normalizeHeader(h)]
	}

	rows := make([]map[string]any, 0, len(grid)-1)
	for _, cells := range grid[1:] {
		row := make(map[string]any, 3)
		for i, cell := range cells {
			if i >= len(fields) || fields[i] == "" {
				continue
			}
			row[fields[i]] = cell
		}
		rows = append(rows, row)
	}

	return header, rows
}

func decodeRows(header []string, rows []map[string]any, opts ParseOptions) (*Roster, error) {
	if !hasNameColumn(header) {
		return nil, fmt.Errorf("%w: %q (found %v)", ErrMissingColumn, "Name", header)
	}

	var decoded []*Record
	cfg := &mapstructure.DecoderConfig{
		Result:           &decoded,
		TagName:          "json",
		WeaklyTypedInput: true,
	}
	decoder, err := mapstructure.NewDecoder(cfg)
	if err != nil {
		return nil, fmt.Errorf("create row decoder: %w", err)
	}
	if err := decoder.Decode(rows); err != nil {
		return nil, fmt.Errorf("decode rows: %w", err)
	}

	roster := &Roster{
		Records: make([]Record, 0, len(decoded)),
		Columns: header,
	}

	for _, rec := range decoded {
		if rec == nil {
			roster.Dropped++
			continue
		}

		rec.Name = strings.TrimSpace(rec.Name)
		if rec.Name == "" {
			roster.Dropped++
			continue
		}

		rec.Employment = strings.TrimSpace(rec.Employment)
		rec.BoardService = strings.TrimSpace(rec.BoardService)
		if opts.Clean {
			rec.Employment = Clean(rec.Employment)
			rec.BoardService = Clean(rec.BoardService)
		}
		if opts.StripOrgSuffixes {
			rec.Employment = StripOrgSuffixes(rec.Employment)
			rec.BoardService = StripOrgSuffixes(rec.BoardService)
		}

		roster.Records = append(roster.Records, *rec)
	}

	return roster, nil
}

func hasNameColumn(header []string) bool {
	for _, h := range header {
		if columnAliases[normalizeHeader(h)] == FieldName {
			return true
		}
	}
	return false
}

func normalizeHeader(h string) string {
	return strings.ToLower(strings.Join(strings.Fields(h), " "))
}
