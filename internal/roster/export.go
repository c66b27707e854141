package roster

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/xuri/excelize/v2"
)

const exportSheet = "Matches"

var exportHeader = []any{"Name", "Employment", "Board Service", "Match Score", "Rank"}

// ExportRow is one ranked person as written to a download.
type ExportRow struct {
	Name         string  `json:"name"`
	Employment   string  `json:"employment"`
	BoardService string  `json:"board_service"`
	Score        float64 `json:"score"`
	Rank         int     `json:"rank"`
}

// WriteXLSX renders rows into a single-sheet workbook.
func WriteXLSX(w io.Writer, rows []ExportRow) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), exportSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	if err := f.SetSheetRow(exportSheet, "A1", &exportHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		values := []any{row.Name, row.Employment, row.BoardService, row.Score, row.Rank}
		if err := f.SetSheetRow(exportSheet, cell, &values); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write xlsx: %w", err)
	}
	return nil
}

// SaveXLSX writes rows to a workbook at path.
func SaveXLSX(path string, rows []ExportRow) (err error) {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := file.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", path, cerr)
		}
	}()

	return WriteXLSX(file, rows)
}

// DumpToTmpFile writes v as indented JSON into a new temporary file and
// returns its name.
func DumpToTmpFile(v any) (string, error) {
	file, err := os.CreateTemp("", "matches_*.json")
	if err != nil {
		return "", err
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	return file.Name(), nil
}
