package preferences

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/kkdraganov/LAPATOS/pkg/core/model"
)

// ReadCSV loads a preference table from a CSV file
func ReadCSV(path string, opts Options) (*model.PreferenceTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open preferences file: %w", err)
	}
	defer f.Close()

	return Read(f, opts)
}

// Read loads a preference table from CSV data. Rows may be ragged; missing
// trailing cells count as empty.
func Read(r io.Reader, opts Options) (*model.PreferenceTable, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, &model.MalformedInputError{Row: -1, Reason: "empty preferences file"}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read preferences header: %w", err)
	}
	// Spreadsheet exports often start with a UTF-8 BOM
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read preferences rows: %w", err)
	}

	return Parse(header, rows, opts)
}

// WriteSelectionCSV writes the grid with one row per member under a header of
// identifierColumn followed by the round topics. Parent directories are created.
func WriteSelectionCSV(path string, grid *model.SelectionGrid, identifierColumn string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}

	if err := WriteSelection(f, grid, identifierColumn); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close output file: %w", err)
	}
	return nil
}

// WriteSelection writes the grid as CSV to w
func WriteSelection(w io.Writer, grid *model.SelectionGrid, identifierColumn string) error {
	if identifierColumn == "" {
		identifierColumn = model.DefaultIdentifierColumn
	}
	header, rows := grid.Records(identifierColumn)

	writer := csv.NewWriter(w)
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write selection header: %w", err)
	}
	if err := writer.WriteAll(rows); err != nil {
		return fmt.Errorf("failed to write selection rows: %w", err)
	}
	return nil
}
