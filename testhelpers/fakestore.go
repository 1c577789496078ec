// Package testhelpers provides test doubles shared across packages, chiefly
// an in-memory stand-in for the remote spreadsheet store.
package testhelpers

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"rentabill/internal/sheets"
)

// FakeStore implements sheets.Client over in-memory worksheets. Each
// worksheet is a grid of strings whose first row is the header, mirroring
// the remote store's shape closely enough that repository code runs
// unchanged against it.
type FakeStore struct {
	mu     sync.Mutex
	grids  map[string][][]string
	errs   map[string]error
	reads  int
	writes int
}

func NewFakeStore() *FakeStore {
	return &FakeStore{
		grids: make(map[string][][]string),
		errs:  make(map[string]error),
	}
}

// Seed replaces a worksheet's contents. The first row must be the header.
func (f *FakeStore) Seed(sheet string, rows [][]string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	grid := make([][]string, len(rows))
	for i, row := range rows {
		grid[i] = append([]string(nil), row...)
	}
	f.grids[sheet] = grid
}

// FailWith makes every subsequent call of the named method ("GetAllRecords",
// "AppendRow", "UpdateRange", "BatchUpdate") return err. Pass nil to clear.
func (f *FakeStore) FailWith(method string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err == nil {
		delete(f.errs, method)
		return
	}
	f.errs[method] = err
}

// Cell returns the current value at a 1-based (row, col) position.
func (f *FakeStore) Cell(sheet string, row, col int) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	grid := f.grids[sheet]
	if row > len(grid) || col > len(grid[row-1]) {
		return ""
	}
	return grid[row-1][col-1]
}

// RowCount returns the number of rows including the header.
func (f *FakeStore) RowCount(sheet string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.grids[sheet])
}

// Reads returns how many GetAllRecords calls reached the store.
func (f *FakeStore) Reads() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reads
}

// Writes returns how many mutating calls reached the store.
func (f *FakeStore) Writes() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.writes
}

func (f *FakeStore) GetAllRecords(_ context.Context, sheet string) ([]sheets.Row, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.errs["GetAllRecords"]; err != nil {
		return nil, err
	}
	f.reads++

	grid := f.grids[sheet]
	if len(grid) == 0 {
		return nil, nil
	}
	header := grid[0]
	rows := make([]sheets.Row, 0, len(grid)-1)
	for i, raw := range grid[1:] {
		cells := make(map[string]string, len(header))
		for j, name := range header {
			if name == "" {
				continue
			}
			if j < len(raw) {
				cells[name] = raw[j]
			} else {
				cells[name] = ""
			}
		}
		rows = append(rows, sheets.Row{Num: i + 2, Cells: cells})
	}
	return rows, nil
}

func (f *FakeStore) AppendRow(_ context.Context, sheet string, values []any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.errs["AppendRow"]; err != nil {
		return err
	}

	row := make([]string, len(values))
	for i, v := range values {
		row[i] = cellToString(v)
	}
	f.grids[sheet] = append(f.grids[sheet], row)
	f.writes++
	return nil
}

func (f *FakeStore) UpdateRange(_ context.Context, sheet, a1Range string, values [][]any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.errs["UpdateRange"]; err != nil {
		return err
	}
	if err := f.applyRange(sheet, a1Range, values); err != nil {
		return err
	}
	f.writes++
	return nil
}

func (f *FakeStore) BatchUpdate(_ context.Context, sheet string, updates []sheets.RangeUpdate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.errs["BatchUpdate"]; err != nil {
		return err
	}
	for _, u := range updates {
		if err := f.applyRange(sheet, u.Range, u.Values); err != nil {
			return err
		}
	}
	f.writes++
	return nil
}

func (f *FakeStore) applyRange(sheet, a1Range string, values [][]any) error {
	startCol, startRow, err := parseCellRef(strings.Split(a1Range, ":")[0])
	if err != nil {
		return fmt.Errorf("fake store: %w", err)
	}
	if len(values) != 1 {
		return fmt.Errorf("fake store: only single-row ranges are supported, got %d rows", len(values))
	}

	grid := f.grids[sheet]
	for startRow > len(grid) {
		grid = append(grid, []string{})
	}
	row := grid[startRow-1]
	for i, v := range values[0] {
		col := startCol + i
		for col > len(row) {
			row = append(row, "")
		}
		row[col-1] = cellToString(v)
	}
	grid[startRow-1] = row
	f.grids[sheet] = grid
	return nil
}

// parseCellRef turns "L5" into (12, 5).
func parseCellRef(ref string) (col, row int, err error) {
	i := 0
	for i < len(ref) && ref[i] >= 'A' && ref[i] <= 'Z' {
		col = col*26 + int(ref[i]-'A'+1)
		i++
	}
	if i == 0 || i == len(ref) {
		return 0, 0, fmt.Errorf("bad cell reference %q", ref)
	}
	row, err = strconv.Atoi(ref[i:])
	if err != nil {
		return 0, 0, fmt.Errorf("bad cell reference %q", ref)
	}
	return col, row, nil
}

func cellToString(v any) string {
	switch cell := v.(type) {
	case nil:
		return ""
	case string:
		return cell
	case int:
		return strconv.Itoa(cell)
	case int64:
		return strconv.FormatInt(cell, 10)
	case float64:
		return strconv.FormatFloat(cell, 'f', -1, 64)
	case bool:
		if cell {
			return "TRUE"
		}
		return "FALSE"
	default:
		return fmt.Sprintf("%v", cell)
	}
}
