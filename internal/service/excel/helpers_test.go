package excel_test

import (
	"testing"

	"github.com/xuri/excelize/v2"
)

// cellIndex A1 地址转 0 基 (col, row)
func cellIndex(t *testing.T, cell string) (int, int) {
	t.Helper()
	col, row, err := excelize.CellNameToCoordinates(cell)
	if err != nil {
		t.Fatalf("cell %q: %v", cell, err)
	}
	return col - 1, row - 1
}
