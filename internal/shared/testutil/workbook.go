package testutil

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

// OrderHeader is the header of a canonical order workbook, spelled the way
// source exports usually spell it.
var OrderHeader = []interface{}{
	"Restaurant Name", " Order Date", "Payment Method", "Food Rating", "Quantity", "Total Bill", "State",
}

// WriteWorkbook saves rows (header first) as Sheet1 of a workbook named
// name in a fresh temp directory. A nil cell stays empty.
func WriteWorkbook(t *testing.T, name string, rows [][]interface{}) string {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()
	for i, row := range rows {
		axis, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		r := row
		require.NoError(t, f.SetSheetRow("Sheet1", axis, &r))
	}

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, f.SaveAs(path))
	return path
}
