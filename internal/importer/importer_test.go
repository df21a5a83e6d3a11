package importer

import (
	"bytes"
	"errors"
	"testing"

	"Contour/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func workbook(t *testing.T, rows [][]interface{}) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i, row := range rows {
		cellName, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cellName, &row))
	}
	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	return &buf
}

func TestReadRequests(t *testing.T) {
	buf := workbook(t, [][]interface{}{
		{"Component_Type", "h", "B", "tw", "tf", "width", "height", "name"},
		{"beam", 200, 100, 10, 12, "", "", "b1.dxf"},
		{"", "", "", "", "", "", "", ""},
		{"Column", "", "", "", "", 300, 450.5, ""},
		{"beam", "tall", 100, 10, 12},
	})

	reqs, err := ReadRequests(buf)
	require.NoError(t, err)
	require.Len(t, reqs, 3)

	assert.Equal(t, "beam", reqs[0].ComponentType)
	assert.Equal(t, "b1.dxf", reqs[0].Name)
	assert.Equal(t, map[string]any{"H": 200.0, "B": 100.0, "tw": 10.0, "tf": 12.0}, reqs[0].Params)

	assert.Equal(t, "column", reqs[1].ComponentType)
	assert.Equal(t, map[string]any{"width": 300.0, "height": 450.5}, reqs[1].Params)

	assert.Equal(t, "tall", reqs[2].Params["H"])
}

func TestReadRequests_Errors(t *testing.T) {
	_, err := ReadRequests(workbook(t, [][]interface{}{{"component_type", "width"}}))
	assert.ErrorIs(t, err, ErrEmptySheet)

	_, err = ReadRequests(workbook(t, [][]interface{}{{"width", "height"}, {1, 2}}))
	assert.ErrorIs(t, err, ErrNoTypeColumn)

	_, err = ReadRequests(bytes.NewReader([]byte("not a workbook")))
	assert.Error(t, err)
}

func TestWriteManifest(t *testing.T) {
	results := []service.BatchResult{
		{Index: 0, Request: service.Request{ComponentType: "beam", Name: "b1.dxf"}, Path: "/tmp/out/b1.dxf", Warnings: []string{"H/B ratio exceeds 10"}},
		{Index: 1, Request: service.Request{ComponentType: "column"}, Err: errors.New("Width must be a number.")},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteManifest(&buf, results))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows("Manifest")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"index", "component_type", "name", "file", "status", "message"}, rows[0])
	assert.Equal(t, []string{"1", "beam", "b1.dxf", "b1.dxf", "ok", "H/B ratio exceeds 10"}, rows[1])
	assert.Equal(t, "failed", rows[2][4])
	assert.Equal(t, "Width must be a number.", rows[2][5])
}
