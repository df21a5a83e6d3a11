package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"Contour/internal/dxf"
	"Contour/internal/section"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestGenerateBeamAndParse(t *testing.T) {
	dir := t.TempDir()
	out, err := run(t, "", "generate", "beam", "--H", "200", "--B", "100", "--tw", "10", "--tf", "12", "-o", "b.dxf", "-d", dir)
	require.NoError(t, err, out)
	assert.Contains(t, out, "DXF generated: "+filepath.Join(dir, "b.dxf"))
	assert.Contains(t, out, "Area:")

	out, err = run(t, "", "parse", filepath.Join(dir, "b.dxf"))
	require.NoError(t, err, out)
	assert.Contains(t, out, "beam")
	assert.Contains(t, out, "200.00 mm")
	assert.Contains(t, out, "12.00 mm")
}

func TestGenerateColumn_WithReport(t *testing.T) {
	dir := t.TempDir()
	pdfPath := filepath.Join(dir, "c.pdf")
	out, err := run(t, "", "generate", "column", "--width", "300", "--height", "400", "-d", dir, "--report", pdfPath)
	require.NoError(t, err, out)
	assert.Contains(t, out, "Report written: "+pdfPath)

	data, err := os.ReadFile(pdfPath)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF-")))
}

func TestGenerate_ValidationError(t *testing.T) {
	dir := t.TempDir()
	_, err := run(t, "", "generate", "column", "--width", "0", "--height", "400", "-d", dir)
	require.Error(t, err)
	assert.Equal(t, "Width must be between 1 and 100000 mm.", err.Error())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestGenerate_Warning(t *testing.T) {
	out, err := run(t, "", "generate", "beam", "--H", "1500", "--B", "100", "--tw", "10", "--tf", "15", "-d", t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, out, "Warning: H/B ratio exceeds 10")
}

func TestParse_Unsupported(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tri.dxf")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, dxf.WriteProfile(f, "X", section.Profile{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 0, Y: 1}}))
	require.NoError(t, f.Close())

	_, err = run(t, "", "parse", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported profile structure (3 points)")
}

func TestBatch(t *testing.T) {
	dir := t.TempDir()
	book := excelize.NewFile()
	rows := [][]interface{}{
		{"type", "width", "height", "name"},
		{"column", 300, 400, "c1.dxf"},
		{"column", -5, 400, "c2.dxf"},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, book.SetSheetRow("Sheet1", cell, &row))
	}
	xlsx := filepath.Join(dir, "parts.xlsx")
	require.NoError(t, book.SaveAs(xlsx))
	require.NoError(t, book.Close())

	manifest := filepath.Join(dir, "manifest.xlsx")
	out, err := run(t, "", "batch", xlsx, "-d", dir, "-m", manifest)
	require.Error(t, err)
	assert.Equal(t, "1 of 2 entries failed", err.Error())
	assert.Contains(t, out, "1 generated, 1 failed")
	assert.FileExists(t, filepath.Join(dir, "c1.dxf"))
	assert.NoFileExists(t, filepath.Join(dir, "c2.dxf"))
	assert.FileExists(t, manifest)
}

func TestInteractive_SingleWithRetries(t *testing.T) {
	dir := t.TempDir()
	stdin := strings.Join([]string{
		"slab",   // rejected component
		"Column", // accepted, case-insensitive
		"single",
		"abc", // not a number
		"-3",  // negative
		"0.5", // width out of range, caught by validation
		"400",
		"300", // second round
		"400",
	}, "\n") + "\n"

	out, err := run(t, stdin, "interactive", "-d", dir)
	require.NoError(t, err, out)
	assert.Contains(t, out, "Invalid component. Type 'beam' or 'column'.")
	assert.Contains(t, out, "Error: Invalid number. Please enter a valid number.")
	assert.Contains(t, out, "Error: Value cannot be negative.")
	assert.Contains(t, out, "Parameters are invalid: Width must be between 1 and 100000 mm.")
	assert.Contains(t, out, "Enter width: ")
	assert.Contains(t, out, "DXF generated: ")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestInteractive_Batch(t *testing.T) {
	dir := t.TempDir()
	stdin := "beam\nbatch\n2\n200\n100\n10\n12\n300\n150\n7\n10.7\n"
	out, err := run(t, stdin, "interactive", "-d", dir)
	require.NoError(t, err, out)
	assert.Contains(t, out, "Component 2 of 2")
	assert.Contains(t, out, "2 generated, 0 failed")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestInteractive_InputClosed(t *testing.T) {
	_, err := run(t, "beam\n", "interactive", "-d", t.TempDir())
	assert.ErrorIs(t, err, errInputClosed)
}

func TestVersion(t *testing.T) {
	out, err := run(t, "", "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "contour v"))
}
