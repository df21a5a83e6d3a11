// Package importer reads batch generation requests from spreadsheets and
// writes batch manifests back out.
package importer

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"Contour/internal/service"

	"github.com/xuri/excelize/v2"
)

// ErrEmptySheet is returned when the first sheet has no data rows.
var ErrEmptySheet = errors.New("empty sheet")

// ErrNoTypeColumn is returned when the header lacks a component type column.
var ErrNoTypeColumn = errors.New("header has no component_type column")

var paramColumns = []string{"H", "B", "tw", "tf", "width", "height"}

// ReadRequests parses the first sheet of an xlsx workbook. Row 1 is a header
// naming the columns: component_type (or type), any of H, B, tw, tf, width,
// height, and an optional name. Blank rows are skipped.
func ReadRequests(r io.Reader) ([]service.Request, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	if len(rows) < 2 {
		return nil, ErrEmptySheet
	}

	cols := indexHeader(rows[0])
	typeCol, ok := cols["component_type"]
	if !ok {
		typeCol, ok = cols["type"]
	}
	if !ok {
		return nil, ErrNoTypeColumn
	}

	var reqs []service.Request
	for _, row := range rows[1:] {
		if blank(row) {
			continue
		}
		req := service.Request{
			ComponentType: strings.ToLower(cell(row, typeCol)),
			Params:        make(map[string]any),
		}
		if i, ok := cols["name"]; ok {
			req.Name = cell(row, i)
		}
		for _, name := range paramColumns {
			i, ok := cols[name]
			if !ok {
				continue
			}
			raw := cell(row, i)
			if raw == "" {
				continue
			}
			if v, err := strconv.ParseFloat(raw, 64); err == nil {
				req.Params[name] = v
			} else {
				// Left as text so validation reports the field.
				req.Params[name] = raw
			}
		}
		reqs = append(reqs, req)
	}
	if len(reqs) == 0 {
		return nil, ErrEmptySheet
	}
	return reqs, nil
}

// WriteManifest writes one row per batch entry: index, type, name, file,
// status and message.
func WriteManifest(w io.Writer, results []service.BatchResult) error {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Manifest"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return err
	}
	header := []interface{}{"index", "component_type", "name", "file", "status", "message"}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}
	for i, r := range results {
		status, msg, file := "ok", strings.Join(r.Warnings, "; "), filepath.Base(r.Path)
		if r.Err != nil {
			status, msg, file = "failed", r.Err.Error(), ""
		}
		row := []interface{}{r.Index + 1, r.Request.ComponentType, r.Request.Name, file, status, msg}
		cellName, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cellName, &row); err != nil {
			return err
		}
	}
	return f.Write(w)
}

func indexHeader(header []string) map[string]int {
	cols := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.TrimSpace(h)
		key := strings.ToLower(h)
		// Dimension headers match case-insensitively.
		for _, p := range paramColumns {
			if strings.EqualFold(h, p) {
				key = p
			}
		}
		if _, dup := cols[key]; !dup {
			cols[key] = i
		}
	}
	return cols
}

func cell(row []string, i int) string {
	if i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
