package api

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"Contour/internal/importer"
	"Contour/internal/repo"
	"Contour/internal/service"

	"github.com/google/uuid"
)

const maxBatchItems = 500

// BatchRequest is a list of components to generate together.
type BatchRequest struct {
	Items []service.Request `json:"items" validate:"required,min=1,max=500,dive"`
}

// Batch generates every item and returns a zip of the drawings plus a
// manifest.xlsx describing each entry. Invalid items are reported in the
// manifest without failing the batch.
func (h *Handler) Batch(w http.ResponseWriter, r *http.Request) {
	var req BatchRequest
	if !h.decode(w, r, &req) {
		return
	}
	h.runBatch(w, r, req.Items)
}

// BatchImport is Batch with the items read from an uploaded xlsx sheet.
func (h *Handler) BatchImport(w http.ResponseWriter, r *http.Request) {
	data, ok := h.upload(w, r, ".xlsx", "Only XLSX files are allowed")
	if !ok {
		return
	}
	items, err := importer.ReadRequests(bytes.NewReader(data))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid workbook: "+err.Error())
		return
	}
	if len(items) > maxBatchItems {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("items must have at most %d entries", maxBatchItems))
		return
	}
	h.runBatch(w, r, items)
}

func (h *Handler) runBatch(w http.ResponseWriter, r *http.Request, items []service.Request) {
	// Every batch writes into its own directory under the output dir.
	batchID := uuid.NewString()
	names := make([]string, len(items))
	for i := range items {
		names[i] = items[i].Name
		items[i].Name = filepath.Join(batchID, entryName(i, items[i]))
	}
	defer os.RemoveAll(filepath.Join(h.Service.OutputDir(), batchID))

	results := h.Service.Batch(r.Context(), items)
	for i := range results {
		results[i].Request.Name = names[i]
	}

	var buf bytes.Buffer
	failed, err := writeArchive(&buf, results)
	if err != nil {
		h.Logger.Error("build batch archive failed", "batch", batchID, "error", err)
		writeError(w, http.StatusInternalServerError, "Archive error")
		return
	}

	for _, res := range results {
		if res.Err == nil {
			h.record(r.Context(), repo.OpBatch, res.Kind, numericParams(res.Request.Params), res.Vertices)
		}
	}

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", `attachment; filename="profiles.zip"`)
	w.Header().Set("X-Batch-Failed", strconv.Itoa(failed))
	w.Write(buf.Bytes())
}

// writeArchive zips the drawings of successful results together with the
// manifest and returns the number of failed entries.
func writeArchive(w io.Writer, results []service.BatchResult) (int, error) {
	zw := zip.NewWriter(w)
	failed := 0
	for _, res := range results {
		if res.Err != nil {
			failed++
			continue
		}
		if err := addFile(zw, res.Path); err != nil {
			return 0, err
		}
	}
	mw, err := zw.Create("manifest.xlsx")
	if err != nil {
		return 0, err
	}
	if err := importer.WriteManifest(mw, results); err != nil {
		return 0, fmt.Errorf("write manifest: %w", err)
	}
	return failed, zw.Close()
}

func addFile(zw *zip.Writer, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	fw, err := zw.Create(filepath.Base(path))
	if err != nil {
		return err
	}
	_, err = io.Copy(fw, f)
	return err
}

// entryName is "<n>_<name>.dxf". The client name is reduced to its base so
// it cannot leave the batch directory.
func entryName(i int, req service.Request) string {
	name := filepath.Base(strings.TrimSpace(req.Name))
	if name == "." || name == string(filepath.Separator) || name == "" {
		name = filepath.Base(strings.ToLower(req.ComponentType))
	}
	if !strings.EqualFold(filepath.Ext(name), ".dxf") {
		name += ".dxf"
	}
	return fmt.Sprintf("%d_%s", i+1, name)
}
