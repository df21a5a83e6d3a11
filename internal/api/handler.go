// Package api exposes generate, parse, batch and report over HTTP.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"

	"Contour/internal/auth"
	"Contour/internal/report"
	"Contour/internal/repo"
	"Contour/internal/section"
	"Contour/internal/service"
	"Contour/internal/validation"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

const (
	// DefaultMaxUpload caps request bodies when no limit is configured.
	DefaultMaxUpload = 10 << 20
	defaultHistory   = 50
	maxHistory       = 500
)

type Handler struct {
	Service   *service.Service
	Repo      repo.Repository
	Logger    *slog.Logger
	MaxUpload int64

	validate *validator.Validate
}

// NewHandler returns a Handler. A nil repository disables drawing history.
func NewHandler(svc *service.Service, r repo.Repository, logger *slog.Logger, maxUpload int64) *Handler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if maxUpload <= 0 {
		maxUpload = DefaultMaxUpload
	}
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &Handler{Service: svc, Repo: r, Logger: logger, MaxUpload: maxUpload, validate: v}
}

// Generate validates a component, writes it as DXF and streams the file
// back as an attachment. The file is removed once served.
func (h *Handler) Generate(w http.ResponseWriter, r *http.Request) {
	var req service.Request
	if !h.decode(w, r, &req) {
		return
	}
	// Server-chosen name so concurrent requests never share a destination.
	req.Name = uuid.NewString() + ".dxf"

	gen, err := h.Service.Generate(r.Context(), req)
	if err != nil {
		h.fail(w, "generate", err)
		return
	}
	defer os.Remove(gen.Path)

	f, err := os.Open(gen.Path)
	if err != nil {
		h.fail(w, "generate", err)
		return
	}
	defer f.Close()

	h.record(r.Context(), repo.OpGenerate, gen.Kind, gen.Params.Fields(), len(gen.Profile))

	for _, warn := range gen.Warnings {
		w.Header().Add("X-Profile-Warning", warn)
	}
	w.Header().Set("Content-Type", "application/dxf")
	w.Header().Set("Content-Disposition", `attachment; filename="`+gen.Kind.String()+`.dxf"`)
	if _, err := io.Copy(w, f); err != nil {
		h.Logger.Error("stream dxf failed", "error", err)
	}
}

// Parse decodes the first polyline of an uploaded DXF file.
func (h *Handler) Parse(w http.ResponseWriter, r *http.Request) {
	data, ok := h.upload(w, r, ".dxf", "Only DXF files are allowed")
	if !ok {
		return
	}
	parsed, err := h.Service.Parse(bytes.NewReader(data))
	if err != nil {
		h.fail(w, "parse", err)
		return
	}
	h.record(r.Context(), repo.OpParse, parsed.Type, parsed.Params, parsed.Vertices)
	writeJSON(w, http.StatusOK, parsed)
}

// ReportRequest is a component plus the sheet header.
type ReportRequest struct {
	ComponentType string         `json:"component_type" validate:"required"`
	Params        map[string]any `json:"params" validate:"required"`
	Title         string         `json:"title,omitempty" validate:"max=200"`
	Project       string         `json:"project,omitempty" validate:"max=200"`
	Author        string         `json:"author,omitempty" validate:"max=200"`
}

// Report renders a PDF drawing sheet for a component.
func (h *Handler) Report(w http.ResponseWriter, r *http.Request) {
	var req ReportRequest
	if !h.decode(w, r, &req) {
		return
	}
	rendered, err := h.Service.Render(service.Request{ComponentType: req.ComponentType, Params: req.Params})
	if err != nil {
		h.fail(w, "report", err)
		return
	}

	var buf bytes.Buffer
	err = report.Write(&buf, report.Sheet{
		Title:    req.Title,
		Project:  req.Project,
		Author:   req.Author,
		Kind:     rendered.Kind,
		Params:   rendered.Params,
		Profile:  rendered.Profile,
		Warnings: rendered.Warnings,
	})
	if err != nil {
		h.Logger.Error("render report failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Report generation error")
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="`+rendered.Kind.String()+`.pdf"`)
	w.Write(buf.Bytes())
}

// Rules returns the active validation rule set.
func (h *Handler) Rules(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Service.Validator().Rules())
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// History lists the caller's recent drawings, newest first.
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	userID, _, ok := auth.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	if h.Repo == nil {
		writeJSON(w, http.StatusOK, []repo.Drawing{})
		return
	}

	limit := defaultHistory
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxHistory)
	}

	drawings, err := h.Repo.ListDrawings(r.Context(), userID, limit)
	if err != nil {
		h.Logger.Error("list drawings failed", "user", userID, "error", err)
		writeError(w, http.StatusInternalServerError, "Database error")
		return
	}
	if drawings == nil {
		drawings = []repo.Drawing{}
	}
	writeJSON(w, http.StatusOK, drawings)
}

// decode reads a JSON body into v and runs struct validation on it.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, h.MaxUpload)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			writeError(w, http.StatusRequestEntityTooLarge, "Request too large")
			return false
		}
		writeError(w, http.StatusBadRequest, "Invalid request payload")
		return false
	}
	if err := h.validate.Struct(v); err != nil {
		writeError(w, http.StatusBadRequest, describe(err))
		return false
	}
	return true
}

// upload reads the multipart "file" field, which must carry ext.
func (h *Handler) upload(w http.ResponseWriter, r *http.Request, ext, extMsg string) ([]byte, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, h.MaxUpload)
	file, header, err := r.FormFile("file")
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			writeError(w, http.StatusRequestEntityTooLarge, "File too big")
			return nil, false
		}
		writeError(w, http.StatusBadRequest, "File is required")
		return nil, false
	}
	defer file.Close()

	if !strings.EqualFold(filepath.Ext(header.Filename), ext) {
		writeError(w, http.StatusBadRequest, extMsg)
		return nil, false
	}
	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid file")
		return nil, false
	}
	if len(data) == 0 {
		writeError(w, http.StatusBadRequest, "File is empty")
		return nil, false
	}
	return data, true
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	status := HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		h.Logger.Error(op+" failed", "error", err)
	} else {
		h.Logger.Debug(op+" rejected", "error", err)
	}
	writeError(w, status, Detail(err))
}

// record stores a history entry for the signed-in user, if any. Failures
// are logged and never reach the client.
func (h *Handler) record(ctx context.Context, op repo.Operation, kind section.Kind, params map[string]float64, vertices int) {
	if h.Repo == nil {
		return
	}
	userID, _, ok := auth.UserFromContext(ctx)
	if !ok {
		return
	}
	err := h.Repo.RecordDrawing(ctx, repo.Drawing{
		UserID:      userID,
		Operation:   op,
		Type:        kind.String(),
		Params:      params,
		VertexCount: vertices,
	})
	if err != nil {
		h.Logger.Warn("record drawing failed", "user", userID, "error", err)
	}
}

// numericParams keeps the numeric entries of raw request params.
func numericParams(raw map[string]any) map[string]float64 {
	out := make(map[string]float64, len(raw))
	for name, v := range raw {
		if n, ok := validation.Number(v); ok {
			out[name] = n
		}
	}
	return out
}
