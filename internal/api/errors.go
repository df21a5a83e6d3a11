package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"Contour/internal/dxf"
	"Contour/internal/export"
	"Contour/internal/section"
	"Contour/internal/service"

	"github.com/go-playground/validator/v10"
)

// HTTPStatus maps an operation error to a response status.
func HTTPStatus(err error) int {
	var busy *export.BusyError
	switch {
	case service.IsClientError(err):
		return http.StatusBadRequest
	case errors.As(err, &busy):
		return http.StatusConflict
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Detail is the client-facing message for err. Server-side failures get
// the status text only; their cause may name paths on the host.
func Detail(err error) string {
	var (
		typeErr   *section.UnsupportedComponentTypeError
		structErr *section.UnsupportedProfileStructureError
		fmtErr    *dxf.FormatError
		busy      *export.BusyError
	)
	if status := HTTPStatus(err); status >= http.StatusInternalServerError {
		return http.StatusText(status)
	}
	switch {
	case errors.As(err, &busy):
		return "Destination is already being written"
	case errors.As(err, &typeErr):
		return "Invalid component type"
	case errors.As(err, &structErr):
		return fmt.Sprintf("Unsupported polyline structure (%d points)", structErr.Count)
	case errors.Is(err, dxf.ErrNoPolyline):
		return "No polyline found in DXF"
	case errors.As(err, &fmtErr):
		return "Invalid DXF file: " + fmtErr.Error()
	default:
		return err.Error()
	}
}

// describe turns the first struct validation failure into a sentence.
func describe(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "Invalid request payload"
	}
	fe := verrs[0]
	field := fe.Namespace()
	if i := strings.IndexByte(field, '.'); i >= 0 {
		field = field[i+1:]
	}
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min":
		return fmt.Sprintf("%s must have at least %s %s", field, fe.Param(), unit(fe.Kind()))
	case "max":
		return fmt.Sprintf("%s must have at most %s %s", field, fe.Param(), unit(fe.Kind()))
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}

func unit(k reflect.Kind) string {
	if k == reflect.String {
		return "characters"
	}
	return "entries"
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}
