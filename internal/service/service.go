// Package service runs the generate and parse operations on top of the
// profile engine, the validator and the DXF persistence layer. Both the HTTP
// API and the CLI call into it.
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"Contour/internal/dxf"
	"Contour/internal/export"
	"Contour/internal/section"
	"Contour/internal/validation"
)

// Request describes one component to generate.
type Request struct {
	ComponentType string         `json:"component_type" validate:"required"`
	Params        map[string]any `json:"params" validate:"required"`
	// Name optionally fixes the output file name.
	Name string `json:"name,omitempty" validate:"omitempty,max=200"`
}

// Rendered is a validated and encoded component.
type Rendered struct {
	Kind     section.Kind
	Params   section.Params
	Profile  section.Profile
	Warnings []string
}

// Generated is a component persisted as a drawing file.
type Generated struct {
	Rendered
	Path string
}

// Parsed is the decoded content of a drawing file.
type Parsed struct {
	Type   section.Kind       `json:"type"`
	Params map[string]float64 `json:"params"`
	// Vertices is the vertex count of the decoded polyline.
	Vertices int `json:"-"`
}

// BatchResult is the outcome of one batch entry. Path is empty and Err set
// when the entry failed.
type BatchResult struct {
	Index    int
	Request  Request
	Kind     section.Kind
	Path     string
	Vertices int
	Warnings []string
	Err      error
}

// Service wires the engine to persistence.
type Service struct {
	validator *validation.Validator
	registry  *section.Registry
	exporter  *export.Service
	logger    *slog.Logger
}

// New returns a Service. A nil registry means the built-in codecs.
func New(v *validation.Validator, r *section.Registry, e *export.Service, logger *slog.Logger) *Service {
	if r == nil {
		r = section.NewRegistry()
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{validator: v, registry: r, exporter: e, logger: logger}
}

// Validator returns the validator in use.
func (s *Service) Validator() *validation.Validator { return s.validator }

// OutputDir is where relative drawing names are written.
func (s *Service) OutputDir() string { return s.exporter.Dir() }

// Render validates req and encodes its profile without touching disk.
func (s *Service) Render(req Request) (*Rendered, error) {
	kind, err := section.ParseKind(req.ComponentType)
	if err != nil {
		return nil, err
	}

	warnings, err := s.validator.Check(kind, req.Params)
	if err != nil {
		return nil, err
	}

	fields := make(map[string]float64, len(req.Params))
	for name, raw := range req.Params {
		if n, ok := validation.Number(raw); ok {
			fields[name] = n
		}
	}
	params, err := section.NewParams(kind, fields)
	if err != nil {
		return nil, err
	}

	profile, err := s.registry.Encode(params)
	if err != nil {
		return nil, err
	}
	return &Rendered{Kind: kind, Params: params, Profile: profile, Warnings: warnings}, nil
}

// Start renders req and begins writing it without waiting. Validation
// errors are returned immediately; write errors surface through the task.
func (s *Service) Start(ctx context.Context, req Request) (*Rendered, *export.Task, error) {
	r, err := s.Render(req)
	if err != nil {
		return nil, nil, err
	}
	return r, s.exporter.Start(ctx, export.Item{Kind: r.Kind, Profile: r.Profile, Name: req.Name}), nil
}

// Generate renders req and writes it as a DXF file, waiting for the write.
func (s *Service) Generate(ctx context.Context, req Request) (*Generated, error) {
	r, task, err := s.Start(ctx, req)
	if err != nil {
		return nil, err
	}
	path, err := task.Wait()
	if err != nil {
		return nil, fmt.Errorf("save drawing: %w", err)
	}
	s.logger.Info("dxf generated", "type", r.Kind.String(), "path", path)
	return &Generated{Rendered: *r, Path: path}, nil
}

// Parse reads the first polyline of a DXF stream and decodes it. Decoded
// params are rounded for display and are not validated.
func (s *Service) Parse(r io.Reader) (*Parsed, error) {
	pl, err := dxf.First(r)
	if err != nil {
		return nil, err
	}
	return s.Decode(pl.Vertices)
}

// Decode recovers the component of a profile.
func (s *Service) Decode(pts section.Profile) (*Parsed, error) {
	params, err := s.registry.Decode(pts)
	if err != nil {
		return nil, err
	}
	rounded := params.Round(section.DisplayPlaces)
	return &Parsed{Type: rounded.Kind(), Params: rounded.Fields(), Vertices: len(pts)}, nil
}

// Batch renders every request and writes the valid ones on the export
// worker pool. Entries fail independently.
func (s *Service) Batch(ctx context.Context, reqs []Request) []BatchResult {
	results := make([]BatchResult, len(reqs))
	var (
		items []export.Item
		slots []int
	)
	for i, req := range reqs {
		results[i] = BatchResult{Index: i, Request: req}
		r, err := s.Render(req)
		if err != nil {
			results[i].Err = err
			continue
		}
		results[i].Kind = r.Kind
		results[i].Warnings = r.Warnings
		results[i].Vertices = len(r.Profile)
		items = append(items, export.Item{Kind: r.Kind, Profile: r.Profile, Name: req.Name})
		slots = append(slots, i)
	}

	for j, res := range s.exporter.SaveBatch(ctx, items) {
		i := slots[j]
		results[i].Path = res.Path
		results[i].Err = res.Err
	}

	var failed int
	for _, r := range results {
		if r.Err != nil {
			failed++
		}
	}
	s.logger.Info("batch generated", "total", len(reqs), "failed", failed)
	return results
}

// IsClientError reports whether err stems from bad caller input rather than
// a server fault.
func IsClientError(err error) bool {
	var (
		vErr      *validation.ValidationError
		typeErr   *section.UnsupportedComponentTypeError
		structErr *section.UnsupportedProfileStructureError
		malformed *section.MalformedInputError
		fmtErr    *dxf.FormatError
	)
	return errors.As(err, &vErr) ||
		errors.As(err, &typeErr) ||
		errors.As(err, &structErr) ||
		errors.As(err, &malformed) ||
		errors.As(err, &fmtErr) ||
		errors.Is(err, dxf.ErrNoPolyline)
}
