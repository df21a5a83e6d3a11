package service

import (
	"bytes"
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	"Contour/internal/dxf"
	"Contour/internal/export"
	"Contour/internal/section"
	"Contour/internal/validation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	v := validation.New(validation.DefaultRules())
	return New(v, nil, export.NewService(t.TempDir(), 2, nil), nil)
}

func TestGenerate_Beam(t *testing.T) {
	s := newTestService(t)

	g, err := s.Generate(context.Background(), Request{
		ComponentType: "beam",
		Params:        map[string]any{"H": 200.0, "B": 100.0, "tw": 10.0, "tf": 12.0},
	})
	require.NoError(t, err)
	assert.Equal(t, section.Beam, g.Kind)
	assert.Len(t, g.Profile, 12)
	assert.Empty(t, g.Warnings)

	f, err := os.Open(g.Path)
	require.NoError(t, err)
	defer f.Close()
	parsed, err := s.Parse(f)
	require.NoError(t, err)
	assert.Equal(t, section.Beam, parsed.Type)
	assert.Equal(t, map[string]float64{"H": 200, "B": 100, "tw": 10, "tf": 12}, parsed.Params)
}

func TestGenerate_ColumnIgnoresExtraFields(t *testing.T) {
	s := newTestService(t)

	g, err := s.Generate(context.Background(), Request{
		ComponentType: "column",
		Params:        map[string]any{"width": 100.0, "height": 200.0, "depth": 5.0},
		Name:          "c1.dxf",
	})
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(g.Path, "c1.dxf"))
	assert.Equal(t, section.ColumnParams{Width: 100, Height: 200}, g.Params)
}

func TestRender_Errors(t *testing.T) {
	s := newTestService(t)

	_, err := s.Render(Request{ComponentType: "slab", Params: map[string]any{}})
	var typeErr *section.UnsupportedComponentTypeError
	assert.ErrorAs(t, err, &typeErr)

	_, err = s.Render(Request{ComponentType: "beam", Params: map[string]any{"H": 0.0, "B": 100.0, "tw": 10.0, "tf": 15.0}})
	var vErr *validation.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Contains(t, err.Error(), "must be between 1 and 100000")
	assert.True(t, IsClientError(err))
}

func TestRender_ProportionWarning(t *testing.T) {
	s := newTestService(t)

	r, err := s.Render(Request{ComponentType: "beam", Params: map[string]any{"H": 1500.0, "B": 100.0, "tw": 10.0, "tf": 15.0}})
	require.NoError(t, err)
	assert.Len(t, r.Warnings, 1)
	assert.Len(t, r.Profile, 12)
}

func TestParse_Errors(t *testing.T) {
	s := newTestService(t)

	var buf bytes.Buffer
	require.NoError(t, dxf.WriteProfile(&buf, "", section.Profile{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 2, Y: 1}, {X: 1, Y: 2}, {X: 0, Y: 1}}))
	_, err := s.Parse(&buf)
	var structErr *section.UnsupportedProfileStructureError
	require.ErrorAs(t, err, &structErr)
	assert.Equal(t, 5, structErr.Count)

	buf.Reset()
	require.NoError(t, dxf.Write(&buf))
	_, err = s.Parse(&buf)
	assert.ErrorIs(t, err, dxf.ErrNoPolyline)
	assert.True(t, IsClientError(err))
}

func TestDecode_Rounds(t *testing.T) {
	s := newTestService(t)

	p, err := s.Decode(section.EncodeColumn(section.ColumnParams{Width: 99.999, Height: 12.3456}))
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"width": 100, "height": 12.35}, p.Params)
}

func TestBatch_PerEntryResults(t *testing.T) {
	s := newTestService(t)

	results := s.Batch(context.Background(), []Request{
		{ComponentType: "beam", Params: map[string]any{"H": 200.0, "B": 100.0, "tw": 10.0, "tf": 12.0}},
		{ComponentType: "beam", Params: map[string]any{"H": -1.0, "B": 100.0, "tw": 10.0, "tf": 12.0}},
		{ComponentType: "truss", Params: map[string]any{}},
		{ComponentType: "column", Params: map[string]any{"width": 300.0, "height": 300.0}},
	})
	require.Len(t, results, 4)

	assert.NoError(t, results[0].Err)
	assert.FileExists(t, results[0].Path)
	assert.Error(t, results[1].Err)
	assert.Empty(t, results[1].Path)
	assert.Error(t, results[2].Err)
	assert.NoError(t, results[3].Err)
	assert.Equal(t, section.Column, results[3].Kind)
	assert.FileExists(t, results[3].Path)
}

func TestIsClientError(t *testing.T) {
	assert.False(t, IsClientError(errors.New("disk full")))
	assert.True(t, IsClientError(&section.MalformedInputError{Field: "H"}))
	assert.True(t, IsClientError(&dxf.FormatError{Line: 1, Msg: "x"}))
}
