// Package dxf reads and writes section profiles as closed LWPOLYLINE
// entities in the model space of an ASCII DXF drawing.
package dxf

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"Contour/internal/section"

	cad "github.com/yofu/dxf"
	"github.com/yofu/dxf/drawing"
	"github.com/yofu/dxf/entity"
)

// DefaultLayer is the layer profiles are written to when none is given.
const DefaultLayer = "PROFILE"

// ErrNoPolyline is returned by First when a drawing has no LWPOLYLINE.
var ErrNoPolyline = errors.New("no polyline found in DXF")

// Polyline is a lightweight polyline entity.
type Polyline struct {
	Layer    string
	Closed   bool
	Vertices section.Profile
}

// FormatError describes input that is not a readable DXF stream. Line is
// zero when the position is unknown.
type FormatError struct {
	Line int
	Msg  string
}

func (e *FormatError) Error() string {
	if e.Line == 0 {
		return e.Msg
	}
	return fmt.Sprintf("line %d: %s", e.Line, e.Msg)
}

// Save writes a drawing containing each polyline, closed, to path.
func Save(path string, polylines ...Polyline) error {
	d, err := build(polylines)
	if err != nil {
		return err
	}
	return d.SaveAs(path)
}

// SaveProfile writes a single closed profile on layer to path.
func SaveProfile(path, layer string, pts section.Profile) error {
	return Save(path, Polyline{Layer: layer, Closed: true, Vertices: pts})
}

// Write emits the drawing Save would produce to w. The drawing is staged
// in a temporary file since the library saves to named files only.
func Write(w io.Writer, polylines ...Polyline) error {
	f, err := os.CreateTemp("", "contour-*.dxf")
	if err != nil {
		return err
	}
	name := f.Name()
	f.Close()
	defer os.Remove(name)

	if err := Save(name, polylines...); err != nil {
		return err
	}
	data, err := os.ReadFile(name)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// WriteProfile writes a single closed profile on layer.
func WriteProfile(w io.Writer, layer string, pts section.Profile) error {
	return Write(w, Polyline{Layer: layer, Closed: true, Vertices: pts})
}

func build(polylines []Polyline) (*drawing.Drawing, error) {
	d := cad.NewDrawing()
	for _, pl := range polylines {
		layer := pl.Layer
		if layer == "" {
			layer = DefaultLayer
		}
		if err := d.ChangeLayer(layer); err != nil {
			if _, err := d.AddLayer(layer, cad.DefaultColor, cad.DefaultLineType, true); err != nil {
				return nil, fmt.Errorf("add layer %s: %w", layer, err)
			}
		}
		vertices := make([][]float64, len(pl.Vertices))
		for i, v := range pl.Vertices {
			vertices[i] = []float64{v.X, v.Y}
		}
		if _, err := d.LwPolyline(true, vertices...); err != nil {
			return nil, fmt.Errorf("add polyline: %w", err)
		}
	}
	return d, nil
}

// Read returns every LWPOLYLINE in model space, in file order.
func Read(r io.Reader) ([]Polyline, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if err := checkPairs(data); err != nil {
		return nil, err
	}
	d, err := cad.FromReader(bytes.NewReader(data))
	if err != nil {
		return nil, &FormatError{Msg: err.Error()}
	}

	var polylines []Polyline
	for _, e := range d.Entities() {
		lw, ok := e.(*entity.LwPolyline)
		if !ok {
			continue
		}
		pl := Polyline{Closed: lw.Closed, Vertices: make(section.Profile, 0, len(lw.Vertices))}
		if l := lw.Layer(); l != nil {
			pl.Layer = l.Name()
		}
		for _, v := range lw.Vertices {
			if len(v) < 2 {
				return nil, &FormatError{Msg: "polyline vertex without y coordinate"}
			}
			pl.Vertices = append(pl.Vertices, section.Point{X: v[0], Y: v[1]})
		}
		polylines = append(polylines, pl)
	}
	return polylines, nil
}

// First returns the first LWPOLYLINE of a drawing, or ErrNoPolyline.
func First(r io.Reader) (Polyline, error) {
	polylines, err := Read(r)
	if err != nil {
		return Polyline{}, err
	}
	if len(polylines) == 0 {
		return Polyline{}, ErrNoPolyline
	}
	return polylines[0], nil
}

// checkPairs verifies the group code/value structure of an ASCII drawing
// so that malformed input fails with a line number instead of a partial
// read. Trailing blank lines are allowed; blank lines elsewhere are not.
func checkPairs(data []byte) error {
	text := strings.TrimRight(string(data), " \t\r\n")
	if strings.TrimSpace(text) == "" {
		return &FormatError{Msg: "empty drawing"}
	}
	lines := strings.Split(text, "\n")
	for i := 0; i < len(lines); i += 2 {
		codeText := strings.TrimSpace(lines[i])
		code, err := strconv.Atoi(codeText)
		if err != nil {
			return &FormatError{Line: i + 1, Msg: fmt.Sprintf("invalid group code %q", codeText)}
		}
		if i+1 == len(lines) {
			return &FormatError{Line: i + 1, Msg: "missing value for group code"}
		}
		if err := checkValue(code, strings.TrimSpace(lines[i+1])); err != nil {
			return &FormatError{Line: i + 2, Msg: err.Error()}
		}
	}
	return nil
}

// checkValue rejects non-numeric values for coordinate and integer codes.
func checkValue(code int, value string) error {
	switch {
	case code >= 10 && code <= 59:
		if _, err := strconv.ParseFloat(value, 64); err != nil {
			return fmt.Errorf("bad coordinate %q", value)
		}
	case code >= 60 && code <= 79, code >= 90 && code <= 99:
		if _, err := strconv.Atoi(value); err != nil {
			return fmt.Errorf("bad integer %q for group code %d", value, code)
		}
	}
	return nil
}
