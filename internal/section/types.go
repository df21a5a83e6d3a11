// Package section encodes structural cross-sections into closed polygon
// profiles and decodes such profiles back into their dimensions.
package section

import (
	"fmt"
	"math"
)

// Kind is the cross-section family of a profile.
type Kind int

const (
	Beam Kind = iota + 1
	Column
)

// Kinds lists every supported kind in a stable order.
var Kinds = []Kind{Beam, Column}

func (k Kind) String() string {
	switch k {
	case Beam:
		return "beam"
	case Column:
		return "column"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// ParseKind maps a component type tag ("beam", "column") to its Kind.
func ParseKind(tag string) (Kind, error) {
	switch tag {
	case "beam":
		return Beam, nil
	case "column":
		return Column, nil
	default:
		return 0, &UnsupportedComponentTypeError{Type: tag}
	}
}

func (k Kind) MarshalText() ([]byte, error) {
	switch k {
	case Beam, Column:
		return []byte(k.String()), nil
	default:
		return nil, &UnsupportedComponentTypeError{Type: k.String()}
	}
}

func (k *Kind) UnmarshalText(b []byte) error {
	parsed, err := ParseKind(string(b))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// Point is a 2-D vertex in drawing units (mm).
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Profile is an ordered, implicitly closed vertex sequence.
// Order is part of the contract: decoders read vertices by index.
type Profile []Point

// Params is the dimension set of one kind. The set of implementations is
// closed: BeamParams and ColumnParams.
type Params interface {
	Kind() Kind
	// Fields returns the dimensions keyed by their boundary field names.
	Fields() map[string]float64
	// Round returns a copy with every dimension rounded to places decimals.
	Round(places int) Params
	sealed()
}

// BeamParams describes a symmetric I-beam.
type BeamParams struct {
	H  float64 // total depth
	B  float64 // flange width
	Tw float64 // web thickness
	Tf float64 // flange thickness
}

func (BeamParams) Kind() Kind { return Beam }
func (BeamParams) sealed()    {}

func (p BeamParams) Fields() map[string]float64 {
	return map[string]float64{"H": p.H, "B": p.B, "tw": p.Tw, "tf": p.Tf}
}

func (p BeamParams) Round(places int) Params {
	return BeamParams{
		H:  roundTo(p.H, places),
		B:  roundTo(p.B, places),
		Tw: roundTo(p.Tw, places),
		Tf: roundTo(p.Tf, places),
	}
}

// ColumnParams describes a rectangular column.
type ColumnParams struct {
	Width  float64
	Height float64
}

func (ColumnParams) Kind() Kind { return Column }
func (ColumnParams) sealed()    {}

func (p ColumnParams) Fields() map[string]float64 {
	return map[string]float64{"width": p.Width, "height": p.Height}
}

func (p ColumnParams) Round(places int) Params {
	return ColumnParams{
		Width:  roundTo(p.Width, places),
		Height: roundTo(p.Height, places),
	}
}

// FieldNames returns the boundary field names of a kind in declaration order.
func FieldNames(k Kind) ([]string, error) {
	switch k {
	case Beam:
		return []string{"H", "B", "tw", "tf"}, nil
	case Column:
		return []string{"width", "height"}, nil
	default:
		return nil, &UnsupportedComponentTypeError{Type: k.String()}
	}
}

// NewParams builds the typed dimension set for kind from named values.
// A missing field yields a *MalformedInputError.
func NewParams(k Kind, fields map[string]float64) (Params, error) {
	names, err := FieldNames(k)
	if err != nil {
		return nil, err
	}
	for _, name := range names {
		if _, ok := fields[name]; !ok {
			return nil, &MalformedInputError{Field: name}
		}
	}
	switch k {
	case Beam:
		return BeamParams{H: fields["H"], B: fields["B"], Tw: fields["tw"], Tf: fields["tf"]}, nil
	case Column:
		return ColumnParams{Width: fields["width"], Height: fields["height"]}, nil
	default:
		return nil, &UnsupportedComponentTypeError{Type: k.String()}
	}
}

func roundTo(v float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Round(v*scale) / scale
}
