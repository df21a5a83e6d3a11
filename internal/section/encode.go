package section

import "fmt"

// EncodeBeam traces the I-profile outline centred on the origin: twelve
// vertices, clockwise, starting at the top-left corner of the top flange.
// Decoders depend on this exact order.
func EncodeBeam(p BeamParams) Profile {
	hh := p.H / 2
	hb := p.B / 2
	htw := p.Tw / 2

	return Profile{
		{-hb, hh}, {hb, hh}, // top flange
		{hb, hh - p.Tf},
		{htw, hh - p.Tf},
		{htw, -hh + p.Tf},
		{hb, -hh + p.Tf},
		{hb, -hh},
		{-hb, -hh}, // bottom flange
		{-hb, -hh + p.Tf},
		{-htw, -hh + p.Tf},
		{-htw, hh - p.Tf},
		{-hb, hh - p.Tf},
	}
}

// EncodeColumn returns the width x height rectangle anchored at the origin,
// counter-clockwise.
func EncodeColumn(p ColumnParams) Profile {
	return Profile{
		{0, 0},
		{p.Width, 0},
		{p.Width, p.Height},
		{0, p.Height},
	}
}

func encodeBeam(p Params) (Profile, error) {
	bp, ok := p.(BeamParams)
	if !ok {
		return nil, fmt.Errorf("beam encoder: got %s params", p.Kind())
	}
	return EncodeBeam(bp), nil
}

func encodeColumn(p Params) (Profile, error) {
	cp, ok := p.(ColumnParams)
	if !ok {
		return nil, fmt.Errorf("column encoder: got %s params", p.Kind())
	}
	return EncodeColumn(cp), nil
}
