package section

import "math"

// Properties holds the geometric properties of a closed profile.
type Properties struct {
	MinX float64 `json:"min_x"`
	MaxX float64 `json:"max_x"`
	MinY float64 `json:"min_y"`
	MaxY float64 `json:"max_y"`

	Width  float64 `json:"width"`  // bounding box width (mm)
	Height float64 `json:"height"` // bounding box height (mm)
	Area   float64 `json:"area_mm2"`

	CentroidX float64 `json:"centroid_x"`
	CentroidY float64 `json:"centroid_y"`

	// Second moments of area about centroidal axes (mm^4).
	Ixx float64 `json:"ixx_mm4"`
	Iyy float64 `json:"iyy_mm4"`
}

// CalculateProperties computes area, centroid and centroidal second moments
// with the shoelace formulas. Winding direction does not matter. Profiles with
// fewer than three vertices only get a bounding box.
func CalculateProperties(pts Profile) Properties {
	var props Properties
	props.MinX, props.MaxX, props.MinY, props.MaxY = bounds(pts)
	props.Width = props.MaxX - props.MinX
	props.Height = props.MaxY - props.MinY

	n := len(pts)
	if n < 3 {
		return props
	}

	var a, sx, sy, ix, iy float64
	for i := 0; i < n; i++ {
		p, q := pts[i], pts[(i+1)%n]
		cross := p.X*q.Y - q.X*p.Y
		a += cross
		sx += (p.X + q.X) * cross
		sy += (p.Y + q.Y) * cross
		ix += (p.Y*p.Y + p.Y*q.Y + q.Y*q.Y) * cross
		iy += (p.X*p.X + p.X*q.X + q.X*q.X) * cross
	}
	a /= 2
	if a == 0 {
		return props
	}

	props.Area = math.Abs(a)
	props.CentroidX = sx / (6 * a)
	props.CentroidY = sy / (6 * a)

	// Signed sums share the sign of a; dividing by sign(a) normalises winding.
	sign := math.Copysign(1, a)
	ixOrigin := sign * ix / 12
	iyOrigin := sign * iy / 12
	props.Ixx = ixOrigin - props.Area*props.CentroidY*props.CentroidY
	props.Iyy = iyOrigin - props.Area*props.CentroidX*props.CentroidX

	return props
}
