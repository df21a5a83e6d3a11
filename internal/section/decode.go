package section

import "math"

const (
	beamVertexCount   = 12
	columnVertexCount = 4

	// DisplayPlaces is the rounding applied to decoded dimensions before they
	// are shown to a user.
	DisplayPlaces = 2
)

// DecodeBeam recovers I-beam dimensions from a profile in EncodeBeam order.
// Depth and width come from the bounding box; flange thickness from vertices
// 0 and 11, web thickness from vertices 3 and 10. A reordered or mirrored
// outline is not detected and yields wrong dimensions.
func DecodeBeam(pts Profile) BeamParams {
	minX, maxX, minY, maxY := bounds(pts)
	return BeamParams{
		H:  maxY - minY,
		B:  maxX - minX,
		Tf: math.Abs(pts[0].Y - pts[11].Y),
		Tw: math.Abs(pts[3].X - pts[10].X),
	}
}

// DecodeColumn recovers column dimensions from the bounding box.
func DecodeColumn(pts Profile) ColumnParams {
	minX, maxX, minY, maxY := bounds(pts)
	return ColumnParams{
		Width:  maxX - minX,
		Height: maxY - minY,
	}
}

func decodeBeam(pts Profile) Params   { return DecodeBeam(pts) }
func decodeColumn(pts Profile) Params { return DecodeColumn(pts) }

func bounds(pts Profile) (minX, maxX, minY, maxY float64) {
	if len(pts) == 0 {
		return 0, 0, 0, 0
	}
	minX, maxX = pts[0].X, pts[0].X
	minY, maxY = pts[0].Y, pts[0].Y
	for _, p := range pts[1:] {
		minX = math.Min(minX, p.X)
		maxX = math.Max(maxX, p.X)
		minY = math.Min(minY, p.Y)
		maxY = math.Max(maxY, p.Y)
	}
	return minX, maxX, minY, maxY
}
