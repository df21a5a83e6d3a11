// Package report renders a printable PDF sheet for a profile: the outline
// drawn to scale, its dimensions and its section properties.
package report

import (
	"fmt"
	"io"
	"math"
	"sort"
	"time"

	"Contour/internal/section"

	"github.com/phpdave11/gofpdf"
)

// Sheet is the content of one report page.
type Sheet struct {
	Title    string
	Project  string
	Author   string
	Kind     section.Kind
	Params   section.Params
	Profile  section.Profile
	Warnings []string
	Date     time.Time
}

const (
	pageMargin = 15.0
	drawWidth  = 180.0
	drawHeight = 120.0
)

// Write renders s as a single-page A4 PDF.
func Write(w io.Writer, s Sheet) error {
	if len(s.Profile) < 3 {
		return fmt.Errorf("profile has %d vertices, need at least 3", len(s.Profile))
	}
	if s.Title == "" {
		s.Title = fmt.Sprintf("%s section", titleCase(s.Kind.String()))
	}
	if s.Date.IsZero() {
		s.Date = time.Now()
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(pageMargin, pageMargin, pageMargin)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(0, 10, s.Title)
	pdf.Ln(12)
	pdf.SetFont("Helvetica", "", 10)
	if s.Project != "" {
		pdf.Cell(0, 6, fmt.Sprintf("Project: %s", s.Project))
		pdf.Ln(6)
	}
	if s.Author != "" {
		pdf.Cell(0, 6, fmt.Sprintf("Author: %s", s.Author))
		pdf.Ln(6)
	}
	pdf.Cell(0, 6, fmt.Sprintf("Date: %s", s.Date.Format("2006-01-02")))
	pdf.Ln(10)

	drawProfile(pdf, s.Profile, pdf.GetY())
	pdf.SetY(pdf.GetY() + drawHeight + 8)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 8, "Dimensions")
	pdf.Ln(8)
	pdf.SetFont("Helvetica", "", 10)
	if s.Params != nil {
		fields := s.Params.Fields()
		names := make([]string, 0, len(fields))
		for name := range fields {
			names = append(names, name)
		}
		if order, err := section.FieldNames(s.Kind); err == nil {
			names = order
		} else {
			sort.Strings(names)
		}
		for _, name := range names {
			row(pdf, name, fmt.Sprintf("%.2f mm", fields[name]))
		}
	}
	pdf.Ln(4)

	props := section.CalculateProperties(s.Profile)
	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 8, "Section properties")
	pdf.Ln(8)
	pdf.SetFont("Helvetica", "", 10)
	row(pdf, "Area", fmt.Sprintf("%.2f mm2", props.Area))
	row(pdf, "Centroid", fmt.Sprintf("(%.2f, %.2f) mm", props.CentroidX, props.CentroidY))
	row(pdf, "Ixx", fmt.Sprintf("%.4g mm4", props.Ixx))
	row(pdf, "Iyy", fmt.Sprintf("%.4g mm4", props.Iyy))
	row(pdf, "Vertices", fmt.Sprintf("%d", len(s.Profile)))

	if len(s.Warnings) > 0 {
		pdf.Ln(4)
		pdf.SetTextColor(170, 60, 0)
		for _, warn := range s.Warnings {
			pdf.MultiCell(0, 6, "Warning: "+warn, "", "L", false)
		}
		pdf.SetTextColor(0, 0, 0)
	}

	return pdf.Output(w)
}

func row(pdf *gofpdf.Fpdf, label, value string) {
	pdf.CellFormat(45, 6, label, "B", 0, "L", false, 0, "")
	pdf.CellFormat(70, 6, value, "B", 1, "R", false, 0, "")
}

// drawProfile scales the outline into the drawing box below top, keeping the
// aspect ratio and centring it.
func drawProfile(pdf *gofpdf.Fpdf, pts section.Profile, top float64) {
	props := section.CalculateProperties(pts)
	w, h := props.Width, props.Height
	if w <= 0 || h <= 0 {
		return
	}
	scale := math.Min(drawWidth/w, drawHeight/h)
	offX := pageMargin + (drawWidth-w*scale)/2
	offY := top + (drawHeight-h*scale)/2

	poly := make([]gofpdf.PointType, len(pts))
	for i, p := range pts {
		poly[i] = gofpdf.PointType{
			X: offX + (p.X-props.MinX)*scale,
			Y: offY + (props.MaxY-p.Y)*scale,
		}
	}

	pdf.SetDrawColor(200, 200, 200)
	pdf.SetLineWidth(0.2)
	pdf.Rect(pageMargin, top, drawWidth, drawHeight, "D")

	pdf.SetDrawColor(0, 0, 0)
	pdf.SetFillColor(220, 228, 240)
	pdf.SetLineWidth(0.5)
	pdf.Polygon(poly, "DF")

	// Centroid marker.
	cx := offX + (props.CentroidX-props.MinX)*scale
	cy := offY + (props.MaxY-props.CentroidY)*scale
	pdf.SetLineWidth(0.2)
	pdf.Line(cx-3, cy, cx+3, cy)
	pdf.Line(cx, cy-3, cx, cy+3)
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return string(s[0]-'a'+'A') + s[1:]
}
