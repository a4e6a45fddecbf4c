package export

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
)

// Grid is one page of a weekly timetable: rows are days, columns are time bands.
type Grid struct {
	Title   string
	Caption string
	Columns []string
	Rows    []string
	// Cells[r][c] may hold several lines separated by "\n".
	Cells [][]string
	// Shaded marks columns drawn with a grey background, e.g. the lunch band.
	Shaded map[int]bool
}

// PDFExporter renders timetable grids into a landscape A4 document.
type PDFExporter struct {
	pageWidth float64
}

// NewPDFExporter constructs a PDF exporter.
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{pageWidth: 277}
}

// Render writes one page per grid.
func (e *PDFExporter) Render(grids []Grid) ([]byte, error) {
	if len(grids) == 0 {
		return nil, fmt.Errorf("pdf requires at least one grid")
	}
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(10, 12, 10)
	pdf.SetAutoPageBreak(true, 10)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	for _, grid := range grids {
		if len(grid.Columns) == 0 {
			return nil, fmt.Errorf("grid %q has no columns", grid.Title)
		}
		pdf.AddPage()

		pdf.SetFont("Arial", "B", 14)
		pdf.CellFormat(0, 9, tr(grid.Title), "", 1, "C", false, 0, "")
		if grid.Caption != "" {
			pdf.SetFont("Arial", "", 9)
			pdf.CellFormat(0, 6, tr(grid.Caption), "", 1, "C", false, 0, "")
		}
		pdf.Ln(3)

		headWidth := 28.0
		colWidth := (e.pageWidth - headWidth) / float64(len(grid.Columns))

		pdf.SetFont("Arial", "B", 8)
		pdf.SetFillColor(220, 228, 240)
		pdf.CellFormat(headWidth, 8, "", "1", 0, "C", true, 0, "")
		for _, col := range grid.Columns {
			pdf.CellFormat(colWidth, 8, tr(col), "1", 0, "C", true, 0, "")
		}
		pdf.Ln(-1)

		pdf.SetFont("Arial", "", 7)
		rowHeight := 16.0
		for r, label := range grid.Rows {
			x, y := pdf.GetXY()
			pdf.SetFont("Arial", "B", 8)
			pdf.CellFormat(headWidth, rowHeight, tr(label), "1", 0, "C", false, 0, "")
			pdf.SetFont("Arial", "", 7)
			for c := range grid.Columns {
				cellX := x + headWidth + float64(c)*colWidth
				fill := grid.Shaded[c]
				if fill {
					pdf.SetFillColor(235, 235, 235)
				}
				pdf.Rect(cellX, y, colWidth, rowHeight, rectStyle(fill))
				pdf.SetXY(cellX, y+1)
				pdf.MultiCell(colWidth, 3.5, tr(cellAt(grid.Cells, r, c)), "", "C", false)
			}
			pdf.SetXY(x, y+rowHeight)
		}
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func cellAt(cells [][]string, r, c int) string {
	if r >= len(cells) || c >= len(cells[r]) {
		return ""
	}
	return cells[r][c]
}

func rectStyle(fill bool) string {
	if fill {
		return "FD"
	}
	return "D"
}
