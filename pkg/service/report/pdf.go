package report

import (
	"context"
	_ "embed"
	"io"
	"os"

	"github.com/go-pdf/fpdf"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/risktree/pkg/domain/interfaces"
	"github.com/secmon-lab/risktree/pkg/domain/model"
	"github.com/secmon-lab/risktree/pkg/domain/types"
)

const (
	fontFamily   = "Report"
	pageMargin   = 10.0
	rowHeight    = 6.0
	captionSize  = 10.0
	cellFontSize = 8.0
	titleSize    = 16.0
)

// column widths as fractions of the printable width
var columnWeights = []float64{0.24, 0.07, 0.10, 0.10, 0.13, 0.13, 0.10, 0.13}

type rgb struct{ r, g, b int }

var (
	headerFill = rgb{211, 211, 211}
	gridColor  = rgb{128, 128, 128}
	bandFills  = map[types.RiskBand]rgb{
		types.RiskBandLow:    {144, 238, 144},
		types.RiskBandMedium: {255, 255, 0},
		types.RiskBandHigh:   {255, 0, 0},
	}
)

var (
	//go:embed fonts/DejaVuSansCondensed.ttf
	defaultFont []byte
	//go:embed fonts/DejaVuSansCondensed-Bold.ttf
	defaultFontBold []byte
)

// PDF renders reports as A4 documents. Text is always written with a
// UTF-8 TrueType font: the configured one, or the embedded DejaVu Sans
// Condensed.
type PDF struct {
	font     string
	fontBold string
}

var _ interfaces.ReportRenderer = &PDF{}

type PDFOption func(*PDF)

// WithFont sets the TrueType files for regular and bold text. bold may be
// empty, in which case regular is used for both.
func WithFont(regular, bold string) PDFOption {
	return func(p *PDF) {
		p.font = regular
		p.fontBold = bold
	}
}

func NewPDF(opts ...PDFOption) *PDF {
	p := &PDF{}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *PDF) Format() types.ReportFormat {
	return types.ReportFormatPDF
}

func (p *PDF) Render(ctx context.Context, w io.Writer, report *model.Report) error {
	doc := fpdf.New("P", "mm", "A4", "")
	doc.SetMargins(pageMargin, pageMargin, pageMargin)
	doc.SetAutoPageBreak(false, pageMargin)
	doc.SetCreationDate(report.GeneratedAt)

	family, err := p.setupFont(doc)
	if err != nil {
		return err
	}
	doc.SetTitle(report.Title, true)

	r := &pdfWriter{doc: doc, family: family}
	doc.AddPage()

	doc.SetFont(family, "B", titleSize)
	doc.CellFormat(0, 10, report.Title, "", 1, "C", false, 0, "")
	doc.SetFont(family, "", captionSize)
	doc.MultiCell(0, 5, legend, "", "L", false)
	doc.CellFormat(0, 6, totalsCaption(report), "", 1, "L", false, 0, "")
	doc.Ln(4)

	r.table(citiesCaption(report), report.Cities)
	for i, t := range report.Tables {
		r.table(cityCaption(report, i+2, t.City.Name), t.Rows)
	}

	if err := doc.Error(); err != nil {
		return goerr.Wrap(err, "failed to layout PDF report", goerr.V("report_id", string(report.ID)))
	}
	if err := doc.Output(w); err != nil {
		return goerr.Wrap(err, "failed to write PDF report", goerr.V("report_id", string(report.ID)))
	}
	return nil
}

func (p *PDF) setupFont(doc *fpdf.Fpdf) (string, error) {
	if p.font == "" {
		doc.AddUTF8FontFromBytes(fontFamily, "", defaultFont)
		doc.AddUTF8FontFromBytes(fontFamily, "B", defaultFontBold)
		if err := doc.Error(); err != nil {
			return "", goerr.Wrap(err, "failed to load embedded report font")
		}
		return fontFamily, nil
	}

	bold := p.fontBold
	if bold == "" {
		bold = p.font
	}
	for _, path := range []string{p.font, bold} {
		if _, err := os.Stat(path); err != nil {
			return "", goerr.Wrap(err, "report font is not available", goerr.V("path", path))
		}
	}

	doc.AddUTF8Font(fontFamily, "", p.font)
	doc.AddUTF8Font(fontFamily, "B", bold)
	if err := doc.Error(); err != nil {
		return "", goerr.Wrap(err, "failed to load report font", goerr.V("path", p.font))
	}
	return fontFamily, nil
}

type pdfWriter struct {
	doc    *fpdf.Fpdf
	family string
}

func (r *pdfWriter) widths() []float64 {
	pageW, _ := r.doc.GetPageSize()
	left, _, right, _ := r.doc.GetMargins()
	printable := pageW - left - right

	widths := make([]float64, len(columnWeights))
	for i, weight := range columnWeights {
		widths[i] = printable * weight
	}
	return widths
}

// ensureSpace starts a new page when h does not fit, and reports whether
// it did.
func (r *pdfWriter) ensureSpace(h float64) bool {
	_, pageH := r.doc.GetPageSize()
	if r.doc.GetY()+h <= pageH-pageMargin {
		return false
	}
	r.doc.AddPage()
	return true
}

func (r *pdfWriter) table(caption string, rows []model.ReportRow) {
	widths := r.widths()

	r.ensureSpace(6 + 2*rowHeight)
	r.doc.SetFont(r.family, "", captionSize)
	r.doc.CellFormat(0, 6, caption, "", 1, "L", false, 0, "")

	r.doc.SetDrawColor(gridColor.r, gridColor.g, gridColor.b)
	r.doc.SetLineWidth(0.2)
	r.header(widths)

	r.doc.SetFont(r.family, "", cellFontSize)
	for _, row := range rows {
		if r.ensureSpace(rowHeight) {
			r.header(widths)
			r.doc.SetFont(r.family, "", cellFontSize)
		}

		for i, cell := range Cells(row) {
			fill := false
			if i == riskColumn {
				if c, ok := bandFills[row.Band]; ok {
					r.doc.SetFillColor(c.r, c.g, c.b)
					fill = true
				}
			}
			align := "R"
			if i == 0 {
				align = "L"
				cell = r.fit(cell, widths[i]-2)
			}
			r.doc.CellFormat(widths[i], rowHeight, cell, "1", 0, align, fill, 0, "")
		}
		r.doc.Ln(-1)
	}
	r.doc.Ln(4)
}

func (r *pdfWriter) header(widths []float64) {
	r.doc.SetFont(r.family, "B", cellFontSize)
	r.doc.SetFillColor(headerFill.r, headerFill.g, headerFill.b)
	for i, col := range Columns {
		r.doc.CellFormat(widths[i], rowHeight, col, "1", 0, "C", true, 0, "")
	}
	r.doc.Ln(-1)
}

// fit shortens text until it is at most w wide.
func (r *pdfWriter) fit(text string, w float64) string {
	if r.doc.GetStringWidth(text) <= w {
		return text
	}
	runes := []rune(text)
	for len(runes) > 0 {
		runes = runes[:len(runes)-1]
		candidate := string(runes) + ".."
		if r.doc.GetStringWidth(candidate) <= w {
			return candidate
		}
	}
	return ""
}
