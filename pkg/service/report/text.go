package report

import (
	"context"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/fatih/color"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/risktree/pkg/domain/interfaces"
	"github.com/secmon-lab/risktree/pkg/domain/model"
	"github.com/secmon-lab/risktree/pkg/domain/types"
)

// Text renders reports as aligned plain-text tables. Risk cells are
// coloured by band when colour is enabled.
type Text struct {
	colored bool
}

var _ interfaces.ReportRenderer = &Text{}

type TextOption func(*Text)

// WithColor enables ANSI colours regardless of the terminal
func WithColor(enabled bool) TextOption {
	return func(t *Text) {
		t.colored = enabled
	}
}

func NewText(opts ...TextOption) *Text {
	t := &Text{colored: !color.NoColor}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *Text) Format() types.ReportFormat {
	return types.ReportFormatText
}

// BandColor returns the colour used for a risk band, or nil for none
func BandColor(band types.RiskBand) *color.Color {
	switch band {
	case types.RiskBandLow:
		return color.New(color.FgGreen)
	case types.RiskBandMedium:
		return color.New(color.FgYellow)
	case types.RiskBandHigh:
		return color.New(color.FgRed, color.Bold)
	default:
		return nil
	}
}

func (t *Text) Render(ctx context.Context, w io.Writer, report *model.Report) error {
	var b strings.Builder

	b.WriteString(report.Title + "\n")
	b.WriteString(report.GeneratedAt.Format("2006-01-02 15:04:05") + "\n")
	b.WriteString(totalsCaption(report) + "\n\n")

	t.table(&b, citiesCaption(report), report.Cities)
	for i, tbl := range report.Tables {
		t.table(&b, cityCaption(report, i+2, tbl.City.Name), tbl.Rows)
	}

	if _, err := io.WriteString(w, b.String()); err != nil {
		return goerr.Wrap(err, "failed to write text report", goerr.V("report_id", string(report.ID)))
	}
	return nil
}

func (t *Text) table(b *strings.Builder, caption string, rows []model.ReportRow) {
	cells := make([][]string, 0, len(rows))
	widths := make([]int, len(Columns))
	for i, col := range Columns {
		widths[i] = utf8.RuneCountInString(col)
	}
	for _, row := range rows {
		c := Cells(row)
		for i, v := range c {
			widths[i] = max(widths[i], utf8.RuneCountInString(v))
		}
		cells = append(cells, c)
	}

	b.WriteString(caption + "\n")
	writeLine(b, Columns, widths, nil)
	for i, c := range cells {
		var risk *color.Color
		if t.colored {
			risk = BandColor(rows[i].Band)
		}
		writeLine(b, c, widths, risk)
	}
	b.WriteString("\n")
}

func writeLine(b *strings.Builder, cells []string, widths []int, risk *color.Color) {
	parts := make([]string, len(cells))
	for i, v := range cells {
		pad := strings.Repeat(" ", widths[i]-utf8.RuneCountInString(v))
		if i == 0 {
			parts[i] = v + pad
		} else {
			parts[i] = pad + v
		}
		if i == riskColumn && risk != nil {
			risk.EnableColor()
			parts[i] = risk.Sprint(parts[i])
		}
	}
	fmt.Fprintln(b, strings.Join(parts, "  "))
}
