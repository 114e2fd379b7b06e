package slack

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/secmon-lab/risktree/pkg/domain/model"
	"github.com/secmon-lab/risktree/pkg/domain/types"
	"github.com/slack-go/slack"
)

// maxSectionBytes is the Slack limit for a section text
const maxSectionBytes = 3000

var bandEmoji = map[types.RiskBand]string{
	types.RiskBandLow:    ":large_green_circle:",
	types.RiskBandMedium: ":large_yellow_circle:",
	types.RiskBandHigh:   ":red_circle:",
}

// ReportFallbackText is the notification text for clients without blocks
func ReportFallbackText(report *model.Report) string {
	return fmt.Sprintf("%s: ΣExpectedMin %.2f / ΣExpectedMax %.2f", report.Title, report.Totals.ExpectedMin, report.Totals.ExpectedMax)
}

// BuildReportBlocks builds the Block Kit summary of a report: totals and
// the top cities by risk score.
func BuildReportBlocks(report *model.Report, location string, top int) []slack.Block {
	blocks := []slack.Block{
		slack.NewHeaderBlock(slack.NewTextBlockObject(slack.PlainTextType, report.Title, true, false)),
		slack.NewSectionBlock(nil, []*slack.TextBlockObject{
			slack.NewTextBlockObject(slack.MarkdownType, fmt.Sprintf("*ΣExpectedMin*\n%.2f", report.Totals.ExpectedMin), false, false),
			slack.NewTextBlockObject(slack.MarkdownType, fmt.Sprintf("*ΣExpectedMax*\n%.2f", report.Totals.ExpectedMax), false, false),
			slack.NewTextBlockObject(slack.MarkdownType, fmt.Sprintf("*Nodes*\n%d", report.Totals.Nodes), false, false),
			slack.NewTextBlockObject(slack.MarkdownType, fmt.Sprintf("*Leaves*\n%d", report.Totals.Leaves), false, false),
		}, nil),
	}

	if lines := topCityLines(report.Cities, top); len(lines) > 0 {
		text := truncateToMaxBytes("*Top cities by risk*\n"+strings.Join(lines, "\n"), maxSectionBytes)
		blocks = append(blocks,
			slack.NewDividerBlock(),
			slack.NewSectionBlock(slack.NewTextBlockObject(slack.MarkdownType, text, false, false), nil, nil),
		)
	}

	footer := fmt.Sprintf("Report `%s` generated %s", report.ID, report.GeneratedAt.Format("2006-01-02 15:04"))
	if location != "" {
		footer += fmt.Sprintf(" · %s", location)
	}
	blocks = append(blocks, slack.NewContextBlock("",
		slack.NewTextBlockObject(slack.MarkdownType, footer, false, false),
	))
	return blocks
}

func topCityLines(cities []model.ReportRow, top int) []string {
	ranked := slices.Clone(cities)
	slices.SortStableFunc(ranked, func(a, b model.ReportRow) int {
		if c := cmp.Compare(b.RiskScore, a.RiskScore); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	if top > 0 && len(ranked) > top {
		ranked = ranked[:top]
	}

	lines := make([]string, 0, len(ranked))
	for _, c := range ranked {
		emoji, ok := bandEmoji[c.Band]
		if !ok {
			emoji = ":white_circle:"
		}
		lines = append(lines, fmt.Sprintf("%s %s  risk %.2f  P %.3f  expected %.2f..%.2f",
			emoji, c.Name, c.RiskScore, c.Prob, c.ExpectedMin, c.ExpectedMax))
	}
	return lines
}

// truncateToMaxBytes cuts s to at most limit bytes without splitting a rune
func truncateToMaxBytes(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
