package slack_test

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/risktree/pkg/service/slack"
)

func TestBuildReportBlocks(t *testing.T) {
	t.Run("ranks cities by risk score", func(t *testing.T) {
		blocks := slack.BuildReportBlocks(sampleReport(), "gs://bucket/r.pdf", 2)

		raw, err := json.Marshal(blocks)
		gt.NoError(t, err).Required()
		out := string(raw)

		gt.S(t, out).Contains(":red_circle: г.Казань")
		gt.S(t, out).Contains(":large_green_circle: г.Москва")
		gt.Bool(t, strings.Contains(out, "г.Тула")).False()
		gt.Bool(t, strings.Index(out, "г.Казань") < strings.Index(out, "г.Москва")).True()
		gt.S(t, out).Contains("gs://bucket/r.pdf")
	})

	t.Run("no cities means no ranking section", func(t *testing.T) {
		report := sampleReport()
		report.Cities = nil
		blocks := slack.BuildReportBlocks(report, "", 5)
		// header, totals and footer
		gt.A(t, blocks).Length(3)
	})
}

func TestTruncateToMaxBytes(t *testing.T) {
	gt.Value(t, slack.TruncateToMaxBytes("abc", 10)).Equal("abc")
	gt.Value(t, slack.TruncateToMaxBytes("abcdef", 3)).Equal("abc")
	// "г" is two bytes; never split it
	gt.Value(t, slack.TruncateToMaxBytes("гг", 3)).Equal("г")
	gt.Value(t, slack.TruncateToMaxBytes("гг", 1)).Equal("")
}
