package config_test

import (
	"context"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/risktree/pkg/cli/config"
	domainConfig "github.com/secmon-lab/risktree/pkg/domain/model/config"
	"github.com/secmon-lab/risktree/pkg/domain/types"
)

func TestReport_Apply(t *testing.T) {
	base := domainConfig.DefaultReport()
	base.Font = "file.ttf"

	t.Run("flags override file", func(t *testing.T) {
		cfg := config.NewReportForTest("flag.ttf", "flag-bold.ttf", false).Apply(base)
		gt.Value(t, cfg.Font).Equal("flag.ttf")
		gt.Value(t, cfg.FontBold).Equal("flag-bold.ttf")
	})

	t.Run("no flags keep file values", func(t *testing.T) {
		cfg := config.NewReportForTest("", "", false).Apply(base)
		gt.Value(t, cfg.Font).Equal("file.ttf")
	})
}

func TestReport_Renderers(t *testing.T) {
	renderers := config.NewReportForTest("", "", true).Renderers(domainConfig.DefaultReport())
	gt.A(t, renderers).Length(2)
	gt.Value(t, renderers[0].Format()).Equal(types.ReportFormatPDF)
	gt.Value(t, renderers[1].Format()).Equal(types.ReportFormatText)
}

func TestReport_PublisherWithoutBucket(t *testing.T) {
	p, err := config.NewReportForTest("", "", false).Publisher(context.Background())
	gt.NoError(t, err)
	gt.V(t, p).Nil()
}
