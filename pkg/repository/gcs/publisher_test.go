package gcs_test

import (
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/risktree/pkg/domain/model"
	"github.com/secmon-lab/risktree/pkg/domain/types"
	"github.com/secmon-lab/risktree/pkg/repository/gcs"
)

func TestReportObjectName(t *testing.T) {
	report := &model.Report{
		ID:          "0190a8f2-7c1e-7000-8000-000000000001",
		GeneratedAt: time.Date(2026, 2, 3, 23, 59, 0, 0, time.FixedZone("MSK", 3*60*60)),
	}

	name := gcs.ReportObjectName("reports", report, types.ReportFormatPDF)
	gt.Value(t, name).Equal("reports/2026/02/03/0190a8f2-7c1e-7000-8000-000000000001.pdf")

	name = gcs.ReportObjectName("reports", report, types.ReportFormatText)
	gt.Value(t, name).Equal("reports/2026/02/03/0190a8f2-7c1e-7000-8000-000000000001.txt")
}
