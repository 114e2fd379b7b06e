package usecase_test

import (
	"context"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/risktree/pkg/domain/model"
	"github.com/secmon-lab/risktree/pkg/domain/types"
	"github.com/secmon-lab/risktree/pkg/repository/memory"
	"github.com/secmon-lab/risktree/pkg/usecase"
)

type stubRenderer struct {
	format types.ReportFormat
	err    error
}

func (r *stubRenderer) Format() types.ReportFormat { return r.format }

func (r *stubRenderer) Render(_ context.Context, w io.Writer, report *model.Report) error {
	if r.err != nil {
		return r.err
	}
	_, err := fmt.Fprintf(w, "%s cities=%d tables=%d", report.Title, len(report.Cities), len(report.Tables))
	return err
}

type stubPublisher struct {
	location string
	err      error
	calls    int
	mu       sync.Mutex
}

func (p *stubPublisher) Publish(_ context.Context, _ *model.Report, _ types.ReportFormat, _ []byte) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	return p.location, p.err
}

type stubNotifier struct {
	locations []string
	err       error
}

func (n *stubNotifier) NotifyReport(_ context.Context, _ *model.Report, location string) error {
	n.locations = append(n.locations, location)
	return n.err
}

// newReportFixture builds root -> {г.Москва -> {s1, s2}, г.Казань (no stores), Склад}
func newReportFixture(t *testing.T, opts ...usecase.Option) *usecase.UseCases {
	t.Helper()
	ctx := context.Background()
	uc := usecase.New(memory.New(), opts...)

	msk := mustAdd(t, uc.Node, types.RootNodeID, "г.Москва")
	s1 := mustAdd(t, uc.Node, msk, "Магазин А")
	s2 := mustAdd(t, uc.Node, msk, "Магазин Б")
	mustAdd(t, uc.Node, types.RootNodeID, "г.Казань")
	mustAdd(t, uc.Node, types.RootNodeID, "Склад")

	gt.NoError(t, uc.Node.UpdateLeafRisk(ctx, s1, model.RiskInput{Prob: 0.9, LossMin: 10, LossMax: 20, Severity: 5})).Required()
	gt.NoError(t, uc.Node.UpdateLeafRisk(ctx, s2, model.RiskInput{Prob: 0.2, LossMin: 30, LossMax: 40, Severity: 2})).Required()
	return uc
}

func TestReportUseCase_Build(t *testing.T) {
	ctx := context.Background()
	uc := newReportFixture(t)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	usecase.SetReportClock(uc.Report, func() time.Time { return now })

	t.Run("groups stores under cities", func(t *testing.T) {
		report, err := uc.Report.Build(ctx, types.SortKeyName, types.SortOrderAsc)
		gt.NoError(t, err).Required()

		gt.Value(t, report.GeneratedAt).Equal(now)
		gt.A(t, report.Cities).Length(2)
		gt.Value(t, report.Cities[0].Name).Equal("г.Казань")
		gt.Value(t, report.Cities[1].Name).Equal("г.Москва")

		// Казань has no stores and gets no table
		gt.A(t, report.Tables).Length(1)
		gt.Value(t, report.Tables[0].City.Name).Equal("г.Москва")
		gt.A(t, report.Tables[0].Rows).Length(2)
		gt.Value(t, report.Tables[0].Rows[0].Name).Equal("Магазин А")
	})

	t.Run("orders rows by risk score descending by default", func(t *testing.T) {
		report, err := uc.Report.Build(ctx, "", "")
		gt.NoError(t, err).Required()
		gt.Value(t, report.SortKey).Equal(types.SortKeyRiskScore)
		gt.Value(t, report.Order).Equal(types.SortOrderDesc)

		rows := report.Tables[0].Rows
		gt.Value(t, rows[0].Name).Equal("Магазин А")
		gt.Bool(t, approx(rows[0].RiskScore, 4.5)).True()
		gt.Value(t, rows[0].Band).Equal(types.RiskBandHigh)
		gt.Bool(t, approx(rows[1].RiskScore, 0.4)).True()
		gt.Value(t, rows[1].Band).Equal(types.RiskBandNone)
	})

	t.Run("totals cover leaves only", func(t *testing.T) {
		report, err := uc.Report.Build(ctx, types.SortKeyExpectedMax, types.SortOrderAsc)
		gt.NoError(t, err).Required()
		gt.Bool(t, approx(report.Totals.ExpectedMin, 0.9*10+0.2*30)).True()
		gt.Bool(t, approx(report.Totals.ExpectedMax, 0.9*20+0.2*40)).True()
		gt.Value(t, report.Totals.Leaves).Equal(4)
	})

	t.Run("rejects unknown sort key", func(t *testing.T) {
		_, err := uc.Report.Build(ctx, "color", types.SortOrderAsc)
		gt.Error(t, err).Is(usecase.ErrValidation)
	})
}

func TestReportUseCase_Generate(t *testing.T) {
	ctx := context.Background()

	t.Run("renders without publishing", func(t *testing.T) {
		publisher := &stubPublisher{location: "gs://bucket/report.pdf"}
		uc := newReportFixture(t,
			usecase.WithRenderer(&stubRenderer{format: types.ReportFormatPDF}),
			usecase.WithPublisher(publisher),
		)

		result, err := uc.Report.Generate(ctx, usecase.ReportRequest{Format: types.ReportFormatPDF})
		gt.NoError(t, err).Required()
		gt.Value(t, result.Format).Equal(types.ReportFormatPDF)
		gt.S(t, string(result.Data)).Contains("cities=2 tables=1")
		gt.A(t, result.Locations).Length(0)
		gt.Value(t, publisher.calls).Equal(0)
	})

	t.Run("publishes to every publisher and notifies", func(t *testing.T) {
		p1 := &stubPublisher{location: "gs://bucket/report.txt"}
		p2 := &stubPublisher{}
		notifier := &stubNotifier{}
		uc := newReportFixture(t,
			usecase.WithRenderer(&stubRenderer{format: types.ReportFormatText}),
			usecase.WithPublisher(p1),
			usecase.WithPublisher(p2),
			usecase.WithNotifier(notifier),
		)

		result, err := uc.Report.Generate(ctx, usecase.ReportRequest{Format: types.ReportFormatText, Publish: true})
		gt.NoError(t, err).Required()
		gt.Value(t, result.Locations).Equal([]string{"gs://bucket/report.txt"})
		gt.Value(t, p1.calls).Equal(1)
		gt.Value(t, p2.calls).Equal(1)
		gt.Value(t, notifier.locations).Equal([]string{"gs://bucket/report.txt"})
	})

	t.Run("render failure leaves the tree untouched", func(t *testing.T) {
		uc := newReportFixture(t,
			usecase.WithRenderer(&stubRenderer{format: types.ReportFormatPDF, err: goerr.New("font missing")}),
		)
		before, err := uc.Node.List(ctx)
		gt.NoError(t, err).Required()

		_, err = uc.Report.Generate(ctx, usecase.ReportRequest{Format: types.ReportFormatPDF})
		gt.Error(t, err).Is(usecase.ErrReportGeneration)

		after, err := uc.Node.List(ctx)
		gt.NoError(t, err).Required()
		gt.Value(t, after).Equal(before)
	})

	t.Run("publish failure is a report error", func(t *testing.T) {
		notifier := &stubNotifier{}
		uc := newReportFixture(t,
			usecase.WithRenderer(&stubRenderer{format: types.ReportFormatPDF}),
			usecase.WithPublisher(&stubPublisher{err: goerr.New("bucket not found")}),
			usecase.WithNotifier(notifier),
		)

		_, err := uc.Report.Generate(ctx, usecase.ReportRequest{Publish: true})
		gt.Error(t, err).Is(usecase.ErrReportGeneration)
		gt.A(t, notifier.locations).Length(0)
	})

	t.Run("format without renderer", func(t *testing.T) {
		uc := newReportFixture(t)
		_, err := uc.Report.Generate(ctx, usecase.ReportRequest{Format: types.ReportFormatText})
		gt.Error(t, err).Is(usecase.ErrReportGeneration)
	})

	t.Run("unknown format", func(t *testing.T) {
		uc := newReportFixture(t)
		_, err := uc.Report.Generate(ctx, usecase.ReportRequest{Format: "docx"})
		gt.Error(t, err).Is(usecase.ErrValidation)
	})
}
