package usecase

import (
	"bytes"
	"context"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/risktree/pkg/domain/interfaces"
	"github.com/secmon-lab/risktree/pkg/domain/model"
	"github.com/secmon-lab/risktree/pkg/domain/model/config"
	"github.com/secmon-lab/risktree/pkg/domain/types"
	"github.com/secmon-lab/risktree/pkg/utils/logging"
	"golang.org/x/sync/errgroup"
)

// ReportRequest selects the ordering and format of a report
type ReportRequest struct {
	SortKey types.SortKey
	Order   types.SortOrder
	Format  types.ReportFormat
	// Publish uploads the rendered document and sends notifications
	Publish bool
}

// ReportResult is a rendered report
type ReportResult struct {
	Report    *model.Report
	Format    types.ReportFormat
	Data      []byte
	Locations []string
}

type ReportUseCase struct {
	nodes      *NodeUseCase
	org        config.OrganizationConfig
	cfg        config.ReportConfig
	renderers  map[types.ReportFormat]interfaces.ReportRenderer
	publishers []interfaces.ReportPublisher
	notifier   interfaces.Notifier
	now        func() time.Time
}

func NewReportUseCase(nodes *NodeUseCase, org config.OrganizationConfig, cfg config.ReportConfig, renderers []interfaces.ReportRenderer, publishers []interfaces.ReportPublisher, notifier interfaces.Notifier) *ReportUseCase {
	if cfg.Title == "" {
		cfg.Title = config.DefaultReportTitle
	}
	if cfg.Bands == (config.RiskBands{}) {
		cfg.Bands = config.DefaultRiskBands()
	}
	if org.CityMarker == "" {
		org.CityMarker = config.DefaultCityMarker
	}

	byFormat := make(map[types.ReportFormat]interfaces.ReportRenderer, len(renderers))
	for _, r := range renderers {
		byFormat[r.Format()] = r
	}

	return &ReportUseCase{
		nodes:      nodes,
		org:        org,
		cfg:        cfg,
		renderers:  byFormat,
		publishers: publishers,
		notifier:   notifier,
		now:        time.Now,
	}
}

// Bands returns the risk score thresholds used for colouring
func (uc *ReportUseCase) Bands() config.RiskBands {
	return uc.cfg.Bands
}

// Build takes a snapshot of the tree and arranges it into city tables
// ordered by key and order.
func (uc *ReportUseCase) Build(ctx context.Context, key types.SortKey, order types.SortOrder) (*model.Report, error) {
	if !key.Normalize().IsValid() {
		return nil, goerr.Wrap(ErrValidation, "invalid sort key", goerr.V("sort_key", string(key)))
	}
	if !order.Normalize().IsValid() {
		return nil, goerr.Wrap(ErrValidation, "invalid sort order", goerr.V("order", string(order)))
	}

	tree, err := uc.nodes.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	return model.BuildReport(tree.PreOrder(), tree.Totals(), model.ReportOptions{
		Title:      uc.cfg.Title,
		SortKey:    key,
		Order:      order,
		CityMarker: uc.org.CityMarker,
		Bands:      uc.cfg.Bands,
		Now:        uc.now(),
	}), nil
}

// Generate builds and renders a report. With Publish set the document is
// handed to every publisher concurrently and the notifier is told where it
// went. Nothing here touches the tree.
func (uc *ReportUseCase) Generate(ctx context.Context, req ReportRequest) (*ReportResult, error) {
	format, err := types.ParseReportFormat(string(req.Format))
	if err != nil {
		return nil, goerr.Wrap(ErrValidation, "invalid report format", goerr.V(FormatKey, string(req.Format)))
	}
	renderer, ok := uc.renderers[format]
	if !ok {
		return nil, goerr.Wrap(ErrReportGeneration, "no renderer for report format", goerr.V(FormatKey, string(format)))
	}

	report, err := uc.Build(ctx, req.SortKey, req.Order)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := renderer.Render(ctx, &buf, report); err != nil {
		return nil, goerr.Wrap(ErrReportGeneration, "failed to render report",
			goerr.V(FormatKey, string(format)),
			goerr.V("error", err.Error()))
	}

	result := &ReportResult{
		Report: report,
		Format: format,
		Data:   buf.Bytes(),
	}

	logging.From(ctx).Info("report rendered",
		"report_id", string(report.ID),
		FormatKey, string(format),
		"sort_key", string(report.SortKey),
		"order", string(report.Order),
		"bytes", len(result.Data),
	)

	if !req.Publish {
		return result, nil
	}

	locations, err := uc.publish(ctx, report, format, result.Data)
	if err != nil {
		return nil, err
	}
	result.Locations = locations

	if uc.notifier != nil {
		location := ""
		if len(locations) > 0 {
			location = locations[0]
		}
		if err := uc.notifier.NotifyReport(ctx, report, location); err != nil {
			return nil, goerr.Wrap(ErrReportGeneration, "failed to notify report",
				goerr.V("report_id", string(report.ID)),
				goerr.V("error", err.Error()))
		}
	}

	return result, nil
}

func (uc *ReportUseCase) publish(ctx context.Context, report *model.Report, format types.ReportFormat, data []byte) ([]string, error) {
	locations := make([]string, len(uc.publishers))

	eg, ctx := errgroup.WithContext(ctx)
	for i, p := range uc.publishers {
		eg.Go(func() error {
			location, err := p.Publish(ctx, report, format, data)
			if err != nil {
				return err
			}
			locations[i] = location
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, goerr.Wrap(ErrReportGeneration, "failed to publish report",
			goerr.V("report_id", string(report.ID)),
			goerr.V("error", err.Error()))
	}

	published := locations[:0]
	for _, loc := range locations {
		if loc != "" {
			published = append(published, loc)
		}
	}
	return published, nil
}
