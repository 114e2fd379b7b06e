package config

import (
	"context"
	"log/slog"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/risktree/pkg/domain/interfaces"
	domainConfig "github.com/secmon-lab/risktree/pkg/domain/model/config"
	"github.com/secmon-lab/risktree/pkg/repository/gcs"
	"github.com/secmon-lab/risktree/pkg/service/report"
	"github.com/urfave/cli/v3"
)

// Report holds CLI flags for report rendering and publishing. Flags take
// precedence over the [report] section of the config file.
type Report struct {
	font       string
	fontBold   string
	gcsBucket  string
	gcsPrefix  string
	forceColor bool
}

func (x *Report) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "report-font",
			Usage:       "UTF-8 TrueType font for PDF reports (default: embedded DejaVu Sans Condensed)",
			Category:    "Report",
			Destination: &x.font,
			Sources:     cli.EnvVars("RISKTREE_REPORT_FONT"),
		},
		&cli.StringFlag{
			Name:        "report-font-bold",
			Usage:       "Bold TrueType font for PDF reports",
			Category:    "Report",
			Destination: &x.fontBold,
			Sources:     cli.EnvVars("RISKTREE_REPORT_FONT_BOLD"),
		},
		&cli.StringFlag{
			Name:        "report-gcs-bucket",
			Usage:       "Cloud Storage bucket receiving published reports",
			Category:    "Report",
			Destination: &x.gcsBucket,
			Sources:     cli.EnvVars("RISKTREE_REPORT_GCS_BUCKET"),
		},
		&cli.StringFlag{
			Name:        "report-gcs-prefix",
			Usage:       "Object name prefix for published reports",
			Category:    "Report",
			Value:       gcs.DefaultReportPrefix,
			Destination: &x.gcsPrefix,
			Sources:     cli.EnvVars("RISKTREE_REPORT_GCS_PREFIX"),
		},
		&cli.BoolFlag{
			Name:        "color",
			Usage:       "Force coloured terminal output",
			Category:    "Report",
			Destination: &x.forceColor,
			Sources:     cli.EnvVars("RISKTREE_COLOR"),
		},
	}
}

func (x Report) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("font", x.font),
		slog.String("gcs_bucket", x.gcsBucket),
	)
}

// Apply overlays flag values onto cfg
func (x *Report) Apply(cfg domainConfig.ReportConfig) domainConfig.ReportConfig {
	if x.font != "" {
		cfg.Font = x.font
		cfg.FontBold = x.fontBold
	}
	return cfg
}

// Renderers returns the PDF and text renderers for cfg
func (x *Report) Renderers(cfg domainConfig.ReportConfig) []interfaces.ReportRenderer {
	var pdfOpts []report.PDFOption
	if cfg.Font != "" {
		pdfOpts = append(pdfOpts, report.WithFont(cfg.Font, cfg.FontBold))
	}

	var textOpts []report.TextOption
	if x.forceColor {
		textOpts = append(textOpts, report.WithColor(true))
	}

	return []interfaces.ReportRenderer{
		report.NewPDF(pdfOpts...),
		report.NewText(textOpts...),
	}
}

// ForceColor reports whether --color was given
func (x *Report) ForceColor() bool {
	return x.forceColor
}

// Publisher creates the Cloud Storage publisher, or returns nil when no
// bucket is configured. The caller closes it.
func (x *Report) Publisher(ctx context.Context) (*gcs.Publisher, error) {
	if x.gcsBucket == "" {
		return nil, nil
	}
	p, err := gcs.NewPublisher(ctx, x.gcsBucket, x.gcsPrefix)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to initialize report publisher", goerr.V("bucket", x.gcsBucket))
	}
	return p, nil
}
