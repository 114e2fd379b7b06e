package cli

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/risktree/pkg/cli/config"
	domainConfig "github.com/secmon-lab/risktree/pkg/domain/model/config"
	"github.com/secmon-lab/risktree/pkg/usecase"
	"github.com/secmon-lab/risktree/pkg/utils/errutil"
	"github.com/secmon-lab/risktree/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

// treeEnv bundles the flag groups every tree command shares
type treeEnv struct {
	appCfg    config.AppConfig
	repoCfg   config.Repository
	reportCfg config.Report
	slackCfg  config.Slack

	report domainConfig.ReportConfig
}

func (e *treeEnv) Flags() []cli.Flag {
	var flags []cli.Flag
	flags = append(flags, e.appCfg.Flags()...)
	flags = append(flags, e.repoCfg.Flags()...)
	flags = append(flags, e.reportCfg.Flags()...)
	flags = append(flags, e.slackCfg.Flags()...)
	return flags
}

// Open builds the use cases over the configured repository and loads the
// tree. The returned function releases the repository and publisher.
func (e *treeEnv) Open(ctx context.Context, opts ...usecase.Option) (*usecase.UseCases, func(), error) {
	org, reportCfg, err := e.appCfg.Configure()
	if err != nil {
		return nil, nil, goerr.Wrap(err, "failed to load configuration")
	}
	e.report = e.reportCfg.Apply(reportCfg)

	notifier, err := e.slackCfg.Configure()
	if err != nil {
		return nil, nil, err
	}

	repo, err := e.repoCfg.Configure(ctx)
	if err != nil {
		return nil, nil, goerr.Wrap(err, "failed to initialize repository")
	}
	closers := []func(){func() {
		if err := repo.Close(); err != nil {
			errutil.Handle(ctx, err, "failed to close repository")
		}
	}}
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	ucOpts := []usecase.Option{
		usecase.WithOrganization(org),
		usecase.WithReportConfig(e.report),
	}
	for _, r := range e.reportCfg.Renderers(e.report) {
		ucOpts = append(ucOpts, usecase.WithRenderer(r))
	}

	publisher, err := e.reportCfg.Publisher(ctx)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	if publisher != nil {
		ucOpts = append(ucOpts, usecase.WithPublisher(publisher))
		closers = append(closers, func() {
			if err := publisher.Close(); err != nil {
				errutil.Handle(ctx, err, "failed to close report publisher")
			}
		})
	}
	if notifier != nil {
		ucOpts = append(ucOpts, usecase.WithNotifier(notifier))
	}
	ucOpts = append(ucOpts, opts...)

	uc := usecase.New(repo, ucOpts...)
	if err := uc.Node.Load(ctx); err != nil {
		cleanup()
		return nil, nil, err
	}

	logging.From(ctx).Debug("tree opened", "repository", e.repoCfg, "report", e.reportCfg)
	return uc, cleanup, nil
}

// Bands returns the configured colour thresholds; valid after Open
func (e *treeEnv) Bands() domainConfig.RiskBands {
	if e.report.Bands == (domainConfig.RiskBands{}) {
		return domainConfig.DefaultRiskBands()
	}
	return e.report.Bands
}
