package usecase

import (
	"github.com/secmon-lab/risktree/pkg/domain/interfaces"
	"github.com/secmon-lab/risktree/pkg/domain/model/config"
)

type UseCases struct {
	repo       interfaces.NodeRepository
	org        config.OrganizationConfig
	reportCfg  config.ReportConfig
	metrics    interfaces.MetricsRecorder
	renderers  []interfaces.ReportRenderer
	publishers []interfaces.ReportPublisher
	notifier   interfaces.Notifier

	Node   *NodeUseCase
	Report *ReportUseCase
}

type Option func(*UseCases)

func WithOrganization(cfg config.OrganizationConfig) Option {
	return func(uc *UseCases) {
		uc.org = cfg
	}
}

func WithReportConfig(cfg config.ReportConfig) Option {
	return func(uc *UseCases) {
		uc.reportCfg = cfg
	}
}

func WithMetrics(metrics interfaces.MetricsRecorder) Option {
	return func(uc *UseCases) {
		uc.metrics = metrics
	}
}

func WithRenderer(renderer interfaces.ReportRenderer) Option {
	return func(uc *UseCases) {
		uc.renderers = append(uc.renderers, renderer)
	}
}

func WithPublisher(publisher interfaces.ReportPublisher) Option {
	return func(uc *UseCases) {
		uc.publishers = append(uc.publishers, publisher)
	}
}

func WithNotifier(notifier interfaces.Notifier) Option {
	return func(uc *UseCases) {
		uc.notifier = notifier
	}
}

func New(repo interfaces.NodeRepository, opts ...Option) *UseCases {
	uc := &UseCases{
		repo:      repo,
		org:       config.DefaultOrganization(),
		reportCfg: config.DefaultReport(),
	}

	for _, opt := range opts {
		opt(uc)
	}

	uc.Node = NewNodeUseCase(repo, uc.org, uc.metrics)
	uc.Report = NewReportUseCase(uc.Node, uc.org, uc.reportCfg, uc.renderers, uc.publishers, uc.notifier)

	return uc
}
