package slack

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/risktree/pkg/domain/interfaces"
	"github.com/secmon-lab/risktree/pkg/domain/model"
	"github.com/secmon-lab/risktree/pkg/utils/logging"
	"github.com/slack-go/slack"
)

// DefaultTopCities is how many cities a report summary lists
const DefaultTopCities = 5

// Notifier posts report summaries to a Slack channel
type Notifier struct {
	api       *slack.Client
	channelID string
	topCities int
}

var _ interfaces.Notifier = &Notifier{}

// Option is a functional option for Notifier configuration
type Option func(*notifierConfig)

type notifierConfig struct {
	apiURL    string
	topCities int
}

// WithAPIURL overrides the Slack API endpoint
func WithAPIURL(url string) Option {
	return func(c *notifierConfig) {
		c.apiURL = url
	}
}

// WithTopCities sets how many cities the summary lists
func WithTopCities(n int) Option {
	return func(c *notifierConfig) {
		c.topCities = n
	}
}

// New creates a notifier with the provided bot token and channel
func New(token, channelID string, opts ...Option) (*Notifier, error) {
	if token == "" {
		return nil, goerr.New("Slack bot token is required")
	}
	if channelID == "" {
		return nil, goerr.New("Slack channel ID is required")
	}

	cfg := &notifierConfig{topCities: DefaultTopCities}
	for _, opt := range opts {
		opt(cfg)
	}

	var apiOpts []slack.Option
	if cfg.apiURL != "" {
		apiOpts = append(apiOpts, slack.OptionAPIURL(cfg.apiURL))
	}

	return &Notifier{
		api:       slack.New(token, apiOpts...),
		channelID: channelID,
		topCities: cfg.topCities,
	}, nil
}

// NotifyReport posts a summary of report with a link to location
func (n *Notifier) NotifyReport(ctx context.Context, report *model.Report, location string) error {
	blocks := BuildReportBlocks(report, location, n.topCities)
	text := ReportFallbackText(report)

	_, ts, err := n.api.PostMessageContext(ctx, n.channelID,
		slack.MsgOptionBlocks(blocks...),
		slack.MsgOptionText(text, false),
	)
	if err != nil {
		return goerr.Wrap(err, "failed to post report summary",
			goerr.V("channel_id", n.channelID),
			goerr.V("report_id", string(report.ID)))
	}

	logging.From(ctx).Info("report summary posted to Slack",
		"channel_id", n.channelID,
		"report_id", string(report.ID),
		"ts", ts,
	)
	return nil
}
