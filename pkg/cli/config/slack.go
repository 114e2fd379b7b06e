package config

import (
	"log/slog"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/risktree/pkg/service/slack"
	"github.com/urfave/cli/v3"
)

// Slack holds CLI flags for report notifications
type Slack struct {
	botToken  string `masq:"secret"`
	channelID string
	topCities int
}

func (x *Slack) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "slack-bot-token",
			Usage:       "Slack Bot User OAuth Token (for posting report summaries)",
			Category:    "Slack",
			Destination: &x.botToken,
			Sources:     cli.EnvVars("RISKTREE_SLACK_BOT_TOKEN"),
		},
		&cli.StringFlag{
			Name:        "slack-channel-id",
			Usage:       "Slack channel ID receiving report summaries",
			Category:    "Slack",
			Destination: &x.channelID,
			Sources:     cli.EnvVars("RISKTREE_SLACK_CHANNEL_ID"),
		},
		&cli.IntFlag{
			Name:        "slack-top-cities",
			Usage:       "Number of cities listed in a report summary",
			Category:    "Slack",
			Value:       slack.DefaultTopCities,
			Destination: &x.topCities,
			Sources:     cli.EnvVars("RISKTREE_SLACK_TOP_CITIES"),
		},
	}
}

func (x Slack) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("bot-token.len", len(x.botToken)),
		slog.String("channel-id", x.channelID),
	)
}

// IsConfigured checks if both token and channel are set
func (x *Slack) IsConfigured() bool {
	return x.botToken != "" && x.channelID != ""
}

// Configure creates a notifier. It returns nil when Slack is not
// configured and an error when only one of token and channel is set.
func (x *Slack) Configure() (*slack.Notifier, error) {
	if x.botToken == "" && x.channelID == "" {
		return nil, nil
	}
	if !x.IsConfigured() {
		return nil, goerr.Wrap(ErrMissingParam, "both --slack-bot-token and --slack-channel-id are required")
	}

	notifier, err := slack.New(x.botToken, x.channelID, slack.WithTopCities(x.topCities))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to initialize slack notifier")
	}
	return notifier, nil
}
