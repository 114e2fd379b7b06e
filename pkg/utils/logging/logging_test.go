package logging_test

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/risktree/pkg/utils/logging"
)

func TestFromFallsBackToDefault(t *testing.T) {
	var buf bytes.Buffer
	orig := logging.Default()
	t.Cleanup(func() { logging.SetDefault(orig) })

	logging.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))
	logging.From(context.Background()).Info("hello")
	gt.S(t, buf.String()).Contains("hello")
}

func TestWithStoresLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	ctx := logging.With(context.Background(), logger)

	logging.From(ctx).Info("scoped", "node_id", 3)
	gt.S(t, buf.String()).Contains("scoped")
	gt.S(t, buf.String()).Contains("node_id=3")
}
