package interfaces

import (
	"context"
	"io"

	"github.com/secmon-lab/risktree/pkg/domain/model"
	"github.com/secmon-lab/risktree/pkg/domain/types"
)

// ReportRenderer renders a report document
type ReportRenderer interface {
	Format() types.ReportFormat
	Render(ctx context.Context, w io.Writer, report *model.Report) error
}

// ReportPublisher stores a rendered report somewhere shareable and returns
// its location
type ReportPublisher interface {
	Publish(ctx context.Context, report *model.Report, format types.ReportFormat, data []byte) (string, error)
}

// Notifier announces a generated report
type Notifier interface {
	NotifyReport(ctx context.Context, report *model.Report, location string) error
}
