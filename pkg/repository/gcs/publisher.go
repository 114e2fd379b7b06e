package gcs

import (
	"context"
	"fmt"
	"path"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/risktree/pkg/domain/interfaces"
	"github.com/secmon-lab/risktree/pkg/domain/model"
	"github.com/secmon-lab/risktree/pkg/domain/types"
	"github.com/secmon-lab/risktree/pkg/utils/logging"
)

// DefaultReportPrefix is the object prefix for uploaded reports
const DefaultReportPrefix = "risktree/reports"

// Publisher uploads rendered reports to a bucket
type Publisher struct {
	client *storage.Client
	bucket string
	prefix string
}

var _ interfaces.ReportPublisher = &Publisher{}

func NewPublisher(ctx context.Context, bucket, prefix string) (*Publisher, error) {
	if bucket == "" {
		return nil, goerr.New("GCS bucket is required")
	}
	if prefix == "" {
		prefix = DefaultReportPrefix
	}

	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create storage client")
	}

	return &Publisher{
		client: client,
		bucket: bucket,
		prefix: strings.Trim(prefix, "/"),
	}, nil
}

// ReportObjectName returns the object a report is stored as:
// <prefix>/<YYYY/MM/DD>/<report id>.<ext>
func ReportObjectName(prefix string, report *model.Report, format types.ReportFormat) string {
	name := string(report.ID) + format.Extension()
	return path.Join(prefix, report.GeneratedAt.UTC().Format("2006/01/02"), name)
}

func (p *Publisher) Publish(ctx context.Context, report *model.Report, format types.ReportFormat, data []byte) (string, error) {
	object := ReportObjectName(p.prefix, report, format)

	w := p.client.Bucket(p.bucket).Object(object).NewWriter(ctx)
	w.ContentType = format.ContentType()
	w.Metadata = map[string]string{
		"report_id": string(report.ID),
		"sort_key":  string(report.SortKey),
		"order":     string(report.Order),
	}
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return "", goerr.Wrap(err, "failed to upload report",
			goerr.V("bucket", p.bucket), goerr.V("object", object))
	}
	if err := w.Close(); err != nil {
		return "", goerr.Wrap(err, "failed to finalize report upload",
			goerr.V("bucket", p.bucket), goerr.V("object", object))
	}

	location := fmt.Sprintf("gs://%s/%s", p.bucket, object)
	logging.From(ctx).Info("report uploaded", "location", location, "bytes", len(data))
	return location, nil
}

func (p *Publisher) Close() error {
	return p.client.Close()
}
