package gcs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"cloud.google.com/go/storage"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/risktree/pkg/domain/interfaces"
	"github.com/secmon-lab/risktree/pkg/domain/model"
	"github.com/secmon-lab/risktree/pkg/repository/snapshot"
	"github.com/secmon-lab/risktree/pkg/utils/logging"
	"github.com/secmon-lab/risktree/pkg/utils/safe"
)

// DefaultObject is the object name used when none is configured
const DefaultObject = "risktree/nodes.json"

// GCS stores the snapshot file as a Cloud Storage object. Object writes
// are atomic, so readers see either the old or the new snapshot.
type GCS struct {
	client *storage.Client
	bucket string
	object string
}

var _ interfaces.NodeRepository = &GCS{}

func New(ctx context.Context, bucket, object string) (*GCS, error) {
	if bucket == "" {
		return nil, goerr.New("GCS bucket is required")
	}
	if object == "" {
		object = DefaultObject
	}

	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create storage client")
	}

	return &GCS{
		client: client,
		bucket: bucket,
		object: object,
	}, nil
}

func (g *GCS) handle() *storage.ObjectHandle {
	return g.client.Bucket(g.bucket).Object(g.object)
}

func (g *GCS) Load(ctx context.Context) ([]*model.RiskNode, error) {
	r, err := g.handle().NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, nil
		}
		return nil, goerr.Wrap(err, "failed to open snapshot object",
			goerr.V("bucket", g.bucket), goerr.V("object", g.object))
	}
	defer safe.Close(ctx, "snapshot object reader", r)

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read snapshot object",
			goerr.V("bucket", g.bucket), goerr.V("object", g.object))
	}

	nodes, err := snapshot.Decode(data)
	if err != nil {
		quarantine := fmt.Sprintf("%s.corrupt-%d", g.object, time.Now().Unix())
		dst := g.client.Bucket(g.bucket).Object(quarantine)
		if _, copyErr := dst.CopierFrom(g.handle()).Run(ctx); copyErr != nil {
			return nil, goerr.Wrap(copyErr, "failed to copy malformed snapshot aside",
				goerr.V("bucket", g.bucket), goerr.V("object", g.object), goerr.V("parse_error", err.Error()))
		}
		logging.From(ctx).Warn("malformed snapshot object copied aside, starting empty",
			"bucket", g.bucket,
			"object", g.object,
			"copied_to", quarantine,
			"error", err.Error(),
		)
		return nil, nil
	}
	return nodes, nil
}

func (g *GCS) Save(ctx context.Context, nodes []*model.RiskNode) error {
	data, err := snapshot.Encode(nodes)
	if err != nil {
		return err
	}

	w := g.handle().NewWriter(ctx)
	w.ContentType = "application/json"
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return goerr.Wrap(err, "failed to write snapshot object",
			goerr.V("bucket", g.bucket), goerr.V("object", g.object))
	}
	if err := w.Close(); err != nil {
		return goerr.Wrap(err, "failed to finalize snapshot object",
			goerr.V("bucket", g.bucket), goerr.V("object", g.object))
	}
	return nil
}

func (g *GCS) Close() error {
	return g.client.Close()
}
