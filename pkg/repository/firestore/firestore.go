package firestore

import (
	"context"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/risktree/pkg/domain/interfaces"
	"github.com/secmon-lab/risktree/pkg/domain/model"
)

// NodeCollection is the collection holding one document per node
const NodeCollection = "risk_nodes"

type Firestore struct {
	client *firestore.Client
	node   *nodeRepository
}

var _ interfaces.NodeRepository = &Firestore{}

type Option func(*Firestore)

func WithCollectionPrefix(prefix string) Option {
	return func(f *Firestore) {
		f.node.collectionPrefix = prefix
	}
}

func New(ctx context.Context, projectID, databaseID string, opts ...Option) (*Firestore, error) {
	if databaseID == "" {
		databaseID = firestore.DefaultDatabaseID
	}

	client, err := firestore.NewClientWithDatabase(ctx, projectID, databaseID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create firestore client",
			goerr.V("projectID", projectID),
			goerr.V("databaseID", databaseID),
		)
	}

	f := &Firestore{
		client: client,
		node:   newNodeRepository(client),
	}

	for _, opt := range opts {
		opt(f)
	}

	return f, nil
}

func (f *Firestore) Load(ctx context.Context) ([]*model.RiskNode, error) {
	return f.node.Load(ctx)
}

func (f *Firestore) Save(ctx context.Context, nodes []*model.RiskNode) error {
	return f.node.Save(ctx, nodes)
}

func (f *Firestore) Close() error {
	if f.client != nil {
		return f.client.Close()
	}
	return nil
}
