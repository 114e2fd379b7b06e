package firestore

import (
	"context"
	"strconv"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/risktree/pkg/domain/model"
	"github.com/secmon-lab/risktree/pkg/repository/snapshot"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type nodeDocument struct {
	ID       int64    `firestore:"id"`
	Name     string   `firestore:"name"`
	Prob     *float64 `firestore:"prob"`
	LossMin  *float64 `firestore:"loss_min"`
	LossMax  *float64 `firestore:"loss_max"`
	Severity *float64 `firestore:"severity"`
	ParentID *int64   `firestore:"parent_id"`
	Children []int64  `firestore:"children"`
}

type nodeRepository struct {
	client           *firestore.Client
	collectionPrefix string
}

func newNodeRepository(client *firestore.Client) *nodeRepository {
	return &nodeRepository{
		client:           client,
		collectionPrefix: "",
	}
}

func (r *nodeRepository) nodesCollection() string {
	if r.collectionPrefix != "" {
		return r.collectionPrefix + "_" + NodeCollection
	}
	return NodeCollection
}

// Load reads nodes grouped by parent. The query needs the (parent_id, id)
// composite index created by the migrate command.
func (r *nodeRepository) Load(ctx context.Context) ([]*model.RiskNode, error) {
	iter := r.client.Collection(r.nodesCollection()).
		OrderBy("parent_id", firestore.Asc).
		OrderBy("id", firestore.Asc).
		Documents(ctx)
	defer iter.Stop()

	var nodes []*model.RiskNode
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate nodes",
				goerr.V("code", status.Code(err).String()))
		}

		var nodeDoc nodeDocument
		if err := doc.DataTo(&nodeDoc); err != nil {
			return nil, goerr.Wrap(err, "failed to unmarshal node", goerr.V("doc_id", doc.Ref.ID))
		}

		nodes = append(nodes, snapshot.FromDocument(nodeDoc.ID, nodeDoc.Name,
			nodeDoc.Prob, nodeDoc.LossMin, nodeDoc.LossMax, nodeDoc.Severity,
			nodeDoc.ParentID, nodeDoc.Children))
	}

	return nodes, nil
}

// Save writes every node and deletes documents of nodes no longer present.
func (r *nodeRepository) Save(ctx context.Context, nodes []*model.RiskNode) error {
	col := r.client.Collection(r.nodesCollection())

	existing, err := col.DocumentRefs(ctx).GetAll()
	if err != nil {
		return goerr.Wrap(err, "failed to list node documents")
	}

	keep := make(map[string]bool, len(nodes))
	bw := r.client.BulkWriter(ctx)
	var jobs, deletions []*firestore.BulkWriterJob

	for _, n := range nodes {
		docID := strconv.FormatInt(int64(n.ID), 10)
		keep[docID] = true

		job, err := bw.Set(col.Doc(docID), toDocument(n))
		if err != nil {
			bw.End()
			return goerr.Wrap(err, "failed to enqueue node", goerr.V("node_id", int64(n.ID)))
		}
		jobs = append(jobs, job)
	}

	for _, ref := range existing {
		if keep[ref.ID] {
			continue
		}
		job, err := bw.Delete(ref)
		if err != nil {
			bw.End()
			return goerr.Wrap(err, "failed to enqueue node deletion", goerr.V("doc_id", ref.ID))
		}
		deletions = append(deletions, job)
	}

	bw.End()

	for _, job := range jobs {
		if _, err := job.Results(); err != nil {
			return goerr.Wrap(err, "failed to write node snapshot",
				goerr.V("code", status.Code(err).String()))
		}
	}
	// a document removed concurrently is already in the desired state
	for _, job := range deletions {
		if _, err := job.Results(); err != nil && status.Code(err) != codes.NotFound {
			return goerr.Wrap(err, "failed to delete stale node",
				goerr.V("code", status.Code(err).String()))
		}
	}
	return nil
}

func toDocument(n *model.RiskNode) *nodeDocument {
	prob, lossMin, lossMax, severity := n.Prob, n.LossMin, n.LossMax, n.Severity
	doc := &nodeDocument{
		ID:       int64(n.ID),
		Name:     n.Name,
		Prob:     &prob,
		LossMin:  &lossMin,
		LossMax:  &lossMax,
		Severity: &severity,
		Children: snapshot.ChildIDs(n),
	}
	if n.HasParent() {
		parent := int64(n.ParentID)
		doc.ParentID = &parent
	}
	return doc
}
