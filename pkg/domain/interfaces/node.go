package interfaces

import (
	"context"

	"github.com/secmon-lab/risktree/pkg/domain/model"
)

// NodeRepository persists the whole risk tree as a snapshot.
type NodeRepository interface {
	// Load returns every stored node. An empty result means nothing has
	// been saved yet; the caller seeds a root.
	Load(ctx context.Context) ([]*model.RiskNode, error)

	// Save replaces the stored snapshot with nodes (last full write wins).
	Save(ctx context.Context, nodes []*model.RiskNode) error

	// Close releases backend resources
	Close() error
}
