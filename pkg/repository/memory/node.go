package memory

import (
	"context"
	"sync"

	"github.com/secmon-lab/risktree/pkg/domain/model"
)

type nodeRepository struct {
	mu    sync.RWMutex
	nodes []*model.RiskNode
	saves int
}

func newNodeRepository() *nodeRepository {
	return &nodeRepository{}
}

func (r *nodeRepository) Load(ctx context.Context) ([]*model.RiskNode, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	// Return copies to prevent external modification
	return copyNodes(r.nodes), nil
}

func (r *nodeRepository) Save(ctx context.Context, nodes []*model.RiskNode) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nodes = copyNodes(nodes)
	r.saves++
	return nil
}

func copyNodes(nodes []*model.RiskNode) []*model.RiskNode {
	copied := make([]*model.RiskNode, 0, len(nodes))
	for _, n := range nodes {
		copied = append(copied, n.Clone())
	}
	return copied
}
