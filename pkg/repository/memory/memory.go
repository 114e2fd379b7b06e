package memory

import (
	"context"

	"github.com/secmon-lab/risktree/pkg/domain/interfaces"
	"github.com/secmon-lab/risktree/pkg/domain/model"
)

// Memory keeps the snapshot in process memory. Nothing survives a restart.
type Memory struct {
	node *nodeRepository
}

var _ interfaces.NodeRepository = &Memory{}

func New() *Memory {
	return &Memory{
		node: newNodeRepository(),
	}
}

func (m *Memory) Load(ctx context.Context) ([]*model.RiskNode, error) {
	return m.node.Load(ctx)
}

func (m *Memory) Save(ctx context.Context, nodes []*model.RiskNode) error {
	return m.node.Save(ctx, nodes)
}

// SaveCount returns how many snapshots have been written
func (m *Memory) SaveCount() int {
	m.node.mu.RLock()
	defer m.node.mu.RUnlock()
	return m.node.saves
}

func (m *Memory) Close() error {
	return nil
}
