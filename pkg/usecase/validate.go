package usecase

import (
	"context"

	"github.com/secmon-lab/risktree/pkg/domain/model"
)

// ValidationResult holds the integrity issues found in the tree
type ValidationResult struct {
	Nodes  int
	Issues []model.Issue
}

// HasIssues returns true if there are any validation issues
func (r *ValidationResult) HasIssues() bool {
	return len(r.Issues) > 0
}

// CountByKind returns the number of issues of each kind
func (r *ValidationResult) CountByKind() map[model.IssueKind]int {
	counts := make(map[model.IssueKind]int)
	for _, issue := range r.Issues {
		counts[issue.Kind]++
	}
	return counts
}

// ValidateTree checks the stored tree for broken links, unreachable nodes,
// out of range values and stale aggregates. It does NOT modify any data;
// run Recompute to repair aggregate drift.
func (uc *NodeUseCase) ValidateTree(ctx context.Context) (*ValidationResult, error) {
	result := &ValidationResult{}
	err := uc.view(ctx, func(t *model.Tree) error {
		result.Nodes = t.Len()
		result.Issues = t.Check()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
