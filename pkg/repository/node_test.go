package repository_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/risktree/pkg/domain/interfaces"
	"github.com/secmon-lab/risktree/pkg/domain/model"
	"github.com/secmon-lab/risktree/pkg/domain/types"
	"github.com/secmon-lab/risktree/pkg/repository/file"
	"github.com/secmon-lab/risktree/pkg/repository/firestore"
	"github.com/secmon-lab/risktree/pkg/repository/gcs"
	"github.com/secmon-lab/risktree/pkg/repository/memory"
	"github.com/secmon-lab/risktree/pkg/repository/sqlite"
)

func sampleNodes() []*model.RiskNode {
	return []*model.RiskNode{
		{ID: 1, Name: `ПАО "МАГНИТ"`, Prob: 0.5, LossMin: 100, LossMax: 200, Severity: 2, Children: []types.NodeID{5, 2}},
		{ID: 2, Name: "г.Москва", Prob: 0.5, LossMin: 100, LossMax: 200, Severity: 2, ParentID: 1, Children: []types.NodeID{3}},
		{ID: 3, Name: "Магазин №1", Prob: 0.5, LossMin: 100, LossMax: 200, Severity: 2, ParentID: 2, Children: []types.NodeID{}},
		{ID: 5, Name: "г.Казань", Prob: 0.5, LossMin: 100, LossMax: 200, Severity: 2, ParentID: 1, Children: []types.NodeID{}},
	}
}

func runNodeRepositoryTest(t *testing.T, newRepo func(t *testing.T) interfaces.NodeRepository) {
	t.Helper()

	t.Run("Load on empty store returns no nodes", func(t *testing.T) {
		repo := newRepo(t)
		nodes, err := repo.Load(context.Background())
		gt.NoError(t, err)
		gt.A(t, nodes).Length(0)
	})

	t.Run("Save then Load round-trips ids, fields and child order", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		gt.NoError(t, repo.Save(ctx, sampleNodes())).Required()

		loaded, err := repo.Load(ctx)
		gt.NoError(t, err).Required()

		tree, err := model.NewTreeFromNodes(loaded)
		gt.NoError(t, err).Required()
		gt.Value(t, tree.All()).Equal(sampleNodes())
	})

	t.Run("Save replaces the previous snapshot", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		gt.NoError(t, repo.Save(ctx, sampleNodes())).Required()

		root := model.NewRiskNode(1, "Org", model.NoParent)
		gt.NoError(t, repo.Save(ctx, []*model.RiskNode{root})).Required()

		loaded, err := repo.Load(ctx)
		gt.NoError(t, err).Required()
		gt.A(t, loaded).Length(1)
		gt.Value(t, loaded[0].Name).Equal("Org")
		gt.Value(t, loaded[0].ParentID).Equal(model.NoParent)
	})

	t.Run("Load returns copies", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		gt.NoError(t, repo.Save(ctx, sampleNodes())).Required()

		first, err := repo.Load(ctx)
		gt.NoError(t, err).Required()
		for _, n := range first {
			n.Name = "changed"
		}

		second, err := repo.Load(ctx)
		gt.NoError(t, err).Required()
		for _, n := range second {
			gt.V(t, n.Name).NotEqual("changed")
		}
	})
}

func TestMemoryNodeRepository(t *testing.T) {
	runNodeRepositoryTest(t, func(t *testing.T) interfaces.NodeRepository {
		return memory.New()
	})
}

func TestFileNodeRepository(t *testing.T) {
	runNodeRepositoryTest(t, func(t *testing.T) interfaces.NodeRepository {
		return file.New(filepath.Join(t.TempDir(), "nodes.json"))
	})
}

func TestSQLiteNodeRepository(t *testing.T) {
	runNodeRepositoryTest(t, func(t *testing.T) interfaces.NodeRepository {
		repo, err := sqlite.New(context.Background(), filepath.Join(t.TempDir(), "risktree.db"))
		gt.NoError(t, err).Required()
		t.Cleanup(func() {
			if err := repo.Close(); err != nil {
				t.Errorf("failed to close sqlite repository: %v", err)
			}
		})
		return repo
	})
}

func newFirestoreRepository(t *testing.T) interfaces.NodeRepository {
	t.Helper()

	projectID := os.Getenv("TEST_FIRESTORE_PROJECT_ID")
	if projectID == "" {
		t.Skip("TEST_FIRESTORE_PROJECT_ID not set")
	}
	databaseID := os.Getenv("TEST_FIRESTORE_DATABASE_ID")

	ctx := context.Background()
	prefix := fmt.Sprintf("test_%d", time.Now().UnixNano())
	repo, err := firestore.New(ctx, projectID, databaseID, firestore.WithCollectionPrefix(prefix))
	if err != nil {
		t.Fatalf("failed to create firestore repository: %v", err)
	}
	t.Cleanup(func() {
		if err := repo.Close(); err != nil {
			t.Errorf("failed to close firestore repository: %v", err)
		}
	})
	return repo
}

func TestFirestoreNodeRepository(t *testing.T) {
	runNodeRepositoryTest(t, newFirestoreRepository)
}

func newGCSRepository(t *testing.T) interfaces.NodeRepository {
	t.Helper()

	bucket := os.Getenv("TEST_GCS_BUCKET")
	if bucket == "" {
		t.Skip("TEST_GCS_BUCKET not set")
	}

	object := fmt.Sprintf("test/%d/nodes.json", time.Now().UnixNano())
	repo, err := gcs.New(context.Background(), bucket, object)
	if err != nil {
		t.Fatalf("failed to create gcs repository: %v", err)
	}
	t.Cleanup(func() {
		if err := repo.Close(); err != nil {
			t.Errorf("failed to close gcs repository: %v", err)
		}
	})
	return repo
}

func TestGCSNodeRepository(t *testing.T) {
	runNodeRepositoryTest(t, newGCSRepository)
}
