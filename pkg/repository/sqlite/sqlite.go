package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/m-mizutani/goerr/v2"
	_ "github.com/mattn/go-sqlite3"
	"github.com/secmon-lab/risktree/pkg/domain/interfaces"
	"github.com/secmon-lab/risktree/pkg/domain/model"
	"github.com/secmon-lab/risktree/pkg/repository/snapshot"
	"github.com/secmon-lab/risktree/pkg/utils/logging"
)

const schema = `
CREATE TABLE IF NOT EXISTS risk_nodes (
	id        INTEGER PRIMARY KEY,
	name      TEXT    NOT NULL,
	prob      REAL,
	loss_min  REAL,
	loss_max  REAL,
	severity  REAL,
	parent_id INTEGER,
	children  TEXT    NOT NULL DEFAULT '[]'
);
`

// SQLite stores the snapshot in a single table. Save replaces every row
// inside one transaction.
type SQLite struct {
	db *sql.DB
}

var _ interfaces.NodeRepository = &SQLite{}

// New opens (and creates if needed) the database at path
func New(ctx context.Context, path string) (*SQLite, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			return nil, goerr.Wrap(err, "failed to create database directory", goerr.V("path", path))
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to open database", goerr.V("path", path))
	}
	// a single connection keeps :memory: databases alive across calls
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, goerr.Wrap(err, "failed to initialize schema", goerr.V("path", path))
	}

	return &SQLite{db: db}, nil
}

func (s *SQLite) Load(ctx context.Context) ([]*model.RiskNode, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, prob, loss_min, loss_max, severity, parent_id, children FROM risk_nodes ORDER BY id`)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to query nodes")
	}
	defer func() {
		if err := rows.Close(); err != nil {
			logging.From(ctx).Error("failed to close rows", "error", err.Error())
		}
	}()

	var nodes []*model.RiskNode
	for rows.Next() {
		var (
			id                               int64
			name                             string
			prob, lossMin, lossMax, severity sql.NullFloat64
			parentID                         sql.NullInt64
			childrenJSON                     string
		)
		if err := rows.Scan(&id, &name, &prob, &lossMin, &lossMax, &severity, &parentID, &childrenJSON); err != nil {
			return nil, goerr.Wrap(err, "failed to scan node")
		}

		var children []int64
		if err := json.Unmarshal([]byte(childrenJSON), &children); err != nil {
			return nil, goerr.Wrap(err, "failed to parse children", goerr.V("node_id", id))
		}

		nodes = append(nodes, snapshot.FromDocument(id, name,
			nullFloat(prob), nullFloat(lossMin), nullFloat(lossMax), nullFloat(severity),
			nullInt(parentID), children))
	}
	if err := rows.Err(); err != nil {
		return nil, goerr.Wrap(err, "failed to iterate nodes")
	}

	return nodes, nil
}

func (s *SQLite) Save(ctx context.Context, nodes []*model.RiskNode) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return goerr.Wrap(err, "failed to begin transaction")
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `DELETE FROM risk_nodes`); err != nil {
		return goerr.Wrap(err, "failed to clear nodes")
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO risk_nodes (id, name, prob, loss_min, loss_max, severity, parent_id, children) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return goerr.Wrap(err, "failed to prepare insert")
	}
	defer func() {
		_ = stmt.Close()
	}()

	for _, n := range nodes {
		children, err := json.Marshal(snapshot.ChildIDs(n))
		if err != nil {
			return goerr.Wrap(err, "failed to encode children", goerr.V("node_id", int64(n.ID)))
		}

		var parentID sql.NullInt64
		if n.HasParent() {
			parentID = sql.NullInt64{Int64: int64(n.ParentID), Valid: true}
		}

		if _, err := stmt.ExecContext(ctx, int64(n.ID), n.Name, n.Prob, n.LossMin, n.LossMax, n.Severity, parentID, string(children)); err != nil {
			return goerr.Wrap(err, "failed to insert node", goerr.V("node_id", int64(n.ID)))
		}
	}

	if err := tx.Commit(); err != nil {
		return goerr.Wrap(err, "failed to commit snapshot")
	}
	return nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

func nullFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	return &v.Float64
}

func nullInt(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	return &v.Int64
}
