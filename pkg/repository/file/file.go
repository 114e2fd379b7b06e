package file

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/risktree/pkg/domain/interfaces"
	"github.com/secmon-lab/risktree/pkg/domain/model"
	"github.com/secmon-lab/risktree/pkg/repository/snapshot"
	"github.com/secmon-lab/risktree/pkg/utils/logging"
	"github.com/secmon-lab/risktree/pkg/utils/safe"
)

// DefaultPath is the snapshot location used when none is configured
const DefaultPath = "data/nodes.json"

// File stores the snapshot as a JSON file. Writes go to a temporary file
// in the same directory which then replaces the target, so a crash during
// Save leaves the previous snapshot intact.
type File struct {
	path string
	now  func() time.Time
}

var _ interfaces.NodeRepository = &File{}

type Option func(*File)

// WithClock overrides the clock used to name quarantined files
func WithClock(now func() time.Time) Option {
	return func(f *File) {
		f.now = now
	}
}

func New(path string, opts ...Option) *File {
	if path == "" {
		path = DefaultPath
	}
	f := &File{
		path: path,
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Path returns the snapshot file path
func (f *File) Path() string {
	return f.path
}

// Load reads the snapshot. A missing file yields no nodes. A file that
// cannot be parsed is moved aside and also yields no nodes.
func (f *File) Load(ctx context.Context) ([]*model.RiskNode, error) {
	// #nosec G304 - path is provided by CLI flag
	data, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			logging.From(ctx).Debug("snapshot file not found, starting empty", "path", f.path)
			return nil, nil
		}
		return nil, goerr.Wrap(err, "failed to read snapshot file", goerr.V("path", f.path))
	}

	nodes, err := snapshot.Decode(data)
	if err != nil {
		quarantine := fmt.Sprintf("%s.corrupt-%d", f.path, f.now().Unix())
		if renameErr := os.Rename(f.path, quarantine); renameErr != nil {
			return nil, goerr.Wrap(renameErr, "failed to move malformed snapshot aside",
				goerr.V("path", f.path), goerr.V("parse_error", err.Error()))
		}
		logging.From(ctx).Warn("malformed snapshot moved aside, starting empty",
			"path", f.path,
			"moved_to", quarantine,
			"error", err.Error(),
		)
		return nil, nil
	}

	return nodes, nil
}

func (f *File) Save(ctx context.Context, nodes []*model.RiskNode) error {
	data, err := snapshot.Encode(nodes)
	if err != nil {
		return err
	}

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return goerr.Wrap(err, "failed to create snapshot directory", goerr.V("dir", dir))
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(f.path)+".*.tmp")
	if err != nil {
		return goerr.Wrap(err, "failed to create temporary snapshot", goerr.V("dir", dir))
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			safe.Close(ctx, "temporary snapshot file", tmp)
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return goerr.Wrap(err, "failed to write snapshot", goerr.V("path", tmpName))
	}
	if err := tmp.Sync(); err != nil {
		return goerr.Wrap(err, "failed to sync snapshot", goerr.V("path", tmpName))
	}
	if err := tmp.Close(); err != nil {
		return goerr.Wrap(err, "failed to close snapshot", goerr.V("path", tmpName))
	}
	if err := os.Rename(tmpName, f.path); err != nil {
		_ = os.Remove(tmpName)
		committed = true
		return goerr.Wrap(err, "failed to replace snapshot", goerr.V("path", f.path))
	}
	committed = true

	logging.From(ctx).Debug("snapshot saved", "path", f.path, "nodes", len(nodes))
	return nil
}

func (f *File) Close() error {
	return nil
}
