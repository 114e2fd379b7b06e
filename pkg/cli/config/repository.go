package config

import (
	"context"
	"log/slog"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/risktree/pkg/domain/interfaces"
	"github.com/secmon-lab/risktree/pkg/repository/file"
	"github.com/secmon-lab/risktree/pkg/repository/firestore"
	"github.com/secmon-lab/risktree/pkg/repository/gcs"
	"github.com/secmon-lab/risktree/pkg/repository/memory"
	"github.com/secmon-lab/risktree/pkg/repository/sqlite"
	"github.com/secmon-lab/risktree/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

// Repository backends
const (
	BackendFile      = "file"
	BackendMemory    = "memory"
	BackendFirestore = "firestore"
	BackendGCS       = "gcs"
	BackendSQLite    = "sqlite"
)

const (
	DefaultFilePath   = "data/nodes.json"
	DefaultSQLitePath = "data/risktree.db"
	DefaultGCSObject  = "risktree/nodes.json"
)

// Repository holds CLI flags for repository backend configuration
type Repository struct {
	backend          string
	filePath         string
	sqlitePath       string
	projectID        string
	databaseID       string
	collectionPrefix string
	gcsBucket        string
	gcsObject        string
}

// Flags returns CLI flags for repository configuration
func (r *Repository) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "repository-backend",
			Usage:       "Repository backend type (file, memory, firestore, gcs or sqlite)",
			Category:    "Repository",
			Value:       BackendFile,
			Sources:     cli.EnvVars("RISKTREE_REPOSITORY_BACKEND"),
			Destination: &r.backend,
		},
		&cli.StringFlag{
			Name:        "data-file",
			Usage:       "JSON snapshot path for the file backend",
			Category:    "Repository",
			Value:       DefaultFilePath,
			Sources:     cli.EnvVars("RISKTREE_DATA_FILE"),
			Destination: &r.filePath,
		},
		&cli.StringFlag{
			Name:        "sqlite-path",
			Usage:       "Database path for the sqlite backend",
			Category:    "Repository",
			Value:       DefaultSQLitePath,
			Sources:     cli.EnvVars("RISKTREE_SQLITE_PATH"),
			Destination: &r.sqlitePath,
		},
		&cli.StringFlag{
			Name:        "firestore-project-id",
			Usage:       "Firestore Project ID (required when using firestore backend)",
			Category:    "Repository",
			Sources:     cli.EnvVars("RISKTREE_FIRESTORE_PROJECT_ID"),
			Destination: &r.projectID,
		},
		&cli.StringFlag{
			Name:        "firestore-database-id",
			Usage:       "Firestore Database ID",
			Category:    "Repository",
			Sources:     cli.EnvVars("RISKTREE_FIRESTORE_DATABASE_ID"),
			Destination: &r.databaseID,
		},
		&cli.StringFlag{
			Name:        "firestore-collection-prefix",
			Usage:       "Prefix for Firestore collection names",
			Category:    "Repository",
			Sources:     cli.EnvVars("RISKTREE_FIRESTORE_COLLECTION_PREFIX"),
			Destination: &r.collectionPrefix,
		},
		&cli.StringFlag{
			Name:        "gcs-bucket",
			Usage:       "Cloud Storage bucket (required when using gcs backend)",
			Category:    "Repository",
			Sources:     cli.EnvVars("RISKTREE_GCS_BUCKET"),
			Destination: &r.gcsBucket,
		},
		&cli.StringFlag{
			Name:        "gcs-object",
			Usage:       "Cloud Storage object name of the snapshot",
			Category:    "Repository",
			Value:       DefaultGCSObject,
			Sources:     cli.EnvVars("RISKTREE_GCS_OBJECT"),
			Destination: &r.gcsObject,
		},
	}
}

func (r Repository) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("backend", r.backend),
		slog.String("data_file", r.filePath),
		slog.String("project_id", r.projectID),
		slog.String("gcs_bucket", r.gcsBucket),
	)
}

// Backend returns the configured backend type
func (r *Repository) Backend() string {
	return r.backend
}

// ProjectID returns the Firestore project ID
func (r *Repository) ProjectID() string {
	return r.projectID
}

// DatabaseID returns the Firestore database ID
func (r *Repository) DatabaseID() string {
	return r.databaseID
}

// CollectionPrefix returns the Firestore collection prefix
func (r *Repository) CollectionPrefix() string {
	return r.collectionPrefix
}

// Configure initializes and returns a repository based on the configured backend.
// The caller is responsible for calling Close() on the returned repository.
func (r *Repository) Configure(ctx context.Context) (interfaces.NodeRepository, error) {
	logger := logging.From(ctx)

	switch r.backend {
	case BackendFile, "":
		path := r.filePath
		if path == "" {
			path = DefaultFilePath
		}
		logger.Info("Using file repository", "path", path)
		return file.New(path), nil

	case BackendMemory:
		logger.Info("Using in-memory repository (development mode)")
		return memory.New(), nil

	case BackendSQLite:
		path := r.sqlitePath
		if path == "" {
			path = DefaultSQLitePath
		}
		repo, err := sqlite.New(ctx, path)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to initialize sqlite repository", goerr.V(BackendKey, r.backend))
		}
		logger.Info("Using SQLite repository", "path", path)
		return repo, nil

	case BackendFirestore:
		if r.projectID == "" {
			return nil, goerr.Wrap(ErrMissingParam, "firestore-project-id is required when using firestore backend")
		}
		var opts []firestore.Option
		if r.collectionPrefix != "" {
			opts = append(opts, firestore.WithCollectionPrefix(r.collectionPrefix))
		}
		repo, err := firestore.New(ctx, r.projectID, r.databaseID, opts...)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to initialize firestore repository", goerr.V(BackendKey, r.backend))
		}
		logger.Info("Using Firestore repository",
			"project_id", r.projectID,
			"database_id", r.databaseID,
		)
		return repo, nil

	case BackendGCS:
		if r.gcsBucket == "" {
			return nil, goerr.Wrap(ErrMissingParam, "gcs-bucket is required when using gcs backend")
		}
		object := r.gcsObject
		if object == "" {
			object = DefaultGCSObject
		}
		repo, err := gcs.New(ctx, r.gcsBucket, object)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to initialize gcs repository", goerr.V(BackendKey, r.backend))
		}
		logger.Info("Using Cloud Storage repository", "bucket", r.gcsBucket, "object", object)
		return repo, nil

	default:
		return nil, goerr.Wrap(ErrInvalidConfig, "invalid repository backend", goerr.V(BackendKey, r.backend))
	}
}
