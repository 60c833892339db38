package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/matzehuels/arteria/pkg/errors"
	"github.com/matzehuels/arteria/pkg/storage"
	"github.com/matzehuels/arteria/pkg/storage/memory"
	"github.com/matzehuels/arteria/pkg/storage/mongo"
	"github.com/matzehuels/arteria/pkg/storage/postgres"
	"github.com/matzehuels/arteria/pkg/storage/s3"
	"github.com/matzehuels/arteria/pkg/storage/sqlite"
)

// defaultStoreFile is the sqlite database used when --store is "default".
const defaultStoreFile = "runs.db"

// openStore opens the run store named by target:
//
//	memory                  in-process, lost on exit
//	default                 sqlite under the data directory
//	sqlite:PATH or *.db     a sqlite file
//	postgres://...          PostgreSQL
//	mongodb://...           MongoDB (also mongodb+srv://)
//
// An empty target falls back to $ARTERIA_STORE.
func openStore(ctx context.Context, target string) (storage.Store, error) {
	if target == "" {
		target = os.Getenv(envStore)
	}
	var (
		s   storage.Store
		err error
	)
	switch {
	case target == "memory":
		return memory.New(), nil
	case target == "" || target == "default":
		dir, derr := dataDir()
		if derr != nil {
			return nil, errors.Wrap(errors.ErrCodeStorage, derr, "resolve data directory")
		}
		s, err = sqlite.Open(ctx, filepath.Join(dir, defaultStoreFile))
	case strings.HasPrefix(target, "sqlite:"):
		s, err = sqlite.Open(ctx, strings.TrimPrefix(target, "sqlite:"))
	case strings.HasSuffix(target, ".db"):
		s, err = sqlite.Open(ctx, target)
	case strings.HasPrefix(target, "postgres://"), strings.HasPrefix(target, "postgresql://"):
		s, err = postgres.Open(ctx, target)
	case strings.HasPrefix(target, "mongodb://"), strings.HasPrefix(target, "mongodb+srv://"):
		s, err = mongo.Open(ctx, mongo.Config{URI: target})
	default:
		return nil, errors.New(errors.ErrCodeInvalidInput,
			"unknown store %q (want memory, default, sqlite:PATH, postgres://... or mongodb://...)", target)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "open store %s", redactURL(target))
	}
	return s, nil
}

// openArtifacts returns an S3 artifact store when bucket (or
// $ARTERIA_S3_BUCKET) is set, and otherwise the run store itself.
func openArtifacts(ctx context.Context, bucket string, s storage.Store) (storage.ArtifactStore, error) {
	cfg := s3.ConfigFromEnv(bucket)
	if cfg.Bucket != "" {
		as, err := s3.New(ctx, cfg)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeStorage, err, "open s3 bucket %s", cfg.Bucket)
		}
		return as, nil
	}
	as, ok := s.(storage.ArtifactStore)
	if !ok {
		return nil, fmt.Errorf("store %T cannot hold artifacts", s)
	}
	return as, nil
}
