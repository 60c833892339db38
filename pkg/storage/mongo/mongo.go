// Package mongo stores runs and artifacts in MongoDB.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/matzehuels/arteria/pkg/storage"
)

const (
	// DefaultDatabase is used when Config.Database is empty.
	DefaultDatabase = "arteria"

	runsCollection      = "runs"
	artifactsCollection = "artifacts"
	connectTimeout      = 10 * time.Second
)

// Config holds connection settings.
type Config struct {
	URI      string
	Database string
}

// Store is a MongoDB-backed run and artifact store.
type Store struct {
	client    *mongo.Client
	runs      *mongo.Collection
	artifacts *mongo.Collection
}

var (
	_ storage.Store         = (*Store)(nil)
	_ storage.ArtifactStore = (*Store)(nil)
)

type artifactDoc struct {
	ID     string `bson:"_id"`
	RunID  string `bson:"run_id"`
	Format string `bson:"format"`
	Data   []byte `bson:"data"`
}

// Open connects to cfg.URI and ensures the indexes exist.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.URI == "" {
		return nil, errors.New("mongo uri required")
	}
	if cfg.Database == "" {
		cfg.Database = DefaultDatabase
	}

	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	db := client.Database(cfg.Database)
	s := &Store{
		client:    client,
		runs:      db.Collection(runsCollection),
		artifacts: db.Collection(artifactsCollection),
	}
	_, err = s.runs.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: 1}},
	})
	if err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("create index: %w", err)
	}
	return s, nil
}

func (s *Store) SaveRun(ctx context.Context, run *storage.Run) error {
	_, err := s.runs.ReplaceOne(ctx, bson.M{"_id": run.ID}, run, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("save run %s: %w", run.ID, err)
	}
	return nil
}

func (s *Store) GetRun(ctx context.Context, id string) (*storage.Run, error) {
	var run storage.Run
	err := s.runs.FindOne(ctx, bson.M{"_id": id}).Decode(&run)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get run %s: %w", id, err)
	}
	run.CreatedAt = run.CreatedAt.UTC()
	return &run, nil
}

func (s *Store) ListRuns(ctx context.Context, limit int) ([]storage.RunInfo, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: 1}}).
		SetProjection(bson.M{"document": 0})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	cur, err := s.runs.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer func() { _ = cur.Close(ctx) }()

	var infos []storage.RunInfo
	if err := cur.All(ctx, &infos); err != nil {
		return nil, fmt.Errorf("decode runs: %w", err)
	}
	for i := range infos {
		infos[i].CreatedAt = infos[i].CreatedAt.UTC()
	}
	return infos, nil
}

func (s *Store) PutArtifact(ctx context.Context, runID, format string, data []byte) error {
	doc := artifactDoc{ID: artifactID(runID, format), RunID: runID, Format: format, Data: data}
	_, err := s.artifacts.ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("save artifact %s: %w", doc.ID, err)
	}
	return nil
}

func (s *Store) GetArtifact(ctx context.Context, runID, format string) ([]byte, error) {
	var doc artifactDoc
	err := s.artifacts.FindOne(ctx, bson.M{"_id": artifactID(runID, format)}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get artifact %s/%s: %w", runID, format, err)
	}
	return doc.Data, nil
}

func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	return s.client.Disconnect(ctx)
}

func artifactID(runID, format string) string { return runID + "/" + format }
