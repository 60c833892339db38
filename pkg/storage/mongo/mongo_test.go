package mongo

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"

	"github.com/matzehuels/arteria/pkg/storage/storagetest"
)

// Set ARTERIA_TEST_MONGO_URI to run these against a live server. Each test
// uses a throwaway database.
func openTest(t *testing.T) *Store {
	t.Helper()
	uri := os.Getenv("ARTERIA_TEST_MONGO_URI")
	if uri == "" {
		t.Skip("ARTERIA_TEST_MONGO_URI not set")
	}
	ctx := context.Background()
	db := "arteria_test_" + uuid.NewString()[:8]
	s, err := Open(ctx, Config{URI: uri, Database: db})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() {
		_ = s.client.Database(db).Drop(context.Background())
		_ = s.Close()
	})
	return s
}

func TestArtifactID(t *testing.T) {
	if got := artifactID("abc", "svg"); got != "abc/svg" {
		t.Errorf("artifactID = %q", got)
	}
}

func TestStore(t *testing.T) {
	storagetest.TestStore(t, openTest(t))
}

func TestArtifactStore(t *testing.T) {
	storagetest.TestArtifactStore(t, openTest(t))
}
