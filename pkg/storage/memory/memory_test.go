package memory

import (
	"testing"

	"github.com/matzehuels/arteria/pkg/storage/storagetest"
)

func TestStore(t *testing.T) {
	storagetest.TestStore(t, New())
}

func TestArtifactStore(t *testing.T) {
	storagetest.TestArtifactStore(t, New())
}
