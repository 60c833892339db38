package cache

import "fmt"

// Key prefixes.
const (
	prefixTree     = "tree"
	prefixArtifact = "artifact"
)

// ArtifactKeyOpts holds the render options that change an artifact's bytes.
type ArtifactKeyOpts struct {
	Format   string  `json:"format"`
	Width    float64 `json:"width"`
	Detailed bool    `json:"detailed"`
}

// Keyer generates cache keys.
type Keyer interface {
	// TreeKey returns the key of the tree grown from parameters with the
	// given hash.
	TreeKey(paramsHash string) string
	// ArtifactKey returns the key of an artifact rendered from a tree.
	ArtifactKey(treeHash string, opts ArtifactKeyOpts) string
}

// DefaultKeyer builds keys of the form prefix:sha256(parts...).
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// TreeKey implements Keyer.
func (DefaultKeyer) TreeKey(paramsHash string) string {
	return fmt.Sprintf("%s:%s", prefixTree, paramsHash)
}

// ArtifactKey implements Keyer.
func (DefaultKeyer) ArtifactKey(treeHash string, opts ArtifactKeyOpts) string {
	return hashKey(prefixArtifact, treeHash, opts)
}
