package cache

// ScopedKeyer wraps a Keyer with a prefix. The CLI scopes every key under
// "arteria:" when the cache is a Redis instance shared with other tools.
//
// Example usage:
//
//	keyer := NewScopedKeyer(NewDefaultKeyer(), "arteria:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// The prefix is prepended to all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// TreeKey generates a prefixed key for tree caching.
func (k *ScopedKeyer) TreeKey(paramsHash string) string {
	return k.prefix + k.inner.TreeKey(paramsHash)
}

// ArtifactKey generates a prefixed key for artifact caching.
func (k *ScopedKeyer) ArtifactKey(treeHash string, opts ArtifactKeyOpts) string {
	return k.prefix + k.inner.ArtifactKey(treeHash, opts)
}
