//go:build sqlite

package fitcache

func newSQLiteStore(path string) (Store, error) {
	return NewSQLiteStore(path), nil
}

// DefaultStoreKind is the backend used when none is configured.
func DefaultStoreKind() string { return "sqlite" }
