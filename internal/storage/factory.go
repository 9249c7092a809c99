package storage

import (
	"errors"
	"fmt"
)

var ErrUnsupportedBackend = errors.New("unsupported layer store backend")

// NewStore opens the layer store named by kind. The sqlite path is ignored
// by the memory backend.
func NewStore(kind, sqlitePath string) (Store, error) {
	switch kind {
	case "", "memory":
		return NewMemoryStore(), nil
	case "sqlite":
		return newSQLiteStore(sqlitePath)
	default:
		return nil, fmt.Errorf("%w: %q (want memory or sqlite)", ErrUnsupportedBackend, kind)
	}
}

// CloseIfSupported closes backends that hold resources, such as the sqlite
// connection pool.
func CloseIfSupported(store Store) error {
	closer, ok := store.(interface{ Close() error })
	if !ok {
		return nil
	}
	return closer.Close()
}
