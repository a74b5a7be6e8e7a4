package store

import (
	"fmt"
	"path/filepath"

	"habits-go/internal/config"
	"habits-go/internal/habits"
)

// NewStoreFromConfig creates a habits.Store based on the store config type.
func NewStoreFromConfig(cfg config.StoreConfig, hostID string) (habits.Store, error) {
	switch cfg.Type {
	case "json":
		if cfg.Path == "" {
			return nil, fmt.Errorf("path required for json store")
		}
		return NewJSONStore(cfg.Path), nil
	case "kv":
		if cfg.KVDir == "" {
			return nil, fmt.Errorf("kv_dir required for kv store")
		}
		return NewKVStore(cfg.KVDir), nil
	case "sqlite":
		if cfg.DataDir == "" {
			return nil, fmt.Errorf("data_dir required for sqlite store")
		}
		s, err := NewSQLiteStore(filepath.Join(cfg.DataDir, hostID+".db"))
		if err != nil {
			return nil, err
		}
		return s, nil
	case "memory":
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown store type: %s", cfg.Type)
	}
}
