package remote

import (
	"fmt"

	"habits-go/internal/config"
	"habits-go/internal/habits"
)

// NewRemoteFromConfig creates a Remote based on the remote config type.
// It returns nil and no error when no remote is configured.
func NewRemoteFromConfig(cfg config.RemoteConfig) (habits.Remote, error) {
	switch cfg.Type {
	case "":
		return nil, nil
	case "memory":
		return NewMemoryRemote(cfg.Name), nil
	case "filesystem":
		if cfg.FSRoot == "" {
			return nil, fmt.Errorf("filesystem remote requires fs_root to be set")
		}
		r, err := NewFileSystemRemote(cfg.Name, cfg.FSRoot)
		if err != nil {
			return nil, err
		}
		return r, nil
	case "s3":
		r, err := NewS3Remote(cfg)
		if err != nil {
			return nil, err
		}
		return r, nil
	default:
		return nil, fmt.Errorf("unknown remote type: %s", cfg.Type)
	}
}
