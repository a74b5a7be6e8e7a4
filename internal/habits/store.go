package habits

// Store persists complete snapshots. Every accepted mutation is followed by a
// full Save; implementations never see partial updates.
type Store interface {
	// Load returns the stored snapshot. A store that has never been written
	// returns an empty snapshot and no error.
	Load() (Snapshot, error)

	// Save replaces the stored snapshot.
	Save(Snapshot) error

	// Close releases any resources held by the store.
	Close() error
}
