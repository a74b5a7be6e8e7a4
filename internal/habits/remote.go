package habits

import (
	"errors"
	"io"
)

// ErrRemoteNotFound is returned by Remote.Get when no document has been
// pushed for a host.
var ErrRemoteNotFound = errors.New("no document on remote")

// Remote is an external copy of the exported document, one per host.
// Each push carries a version that only ever increases for a host.
type Remote interface {
	// Name identifies the remote in logs and status output.
	Name() string

	// Put stores the document for hostID. size is the exact number of bytes r
	// yields.
	Put(hostID string, r io.Reader, size int64, version int64) error

	// Get writes the document for hostID to w.
	Get(hostID string, w io.Writer) error

	// Version returns the version of the document for hostID, or 0 when
	// nothing has been pushed.
	Version(hostID string) (int64, error)

	// ValidateSetup checks that the remote is reachable and writable.
	ValidateSetup() error
}
