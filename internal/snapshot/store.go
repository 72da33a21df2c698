// Package snapshot persists named snapshots as JSON documents under a
// base directory, one file per snapshot.
package snapshot

import (
	"errors"

	"github.com/yourorg/netsnap/pkg/types"
)

// ErrNotFound is returned when no snapshot exists under the given name.
var ErrNotFound = errors.New("snapshot not found")

type Store interface {
	Save(snap types.Snapshot) error
	Load(name string) (types.Snapshot, error)
	List() ([]string, error)
	Delete(name string) error
}
