package fake

import (
	"context"
	"sync"

	"vivarium/internal/observer"
)

var _ observer.Snapshotter = (*Snapshotter)(nil)

// Snapshotter returns a canned screenshot.
type Snapshotter struct {
	CallRecorder
	mu    sync.Mutex
	path  string
	image []byte

	SnapshotErr func(ctx context.Context) error
}

// NewSnapshotter creates a Snapshotter with a small placeholder image.
func NewSnapshotter() *Snapshotter {
	return &Snapshotter{path: "/tmp/screenshot.png", image: []byte("png")}
}

func (s *Snapshotter) Snapshot(ctx context.Context) (string, []byte, error) {
	s.record("Snapshot")
	if s.SnapshotErr != nil {
		if err := s.SnapshotErr(ctx); err != nil {
			return "", nil, err
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.path, s.image, nil
}

// SetSnapshot sets the path and image returned by Snapshot.
func (s *Snapshotter) SetSnapshot(path string, image []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.path, s.image = path, image
}
