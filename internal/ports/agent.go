package ports

import (
	"context"

	"github.com/vshulcz/hostpulse/internal/domain"
)

// SnapshotSource produces one raw reading of the host per call. A source
// never fails as a whole: resources it could not read are simply absent
// from the returned snapshot.
type SnapshotSource interface {
	Collect(ctx context.Context) domain.Snapshot
}

// Publisher ships one tick's samples to the backend.
type Publisher interface {
	Publish(ctx context.Context, samples []domain.Sample) error
}
