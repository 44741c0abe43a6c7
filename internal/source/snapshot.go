package source

import (
	"context"
	"fmt"

	"sensorpipe/internal/dataset"
)

// SnapshotFetcher reads a fixed local CSV snapshot. It backs the fallback
// branch of data acquisition and can also serve as a primary source in
// offline setups.
type SnapshotFetcher struct {
	Path string
}

// NewSnapshotFetcher returns a Fetcher over the snapshot file at path.
func NewSnapshotFetcher(path string) *SnapshotFetcher {
	return &SnapshotFetcher{Path: path}
}

// FetchAll implements Fetcher by loading the snapshot. An empty snapshot is
// an error, mirroring the primary-source contract.
func (f *SnapshotFetcher) FetchAll(ctx context.Context) (*dataset.Frame, error) {
	frame, err := dataset.ReadCSV(f.Path)
	if err != nil {
		return nil, fmt.Errorf("snapshot %s: %w", f.Path, err)
	}
	if frame.NumRows() == 0 {
		return nil, fmt.Errorf("snapshot %s: %w", f.Path, ErrNoRecords)
	}
	return frame, nil
}
