// Package source provides the record sources data acquisition draws from:
// the primary document collection and the local snapshot fallback.
package source

import (
	"context"
	"errors"

	"sensorpipe/internal/dataset"
)

// ErrNoRecords marks a primary fetch that succeeded but returned nothing;
// acquisition treats it the same as a connection failure.
var ErrNoRecords = errors.New("source: no records in collection")

// Fetcher returns every record of a source materialized as a tabular frame.
type Fetcher interface {
	FetchAll(ctx context.Context) (*dataset.Frame, error)
}

// StubFetcher returns a fixed frame or error for any call. Use in tests or
// when wiring with fixture data.
type StubFetcher struct {
	Frame *dataset.Frame
	Err   error
}

// FetchAll implements Fetcher by returning the fixed result.
func (f *StubFetcher) FetchAll(ctx context.Context) (*dataset.Frame, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	return f.Frame, nil
}

// NewStubFetcher returns a Fetcher that always returns frame.
func NewStubFetcher(frame *dataset.Frame) *StubFetcher {
	return &StubFetcher{Frame: frame}
}
