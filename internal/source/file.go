package source

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tomek7667/serachart/internal/history"
	"github.com/tomek7667/serachart/internal/json"
)

// File serves batches previously exported to a directory, trimmed to the
// requested window.
type File struct {
	store *json.Client
}

func NewFile(store *json.Client) *File {
	return &File{store: store}
}

func (f *File) History(_ context.Context, metricID string, from, to time.Time) (history.Batch, error) {
	b, err := f.store.GetBatch(metricID)
	if errors.Is(err, json.ErrNotFound) {
		return history.Batch{}, fmt.Errorf("%s: %w", metricID, ErrUnknownMetric)
	}
	if err != nil {
		return history.Batch{}, err
	}
	lo, hi := unixSeconds(from), unixSeconds(to)
	return history.Batch{
		Metric: metricID,
		FromTs: lo,
		ToTs:   hi,
		Points: within(b.Points, lo, hi),
	}, nil
}
