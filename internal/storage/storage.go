package storage

import (
	"context"
	"errors"

	"neuraswap/internal/model"
)

// Journal is a sink for confirmed client transactions.
type Journal interface {
	Append(ctx context.Context, records []model.ActivityRecord) error
}

// Reader returns the most recent records, newest first.
type Reader interface {
	Recent(ctx context.Context, account string, limit int) ([]model.ActivityRecord, error)
}

// Multi fans records out to every journal and joins their errors.
type Multi []Journal

func (m Multi) Append(ctx context.Context, records []model.ActivityRecord) error {
	var errs []error
	for _, j := range m {
		if j == nil {
			continue
		}
		if err := j.Append(ctx, records); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Discard drops every record.
type Discard struct{}

func (Discard) Append(context.Context, []model.ActivityRecord) error { return nil }
