package lifecycle_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/firtrack/fir-tracking-api/lifecycle"
)

type fakeCounterStore struct {
	count    int64
	countErr error
	existing map[string]bool
	calls    int
}

func (f *fakeCounterStore) CountAll(ctx context.Context) (int64, error) {
	f.calls++
	return f.count, f.countErr
}

func (f *fakeCounterStore) NumberExists(ctx context.Context, firNumber string) (bool, error) {
	return f.existing[firNumber], nil
}

func TestFormatFirNumber(t *testing.T) {
	assert.Equal(t, "FIR2025000042", lifecycle.FormatFirNumber(2025, 41))
	assert.Equal(t, "FIR2025000001", lifecycle.FormatFirNumber(2025, 0))
	assert.Equal(t, "FIR20261000000", lifecycle.FormatFirNumber(2026, 999999))
}

func TestNumberingNext(t *testing.T) {
	store := &fakeCounterStore{count: 41}
	n := lifecycle.NewNumbering(store)
	n.Now = func() time.Time { return time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC) }

	firNumber, err := n.Next(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, "FIR2025000042", firNumber)
}

func TestNumberingNextRetriesOnce(t *testing.T) {
	store := &fakeCounterStore{
		count:    41,
		existing: map[string]bool{"FIR2025000042": true},
	}
	n := lifecycle.NewNumbering(store)
	n.Now = func() time.Time { return time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC) }

	_, err := n.Next(context.Background())
	assert.ErrorIs(t, err, lifecycle.ErrNumberingConflict)
	assert.Equal(t, 2, store.calls)
}

func TestNumberingNextStorageError(t *testing.T) {
	store := &fakeCounterStore{countErr: fmt.Errorf("connection reset")}
	n := lifecycle.NewNumbering(store)

	_, err := n.Next(context.Background())
	assert.Error(t, err)
	assert.NotErrorIs(t, err, lifecycle.ErrNumberingConflict)
}
