package lifecycle

import (
	"context"
	"fmt"
	"time"
)

// CounterStore is the slice of FIR storage the numbering service needs
type CounterStore interface {
	CountAll(ctx context.Context) (int64, error)
	NumberExists(ctx context.Context, firNumber string) (bool, error)
}

// Numbering generates globally unique, human-readable FIR numbers of the form
// FIR<year><6-digit sequence>, e.g. FIR2025000042. The caller must serialize
// Next with record creation so two concurrent creates cannot observe the same
// count.
type Numbering struct {
	Store CounterStore
	Now   func() time.Time
}

// NewNumbering returns a numbering service over the given store
func NewNumbering(store CounterStore) *Numbering {
	return &Numbering{Store: store, Now: time.Now}
}

// FormatFirNumber builds the FIR number string for a given year and the count
// of existing records
func FormatFirNumber(year int, count int64) string {
	return fmt.Sprintf("FIR%d%06d", year, count+1)
}

// Next produces the next FIR number. If the uniqueness check fails the count
// is re-read once; a second collision surfaces as ErrNumberingConflict.
func (n *Numbering) Next(ctx context.Context) (string, error) {
	year := n.Now().Year()

	for attempt := 0; attempt < 2; attempt++ {
		count, err := n.Store.CountAll(ctx)
		if err != nil {
			return "", err
		}
		firNumber := FormatFirNumber(year, count)

		exists, err := n.Store.NumberExists(ctx, firNumber)
		if err != nil {
			return "", err
		}
		if !exists {
			return firNumber, nil
		}
	}
	return "", ErrNumberingConflict
}
