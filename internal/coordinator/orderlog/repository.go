package orderlog

import "context"

// Repository persists journal entries. Save always appends.
type Repository interface {
	Save(ctx context.Context, entry *Entry) error
	// History returns every entry whose order id or saga id matches id, oldest first.
	History(ctx context.Context, id string) ([]*Entry, error)
}
