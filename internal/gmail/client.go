package gmail

import (
	"context"
	"errors"

	"github.com/mkern/mailcull/internal/rules"
)

// ErrNoLabels is returned by ListLabels when the mailbox reports no labels
// at all. A label that merely matches zero messages is not an error.
var ErrNoLabels = errors.New("no labels found in mailbox")

// Client is the narrow Gmail capability surface required by mailcull.
type Client interface {
	// List returns one page of message IDs matching q.
	List(ctx context.Context, q Query, pageToken string, pageSize int) (ListPage, error)
	// ListLabels returns the mailbox label namespace in both directions,
	// or ErrNoLabels when the mailbox has none.
	ListLabels(ctx context.Context) (map[string]LabelID, map[LabelID]string, error)
	// EnsureLabel returns the ID for name, creating the label if absent.
	EnsureLabel(ctx context.Context, name string) (LabelID, error)
	// ApplyLabel adds the label to every listed message.
	ApplyLabel(ctx context.Context, label LabelID, ids []MessageID) error
	// Dispose applies the action to the chunk of ids. Trash must be a no-op
	// success for already-trashed ids, and Delete for already-deleted ones,
	// so re-runs stay idempotent.
	Dispose(ctx context.Context, action rules.Action, ids []MessageID) (DisposeResult, error)
}
