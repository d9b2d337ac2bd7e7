// Package gmail defines the narrow Gmail surface mailcull consumes. The
// real adapter lives in internal/runtime; tests substitute fakes.
package gmail

// MessageID identifies a single message.
type MessageID string

// LabelID identifies a mailbox label.
type LabelID string

// Query is an already-formed Gmail search predicate,
// e.g. `label:"news" before:2024-01-01 -label:"mailcull/processed/rule-2"`.
type Query struct {
	Raw string
}

// ListPage is one page of a message search.
type ListPage struct {
	IDs           []MessageID
	NextPageToken string
}

// DisposeResult carries per-message outcomes from a batch disposal. A nil
// Failed map means every attempted ID succeeded. Providers that only report
// whole-call success leave Failed empty; callers treat a whole-call error as
// failing every ID in the chunk.
type DisposeResult struct {
	Failed map[MessageID]string
}
