package cull

import (
	"context"
	"fmt"

	"github.com/mkern/mailcull/internal/gmail"
	"github.com/mkern/mailcull/internal/rate"
)

// EnumerationError reports a page fetch that failed partway through a
// traversal. Partial holds the deduplicated IDs gathered before the
// failure; the engine never treats them as a complete set.
type EnumerationError struct {
	Page    int
	Partial []gmail.MessageID
	Err     error
}

func (e *EnumerationError) Error() string {
	return fmt.Sprintf("enumeration failed on page %d after %d ids: %v",
		e.Page, len(e.Partial), e.Err)
}

func (e *EnumerationError) Unwrap() error { return e.Err }

// Enumerator drives paginated message search, producing the full ordered,
// deduplicated ID list for a predicate.
type Enumerator struct {
	Client   gmail.Client
	Limiter  rate.Limiter
	PageSize int // results per page, capped at 500 by the provider
	MaxPages int // 0 means traverse until the provider is exhausted
}

// Enumerate walks pages for q until MaxPages or exhaustion. IDs are
// returned in provider order with duplicates dropped; a page boundary can
// repeat an entry when the mailbox changes mid-traversal.
func (e *Enumerator) Enumerate(ctx context.Context, q gmail.Query) ([]gmail.MessageID, error) {
	pageSize := e.PageSize
	if pageSize <= 0 || pageSize > 500 {
		pageSize = 500
	}

	var (
		ids   []gmail.MessageID
		seen  = map[gmail.MessageID]struct{}{}
		token string
		page  int
	)
	for {
		page++
		if err := e.wait(ctx); err != nil {
			return nil, &EnumerationError{Page: page, Partial: ids, Err: err}
		}
		res, err := e.Client.List(ctx, q, token, pageSize)
		if err != nil {
			return nil, &EnumerationError{Page: page, Partial: ids, Err: err}
		}
		for _, id := range res.IDs {
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
		if res.NextPageToken == "" {
			return ids, nil
		}
		if e.MaxPages > 0 && page >= e.MaxPages {
			return ids, nil
		}
		token = res.NextPageToken
	}
}

func (e *Enumerator) wait(ctx context.Context) error {
	if e.Limiter == nil {
		return nil
	}
	if err := e.Limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit list: %w", err)
	}
	return nil
}
