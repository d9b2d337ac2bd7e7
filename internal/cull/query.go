// Package cull implements the retention engine: predicate construction,
// paginated enumeration, and chunked batch disposal with partial-failure
// handling.
package cull

import (
	"errors"
	"fmt"
	"time"

	"github.com/mkern/mailcull/internal/gmail"
	"github.com/mkern/mailcull/internal/retention"
)

// ErrEmptyLabel is returned by BuildQuery for a label with an empty name.
var ErrEmptyLabel = errors.New("label name must not be empty")

// BuildQuery renders the search predicate selecting messages on label that
// are older than the policy's age at now. A non-empty excludeLabel conjoins
// a single negated label clause, used to skip messages a previous run
// already disposed and marked.
func BuildQuery(label string, policy retention.Policy, excludeLabel string, now time.Time) (gmail.Query, error) {
	if label == "" {
		return gmail.Query{}, ErrEmptyLabel
	}
	raw := fmt.Sprintf("label:%q %s", label, policy.Age.QueryFragment(now))
	if excludeLabel != "" {
		raw += fmt.Sprintf(" -label:%q", excludeLabel)
	}
	return gmail.Query{Raw: raw}, nil
}
