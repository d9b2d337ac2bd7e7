package cull

import (
	"fmt"

	"github.com/mkern/mailcull/internal/gmail"
	"github.com/mkern/mailcull/internal/rules"
)

// LabelNotFoundError reports a rule label that does not exist in the
// mailbox. It fails the rule×label pair, not the run.
type LabelNotFoundError struct {
	Label string
}

func (e *LabelNotFoundError) Error() string {
	return fmt.Sprintf("label %q not found in mailbox", e.Label)
}

// Outcome is the result of one chunk of one rule×label pair, or of the pair
// itself when it failed before chunking (Chunk is 0 in that case). Every
// outcome produced during a run is returned to the caller; none are
// dropped.
type Outcome struct {
	RuleID    int
	Label     string
	Chunk     int // 1-based; 0 for pair-level failures
	Action    rules.Action
	DryRun    bool
	Attempted []gmail.MessageID
	Succeeded []gmail.MessageID
	Failed    map[gmail.MessageID]string
	Cancelled bool
	Err       error
}

// OK reports whether the outcome completed with no failures.
func (o Outcome) OK() bool {
	return o.Err == nil && !o.Cancelled && len(o.Failed) == 0
}
