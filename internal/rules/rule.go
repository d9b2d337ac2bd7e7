package rules

import (
	"fmt"
	"slices"
	"strings"

	"github.com/mkern/mailcull/internal/retention"
)

// MarkerPrefix is the reserved namespace for labels this tool creates on
// disposed messages. User labels must never start with it; a collision
// would suppress re-selection of unrelated mail.
const MarkerPrefix = "mailcull/processed"

// Rule binds a retention policy to a set of target labels and a disposal
// action. Rules are mutated only through Set operations.
type Rule struct {
	ID     int
	Policy retention.Policy
	Labels []string // declared order, duplicates rejected on add
	Action Action
}

// MarkerLabel returns the rule's reserved marker label name.
func (r *Rule) MarkerLabel() string {
	return fmt.Sprintf("%s/rule-%d", MarkerPrefix, r.ID)
}

// HasLabel reports whether the rule already targets label.
func (r *Rule) HasLabel(label string) bool {
	return slices.Contains(r.Labels, label)
}

func (r *Rule) addLabel(label string) {
	if label == "" || r.HasLabel(label) {
		return
	}
	r.Labels = append(r.Labels, label)
}

func (r *Rule) removeLabel(label string) {
	r.Labels = slices.DeleteFunc(r.Labels, func(l string) bool { return l == label })
}

// Describe renders the rule for humans.
func (r *Rule) Describe() string {
	if r.Policy.Age.IsZero() {
		return fmt.Sprintf("Rule #%d has no retention threshold set.", r.ID)
	}
	if len(r.Labels) == 0 {
		return fmt.Sprintf("Rule #%d targets no labels; %s if it is more than %s old.",
			r.ID, r.Action.Describe(), r.Policy.Age.Describe())
	}
	return fmt.Sprintf("Rule #%d is active on `%s`; %s if it is more than %s old.",
		r.ID, strings.Join(r.Labels, ", "), r.Action.Describe(), r.Policy.Age.Describe())
}
