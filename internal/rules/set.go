package rules

import (
	"fmt"
	"sort"

	"github.com/mkern/mailcull/internal/retention"
)

// RuleNotFoundError reports an operation against a rule ID that is not in
// the set.
type RuleNotFoundError struct {
	ID int
}

func (e *RuleNotFoundError) Error() string {
	return fmt.Sprintf("rule %d not found", e.ID)
}

// Set is an ordered collection of rules keyed by ID. Iteration is always by
// ascending ID so processing runs are deterministic.
type Set struct {
	rules map[int]*Rule
}

// NewSet returns an empty rule set.
func NewSet() *Set {
	return &Set{rules: map[int]*Rule{}}
}

// Len returns the number of rules in the set.
func (s *Set) Len() int { return len(s.rules) }

// Get returns the rule with the given ID.
func (s *Set) Get(id int) (*Rule, error) {
	rule, ok := s.rules[id]
	if !ok {
		return nil, &RuleNotFoundError{ID: id}
	}
	return rule, nil
}

// All returns the rules in ascending ID order.
func (s *Set) All() []*Rule {
	ids := make([]int, 0, len(s.rules))
	for id := range s.rules {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	out := make([]*Rule, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.rules[id])
	}
	return out
}

// Labels returns every label targeted by any rule, in rule order.
func (s *Set) Labels() []string {
	var out []string
	for _, rule := range s.All() {
		out = append(out, rule.Labels...)
	}
	return out
}

// Add inserts a rule built from the policy, optional first label, and
// action. When id is zero the next free ID is assigned. When the policy has
// GenerateLabel set, the conventional retention label is added as a target
// so the rule also applies to mail users tag by hand.
func (s *Set) Add(id int, policy retention.Policy, label string, action Action) (*Rule, error) {
	if id == 0 {
		id = s.nextID()
	}
	if _, ok := s.rules[id]; ok {
		return nil, fmt.Errorf("rule %d already exists", id)
	}
	rule := &Rule{ID: id, Policy: policy, Action: action}
	if policy.GenerateLabel {
		rule.addLabel(policy.Age.LabelSuffix())
	}
	rule.addLabel(label)
	s.rules[id] = rule
	return rule, nil
}

// Remove deletes the rule with the given ID. Removing an unknown ID is an
// error, not a no-op, and leaves the set unchanged.
func (s *Set) Remove(id int) error {
	if _, ok := s.rules[id]; !ok {
		return &RuleNotFoundError{ID: id}
	}
	delete(s.rules, id)
	return nil
}

// AddLabel adds a target label to an existing rule.
func (s *Set) AddLabel(id int, label string) error {
	rule, err := s.Get(id)
	if err != nil {
		return err
	}
	rule.addLabel(label)
	return nil
}

// RemoveLabel removes a target label from an existing rule.
func (s *Set) RemoveLabel(id int, label string) error {
	rule, err := s.Get(id)
	if err != nil {
		return err
	}
	rule.removeLabel(label)
	return nil
}

// SetAction changes the disposal action of an existing rule.
func (s *Set) SetAction(id int, action Action) error {
	rule, err := s.Get(id)
	if err != nil {
		return err
	}
	rule.Action = action
	return nil
}

func (s *Set) nextID() int {
	max := 0
	for id := range s.rules {
		if id > max {
			max = id
		}
	}
	return max + 1
}
