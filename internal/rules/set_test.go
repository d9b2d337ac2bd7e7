package rules

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/mkern/mailcull/internal/retention"
)

func mustPolicy(t *testing.T, token string, generate bool) retention.Policy {
	t.Helper()
	policy, err := retention.NewPolicy(token, generate)
	if err != nil {
		t.Fatalf("policy %q: %v", token, err)
	}
	return policy
}

func TestAddAssignsAscendingIDs(t *testing.T) {
	set := NewSet()
	first, err := set.Add(0, mustPolicy(t, "y:1", false), "old", Trash)
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	second, err := set.Add(0, mustPolicy(t, "m:6", false), "news", Delete)
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if first.ID != 1 || second.ID != 2 {
		t.Fatalf("got ids %d, %d; want 1, 2", first.ID, second.ID)
	}
}

func TestAddRejectsDuplicateID(t *testing.T) {
	set := NewSet()
	if _, err := set.Add(3, mustPolicy(t, "y:1", false), "", Trash); err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, err := set.Add(3, mustPolicy(t, "d:30", false), "", Trash); err == nil {
		t.Fatal("expected duplicate id error")
	}
}

func TestGenerateLabelAddsRetentionLabel(t *testing.T) {
	set := NewSet()
	rule, err := set.Add(0, mustPolicy(t, "m:6", true), "newsletter", Trash)
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	want := []string{"retention/6-months", "newsletter"}
	if diff := cmp.Diff(want, rule.Labels); diff != "" {
		t.Fatalf("labels mismatch (-want +got):\n%s", diff)
	}
}

func TestAllIteratesByAscendingID(t *testing.T) {
	set := NewSet()
	for _, id := range []int{7, 2, 5} {
		if _, err := set.Add(id, mustPolicy(t, "d:30", false), "", Trash); err != nil {
			t.Fatalf("add %d: %v", id, err)
		}
	}
	var got []int
	for _, rule := range set.All() {
		got = append(got, rule.ID)
	}
	if diff := cmp.Diff([]int{2, 5, 7}, got); diff != "" {
		t.Fatalf("order mismatch (-want +got):\n%s", diff)
	}
}

func TestRemoveUnknownIDIsError(t *testing.T) {
	set := NewSet()
	if _, err := set.Add(1, mustPolicy(t, "y:1", false), "old", Trash); err != nil {
		t.Fatalf("add: %v", err)
	}

	err := set.Remove(99)
	var notFound *RuleNotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("expected RuleNotFoundError, got %v", err)
	}
	if notFound.ID != 99 {
		t.Fatalf("error id %d, want 99", notFound.ID)
	}
	if set.Len() != 1 {
		t.Fatalf("set mutated: len %d, want 1", set.Len())
	}
}

func TestLabelMutators(t *testing.T) {
	set := NewSet()
	if _, err := set.Add(1, mustPolicy(t, "y:1", false), "a", Trash); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := set.AddLabel(1, "b"); err != nil {
		t.Fatalf("add label: %v", err)
	}
	if err := set.AddLabel(1, "b"); err != nil {
		t.Fatalf("duplicate label add should be a no-op: %v", err)
	}
	if err := set.RemoveLabel(1, "a"); err != nil {
		t.Fatalf("remove label: %v", err)
	}
	rule, err := set.Get(1)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if diff := cmp.Diff([]string{"b"}, rule.Labels); diff != "" {
		t.Fatalf("labels mismatch (-want +got):\n%s", diff)
	}

	if err := set.AddLabel(42, "x"); !errors.As(err, new(*RuleNotFoundError)) {
		t.Fatalf("expected RuleNotFoundError, got %v", err)
	}
}

func TestSetAction(t *testing.T) {
	set := NewSet()
	if _, err := set.Add(1, mustPolicy(t, "y:1", false), "old", Trash); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := set.SetAction(1, Delete); err != nil {
		t.Fatalf("set action: %v", err)
	}
	rule, _ := set.Get(1)
	if rule.Action != Delete {
		t.Fatalf("action %v, want delete", rule.Action)
	}
}

func TestMarkerLabelUsesReservedPrefix(t *testing.T) {
	rule := &Rule{ID: 12}
	want := "mailcull/processed/rule-12"
	if got := rule.MarkerLabel(); got != want {
		t.Fatalf("got %q want %q", got, want)
	}
}

func TestDescribe(t *testing.T) {
	set := NewSet()
	rule, err := set.Add(1, mustPolicy(t, "y:5", true), "", Trash)
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	want := "Rule #1 is active on `retention/5-years`; move the message to trash if it is more than 5 years old."
	if got := rule.Describe(); got != want {
		t.Fatalf("got %q\nwant %q", got, want)
	}
}
