// Package rules holds the retention rule model: a disposal action bound to
// an age policy and a set of target labels, collected into an ordered set.
package rules

import "fmt"

// Action is the disposal applied to matched messages. Trash is reversible
// (Gmail purges trashed mail after its own retention window); Delete is not.
type Action int

const (
	Trash Action = iota
	Delete
)

func (a Action) String() string {
	switch a {
	case Trash:
		return "trash"
	case Delete:
		return "delete"
	}
	return "unknown"
}

// ParseAction parses a case-insensitive action name.
func ParseAction(s string) (Action, error) {
	switch s {
	case "trash", "Trash", "TRASH":
		return Trash, nil
	case "delete", "Delete", "DELETE":
		return Delete, nil
	}
	return Trash, fmt.Errorf("unknown action %q: must be trash or delete", s)
}

// Describe renders the action as a verb phrase for rule descriptions.
func (a Action) Describe() string {
	if a == Delete {
		return "delete the message"
	}
	return "move the message to trash"
}
