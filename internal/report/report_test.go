package report

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/mkern/mailcull/internal/cull"
	"github.com/mkern/mailcull/internal/gmail"
	"github.com/mkern/mailcull/internal/rules"
)

func TestBuildTotals(t *testing.T) {
	outcomes := []cull.Outcome{
		{
			RuleID: 1, Label: "news", Chunk: 1, Action: rules.Trash,
			Attempted: []gmail.MessageID{"a", "b"},
			Succeeded: []gmail.MessageID{"a"},
			Failed:    map[gmail.MessageID]string{"b": "boom"},
		},
		{
			RuleID: 2, Label: "spam", Action: rules.Delete,
			Err: errors.New("label not found"),
		},
		{
			RuleID: 1, Label: "news", Chunk: 2, Action: rules.Trash,
			Attempted: []gmail.MessageID{"c"}, Cancelled: true,
		},
	}
	rep := Build(outcomes, false, time.Unix(1700000000, 0))
	if len(rep.Rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rep.Rows))
	}
	if rep.Attempted != 3 || rep.Succeeded != 1 || rep.Failed != 1 {
		t.Fatalf("totals attempted=%d succeeded=%d failed=%d", rep.Attempted, rep.Succeeded, rep.Failed)
	}
	if rep.Errors != 1 || rep.Cancelled != 1 {
		t.Fatalf("errors=%d cancelled=%d", rep.Errors, rep.Cancelled)
	}
}

func TestPrintHuman(t *testing.T) {
	rep := Build([]cull.Outcome{
		{
			RuleID: 3, Label: "old", Chunk: 1, Action: rules.Trash, DryRun: true,
			Attempted: []gmail.MessageID{"a", "b", "c"},
		},
	}, true, time.Unix(1700000000, 0))

	var sb strings.Builder
	if err := PrintHuman(rep, &sb); err != nil {
		t.Fatalf("print: %v", err)
	}
	out := sb.String()
	for _, want := range []string{"dry-run", `rule 3 label "old" chunk 1`, "would dispose 3"} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
}

func TestWriteJSONRejectsAbsolutePath(t *testing.T) {
	rep := Report{}
	if err := WriteJSON(rep, "/tmp/out.json"); err == nil {
		t.Fatal("expected error for absolute path")
	}
	if err := WriteJSON(rep, "../escape.json"); err == nil {
		t.Fatal("expected error for escaping path")
	}
}
