// Package report renders the outcomes of a processing run for humans and
// for machine consumption.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mkern/mailcull/internal/cull"
)

// Row is one rule×label×chunk outcome in serializable form.
type Row struct {
	Rule      int    `json:"rule"`
	Label     string `json:"label"`
	Chunk     int    `json:"chunk,omitempty"`
	Action    string `json:"action"`
	DryRun    bool   `json:"dry_run,omitempty"`
	Attempted int    `json:"attempted"`
	Succeeded int    `json:"succeeded"`
	Failed    int    `json:"failed"`
	Cancelled bool   `json:"cancelled,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Report summarizes a full run.
type Report struct {
	GeneratedAt time.Time `json:"generated_at"`
	DryRun      bool      `json:"dry_run"`
	Rows        []Row     `json:"rows"`
	Attempted   int       `json:"attempted"`
	Succeeded   int       `json:"succeeded"`
	Failed      int       `json:"failed"`
	Cancelled   int       `json:"cancelled"`
	Errors      int       `json:"errors"`
}

// Build converts raw outcomes into a Report. Every outcome becomes a row;
// nothing is collapsed or dropped.
func Build(outcomes []cull.Outcome, dryRun bool, now time.Time) Report {
	rep := Report{GeneratedAt: now, DryRun: dryRun}
	for _, o := range outcomes {
		row := Row{
			Rule:      o.RuleID,
			Label:     o.Label,
			Chunk:     o.Chunk,
			Action:    o.Action.String(),
			DryRun:    o.DryRun,
			Attempted: len(o.Attempted),
			Succeeded: len(o.Succeeded),
			Failed:    len(o.Failed),
			Cancelled: o.Cancelled,
		}
		if o.Err != nil {
			row.Error = o.Err.Error()
			rep.Errors++
		}
		rep.Attempted += row.Attempted
		rep.Succeeded += row.Succeeded
		rep.Failed += row.Failed
		if o.Cancelled {
			rep.Cancelled++
		}
		rep.Rows = append(rep.Rows, row)
	}
	return rep
}

// PrintHuman writes a readable summary to w.
func PrintHuman(rep Report, w io.Writer) error {
	if w == nil {
		w = os.Stdout
	}
	var b strings.Builder
	mode := "execute"
	if rep.DryRun {
		mode = "dry-run"
	}
	fmt.Fprintf(&b, "mailcull run (%s) — %d attempted, %d succeeded, %d failed\n",
		mode, rep.Attempted, rep.Succeeded, rep.Failed)
	for _, row := range rep.Rows {
		loc := fmt.Sprintf("rule %d label %q", row.Rule, row.Label)
		if row.Chunk > 0 {
			loc += fmt.Sprintf(" chunk %d", row.Chunk)
		}
		switch {
		case row.Cancelled:
			fmt.Fprintf(&b, "  %-45s cancelled (%d pending)\n", loc, row.Attempted)
		case row.Error != "":
			fmt.Fprintf(&b, "  %-45s error: %s\n", loc, row.Error)
		case row.DryRun:
			fmt.Fprintf(&b, "  %-45s would dispose %d\n", loc, row.Attempted)
		default:
			fmt.Fprintf(&b, "  %-45s %d ok, %d failed\n", loc, row.Succeeded, row.Failed)
		}
	}
	if rep.Cancelled > 0 {
		fmt.Fprintf(&b, "run cancelled with %d chunk(s) pending\n", rep.Cancelled)
	}
	if _, err := io.WriteString(w, b.String()); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

// WriteJSON serializes the report to a path relative to the working
// directory.
func WriteJSON(rep Report, path string) error {
	clean := strings.TrimSpace(path)
	if clean == "" {
		return fmt.Errorf("path must not be empty")
	}
	clean = filepath.Clean(clean)
	if filepath.IsAbs(clean) {
		return fmt.Errorf("output path must be relative, got %s", clean)
	}
	if strings.HasPrefix(clean, "..") {
		return fmt.Errorf("output path %s escapes working directory", clean)
	}
	wd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("determine working directory: %w", err)
	}
	abs := filepath.Join(wd, clean)
	f, err := os.OpenFile(abs, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600) // #nosec G304
	if err != nil {
		return fmt.Errorf("create %s: %w", abs, err)
	}
	defer func() { _ = f.Close() }()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(rep); err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	return nil
}
