package cull

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/mkern/mailcull/internal/gmail"
	"github.com/mkern/mailcull/internal/rules"
)

// AdHocOptions describes a one-off message operation outside any configured
// rule: an arbitrary predicate built from label filters and a raw search
// query, disposed with the given action. No marker labels are involved, so
// an ad-hoc run is not idempotent; dry-run is the zero-value mode.
type AdHocOptions struct {
	Labels   []string // each adds a conjoined label:"..." clause
	Query    string   // raw provider search syntax, appended verbatim
	Action   rules.Action
	Mode     Mode
	PageSize int
	MaxPages int
}

// BuildAdHocQuery renders the predicate for an ad-hoc operation. Label
// clauses are conjoined, then the raw query fragment. Both parts may be
// empty; an empty predicate matches the whole mailbox, which is why callers
// default to dry-run.
func BuildAdHocQuery(labels []string, raw string) gmail.Query {
	var clauses []string
	for _, label := range labels {
		if label == "" {
			continue
		}
		clauses = append(clauses, fmt.Sprintf("label:%q", label))
	}
	if raw = strings.TrimSpace(raw); raw != "" {
		clauses = append(clauses, raw)
	}
	return gmail.Query{Raw: strings.Join(clauses, " ")}
}

// RunAdHoc enumerates the messages matching opts and disposes them in
// chunks, reporting per-chunk outcomes exactly like a rule run. Outcomes
// carry rule id 0 since no rule is involved. An enumeration failure aborts
// the operation; nothing is disposed from an incomplete set.
func (p *Processor) RunAdHoc(ctx context.Context, opts AdHocOptions) ([]Outcome, error) {
	if p.Logger == nil {
		p.Logger = slog.New(slog.NewTextHandler(os.Stderr, nil))
	}
	if p.Clock == nil {
		p.Clock = time.Now
	}

	query := BuildAdHocQuery(opts.Labels, opts.Query)
	display := strings.Join(opts.Labels, ",")
	log := p.Logger.With("label", display, "action", opts.Action.String(), "query", query.Raw)

	enum := &Enumerator{
		Client:   p.Client,
		Limiter:  p.Limiter,
		PageSize: opts.PageSize,
		MaxPages: opts.MaxPages,
	}
	ids, err := enum.Enumerate(ctx, query)
	if err != nil {
		log.ErrorContext(ctx, "enumeration failed", "error", err)
		return nil, fmt.Errorf("enumerate ad-hoc query: %w", err)
	}
	if len(ids) == 0 {
		log.InfoContext(ctx, "no matching messages")
		return nil, nil
	}
	log.InfoContext(ctx, "enumerated messages", "count", len(ids))

	chunks := chunkIDs(ids, p.chunkSize())
	if opts.Mode == DryRun {
		outcomes := make([]Outcome, 0, len(chunks))
		for i, chunk := range chunks {
			log.InfoContext(ctx, "dry-run: would dispose chunk", "chunk", i+1, "count", len(chunk))
			outcomes = append(outcomes, Outcome{
				Label: display, Chunk: i + 1,
				Action: opts.Action, DryRun: true, Attempted: chunk,
			})
		}
		return outcomes, nil
	}

	outcomes := p.disposeChunks(ctx, 0, display, opts.Action, chunks)
	if ctx.Err() != nil {
		return outcomes, fmt.Errorf("run cancelled: %w", ctx.Err())
	}
	return outcomes, nil
}
