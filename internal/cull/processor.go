package cull

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/mkern/mailcull/internal/gmail"
	"github.com/mkern/mailcull/internal/rate"
	"github.com/mkern/mailcull/internal/rules"
)

// Gmail caps batchModify and batchDelete at 1000 ids per call.
const defaultChunkSize = 1000

const defaultChunkWorkers = 4

// Mode selects between previewing and mutating.
type Mode int

const (
	// DryRun computes and reports matches without invoking any mutation.
	// It is the default everywhere a Mode is zero-valued.
	DryRun Mode = iota
	Execute
)

// Options controls a single processing run.
type Options struct {
	Mode       Mode
	SkipTrash  bool  // drop all trash-action rules from the run
	SkipDelete bool  // drop all delete-action rules from the run
	RuleIDs    []int // restrict the run to these rules; empty means all
	PageSize   int
	MaxPages   int // 0 means enumerate every page
}

// Processor orchestrates a run: rule selection, enumeration, chunked
// disposal, and marker application.
type Processor struct {
	Client       gmail.Client
	Limiter      rate.Limiter
	Logger       *slog.Logger
	Clock        func() time.Time
	ChunkSize    int
	ChunkWorkers int // concurrent disposals within one rule×label
	Markers      *LabelCache
}

// NewProcessor constructs a Processor with defaults suitable for the real
// Gmail API.
func NewProcessor(client gmail.Client, limiter rate.Limiter, logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, nil))
	}
	return &Processor{
		Client:       client,
		Limiter:      limiter,
		Logger:       logger,
		Clock:        time.Now,
		ChunkSize:    defaultChunkSize,
		ChunkWorkers: defaultChunkWorkers,
		Markers:      NewLabelCache(),
	}
}

// Run executes the selected rules against the mailbox and returns every
// per-chunk outcome in execution order. A non-nil error alongside outcomes
// means the run stopped early (configuration error, missing mailbox labels,
// or cancellation); outcomes already produced are still returned.
func (p *Processor) Run(ctx context.Context, set *rules.Set, opts Options) ([]Outcome, error) {
	if p.Markers == nil {
		p.Markers = NewLabelCache()
	}
	if p.Clock == nil {
		p.Clock = time.Now
	}
	if p.Logger == nil {
		p.Logger = slog.New(slog.NewTextHandler(os.Stderr, nil))
	}

	selected, err := p.selectRules(set, opts)
	if err != nil {
		return nil, err
	}
	if len(selected) == 0 {
		p.Logger.InfoContext(ctx, "no rules selected", "skip_trash", opts.SkipTrash, "skip_delete", opts.SkipDelete)
		return nil, nil
	}

	labelsByName, _, err := p.Client.ListLabels(ctx)
	if err != nil {
		return nil, fmt.Errorf("list mailbox labels: %w", err)
	}

	var outcomes []Outcome
	for _, rule := range selected {
		if len(rule.Labels) == 0 {
			p.Logger.InfoContext(ctx, "rule targets no labels, skipping", "rule", rule.ID)
			continue
		}
		for _, label := range rule.Labels {
			if ctx.Err() != nil {
				return outcomes, fmt.Errorf("run cancelled: %w", ctx.Err())
			}
			outcomes = append(outcomes, p.processPair(ctx, rule, label, labelsByName, opts)...)
		}
	}
	if ctx.Err() != nil {
		return outcomes, fmt.Errorf("run cancelled: %w", ctx.Err())
	}
	return outcomes, nil
}

// selectRules applies the explicit ID subset and skip flags, then orders
// the survivors: every trash rule before any delete rule, ascending ID
// within each class. Delete is irreversible and its predicates may depend
// on marker labels the trash phase writes, so trash always goes first.
func (p *Processor) selectRules(set *rules.Set, opts Options) ([]*rules.Rule, error) {
	var candidates []*rules.Rule
	if len(opts.RuleIDs) > 0 {
		for _, id := range opts.RuleIDs {
			rule, err := set.Get(id)
			if err != nil {
				return nil, err
			}
			candidates = append(candidates, rule)
		}
	} else {
		candidates = set.All()
	}

	var trash, del []*rules.Rule
	for _, rule := range candidates {
		switch rule.Action {
		case rules.Trash:
			if !opts.SkipTrash {
				trash = append(trash, rule)
			}
		case rules.Delete:
			if !opts.SkipDelete {
				del = append(del, rule)
			}
		}
	}
	byID := func(rs []*rules.Rule) {
		sort.Slice(rs, func(i, j int) bool { return rs[i].ID < rs[j].ID })
	}
	byID(trash)
	byID(del)
	return append(trash, del...), nil
}

// processPair runs the enumerate→chunk→dispose→mark sequence for one
// rule×label pair. Failures here are scoped to the pair.
func (p *Processor) processPair(
	ctx context.Context,
	rule *rules.Rule,
	label string,
	labelsByName map[string]gmail.LabelID,
	opts Options,
) []Outcome {
	log := p.Logger.With("rule", rule.ID, "label", label, "action", rule.Action.String())

	if _, ok := labelsByName[label]; !ok {
		log.WarnContext(ctx, "label not in mailbox, skipping pair")
		return []Outcome{{
			RuleID: rule.ID, Label: label, Action: rule.Action,
			DryRun: opts.Mode == DryRun,
			Err:    &LabelNotFoundError{Label: label},
		}}
	}

	exclude := ""
	if rule.Policy.GenerateLabel {
		marker := rule.MarkerLabel()
		_, inMailbox := labelsByName[marker]
		_, inCache := p.Markers.Lookup(marker)
		if inMailbox || inCache {
			exclude = marker
		}
	}

	query, err := BuildQuery(label, rule.Policy, exclude, p.Clock())
	if err != nil {
		return []Outcome{{
			RuleID: rule.ID, Label: label, Action: rule.Action,
			DryRun: opts.Mode == DryRun, Err: err,
		}}
	}
	log.DebugContext(ctx, "built query", "query", query.Raw)

	enum := &Enumerator{
		Client:   p.Client,
		Limiter:  p.Limiter,
		PageSize: opts.PageSize,
		MaxPages: opts.MaxPages,
	}
	ids, err := enum.Enumerate(ctx, query)
	if err != nil {
		// Never dispose from an incomplete set; fail the pair and let the
		// run continue with the next one.
		log.ErrorContext(ctx, "enumeration failed", "error", err)
		var partial []gmail.MessageID
		var enumErr *EnumerationError
		if errors.As(err, &enumErr) {
			partial = enumErr.Partial
		}
		return []Outcome{{
			RuleID: rule.ID, Label: label, Action: rule.Action,
			DryRun: opts.Mode == DryRun, Attempted: partial, Err: err,
		}}
	}
	if len(ids) == 0 {
		log.InfoContext(ctx, "no matching messages")
		return nil
	}
	log.InfoContext(ctx, "enumerated messages", "count", len(ids))

	chunks := chunkIDs(ids, p.chunkSize())
	if opts.Mode == DryRun {
		outcomes := make([]Outcome, 0, len(chunks))
		for i, chunk := range chunks {
			log.InfoContext(ctx, "dry-run: would dispose chunk", "chunk", i+1, "count", len(chunk))
			outcomes = append(outcomes, Outcome{
				RuleID: rule.ID, Label: label, Chunk: i + 1,
				Action: rule.Action, DryRun: true, Attempted: chunk,
			})
		}
		return outcomes
	}

	outcomes := p.disposeChunks(ctx, rule.ID, label, rule.Action, chunks)

	var succeeded []gmail.MessageID
	for _, o := range outcomes {
		succeeded = append(succeeded, o.Succeeded...)
	}
	if rule.Policy.GenerateLabel && len(succeeded) > 0 {
		// Failed ids stay unmarked so the next run retries them.
		if err := p.applyMarker(ctx, rule, succeeded); err != nil {
			log.WarnContext(ctx, "marker application failed, disposed messages will be re-selected", "error", err)
		}
	}
	return outcomes
}

// disposeChunks dispatches the pair's chunks with bounded concurrency.
// Chunks are independent of each other; marker application waits for all of
// them so it sees the complete succeeded set.
func (p *Processor) disposeChunks(
	ctx context.Context,
	ruleID int,
	label string,
	action rules.Action,
	chunks [][]gmail.MessageID,
) []Outcome {
	workers := p.ChunkWorkers
	if workers <= 0 {
		workers = 1
	}

	outcomes := make([]Outcome, len(chunks))
	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup
	for i, chunk := range chunks {
		if ctx.Err() != nil {
			// Remaining chunks are reported as cancelled, never silently
			// truncated.
			outcomes[i] = Outcome{
				RuleID: ruleID, Label: label, Chunk: i + 1,
				Action: action, Attempted: chunk, Cancelled: true,
				Err: ctx.Err(),
			}
			continue
		}
		wg.Add(1)
		go func(i int, chunk []gmail.MessageID) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			outcomes[i] = p.disposeChunk(ctx, ruleID, label, action, i+1, chunk)
		}(i, chunk)
	}
	wg.Wait()
	return outcomes
}

func (p *Processor) disposeChunk(
	ctx context.Context,
	ruleID int,
	label string,
	action rules.Action,
	index int,
	chunk []gmail.MessageID,
) Outcome {
	out := Outcome{
		RuleID: ruleID, Label: label, Chunk: index,
		Action: action, Attempted: chunk,
	}
	if err := p.wait(ctx); err != nil {
		if ctx.Err() != nil {
			out.Cancelled = true
		}
		out.Err = err
		out.Failed = failAll(chunk, err)
		return out
	}

	res, err := p.Client.Dispose(ctx, action, chunk)
	if err != nil {
		// Whole-chunk transport failure: every id in the chunk failed with
		// the same error. The next chunk is still attempted.
		p.Logger.ErrorContext(ctx, "chunk disposal failed",
			"rule", ruleID, "label", label, "chunk", index, "count", len(chunk), "error", err)
		out.Err = fmt.Errorf("rule %d label %q chunk %d: %w", ruleID, label, index, err)
		out.Failed = failAll(chunk, err)
		if ctx.Err() != nil {
			out.Cancelled = true
		}
		return out
	}

	// Per-id results from the provider are passed through unchanged.
	if len(res.Failed) > 0 {
		out.Failed = res.Failed
	}
	for _, id := range chunk {
		if _, failed := res.Failed[id]; !failed {
			out.Succeeded = append(out.Succeeded, id)
		}
	}
	p.Logger.InfoContext(ctx, "chunk disposed",
		"rule", ruleID, "label", label, "chunk", index,
		"succeeded", len(out.Succeeded), "failed", len(out.Failed))
	return out
}

func (p *Processor) applyMarker(ctx context.Context, rule *rules.Rule, ids []gmail.MessageID) error {
	marker := rule.MarkerLabel()
	labelID, err := p.Markers.Ensure(ctx, p.Client, marker)
	if err != nil {
		return fmt.Errorf("ensure marker %q: %w", marker, err)
	}
	for _, chunk := range chunkIDs(ids, p.chunkSize()) {
		if err := p.wait(ctx); err != nil {
			return err
		}
		if err := p.Client.ApplyLabel(ctx, labelID, chunk); err != nil {
			return fmt.Errorf("apply marker %q: %w", marker, err)
		}
	}
	return nil
}

func (p *Processor) chunkSize() int {
	if p.ChunkSize > 0 {
		return p.ChunkSize
	}
	return defaultChunkSize
}

func (p *Processor) wait(ctx context.Context) error {
	if p.Limiter == nil {
		return nil
	}
	if err := p.Limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit dispose: %w", err)
	}
	return nil
}

func chunkIDs(ids []gmail.MessageID, size int) [][]gmail.MessageID {
	var chunks [][]gmail.MessageID
	for i := 0; i < len(ids); i += size {
		j := i + size
		if j > len(ids) {
			j = len(ids)
		}
		chunks = append(chunks, ids[i:j])
	}
	return chunks
}

func failAll(ids []gmail.MessageID, err error) map[gmail.MessageID]string {
	failed := make(map[gmail.MessageID]string, len(ids))
	for _, id := range ids {
		failed[id] = err.Error()
	}
	return failed
}
