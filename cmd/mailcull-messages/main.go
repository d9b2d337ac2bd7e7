// Command mailcull-messages runs ad-hoc message operations outside the
// configured rule set: an arbitrary label/query predicate with a list,
// trash, or delete action. Trash and delete preview by default; nothing is
// mutated without -execute.
//
//	mailcull-messages list -query "older_than:1y" -max-pages 1
//	mailcull-messages trash -label newsletters -query "older_than:6m"
//	mailcull-messages delete -label promotions -execute
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/mkern/mailcull/internal/config"
	"github.com/mkern/mailcull/internal/cull"
	"github.com/mkern/mailcull/internal/gmail"
	"github.com/mkern/mailcull/internal/rate"
	"github.com/mkern/mailcull/internal/report"
	"github.com/mkern/mailcull/internal/rules"
	"github.com/mkern/mailcull/internal/runtime"
)

type messagesConfig struct {
	cfgDir   string
	authMode string
	labels   string
	query    string
	execute  bool
	pageSize int
	maxPages int
	rps      int
	jsonOut  string
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		runtime.DefaultLogger().Error("mailcull-messages failed", "error", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: mailcull-messages <list|trash|delete> [flags]")
	}
	verb, rest := args[0], args[1:]

	cfg, err := parseFlags(verb, rest)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	switch verb {
	case "list":
		return list(ctx, cfg)
	case "trash":
		return dispose(ctx, cfg, rules.Trash)
	case "delete":
		return dispose(ctx, cfg, rules.Delete)
	}
	return fmt.Errorf("unknown command %q", verb)
}

func parseFlags(verb string, args []string) (messagesConfig, error) {
	defaults := config.Load()

	fs := flag.NewFlagSet(verb, flag.ExitOnError)
	cfgDir := fs.String("config", defaults.ConfigDir, "auth/credential directory")
	authMode := fs.String("auth", defaults.AuthMode, "credential bootstrap: gmailctl or oauth")
	labels := fs.String("label", "", "comma separated labels; all must be present")
	query := fs.String("query", "", "Gmail search query, e.g. \"older_than:1y has:attachment\"")
	execute := fs.Bool("execute", false, "apply the action; default is dry-run")
	pageSize := fs.Int("page-size", defaults.PageSize, "Gmail list page size (<=500)")
	maxPages := fs.Int("max-pages", 0, "max pages to enumerate; 0 means all")
	rps := fs.Int("rps", defaults.RPS, "max requests per second")
	jsonOut := fs.String("json", "", "write JSON report to path")
	if err := fs.Parse(args); err != nil {
		return messagesConfig{}, err
	}

	return messagesConfig{
		cfgDir:   *cfgDir,
		authMode: *authMode,
		labels:   *labels,
		query:    *query,
		execute:  *execute,
		pageSize: *pageSize,
		maxPages: *maxPages,
		rps:      *rps,
		jsonOut:  *jsonOut,
	}, nil
}

func list(ctx context.Context, cfg messagesConfig) error {
	client, err := newClient(ctx, cfg, runtime.ScopeReadonly)
	if err != nil {
		return fmt.Errorf("create gmail client: %w", err)
	}
	limiter, stop := newLimiter(cfg)
	defer stop()

	enum := &cull.Enumerator{
		Client:   client,
		Limiter:  limiter,
		PageSize: cfg.pageSize,
		MaxPages: cfg.maxPages,
	}
	ids, err := enum.Enumerate(ctx, cull.BuildAdHocQuery(splitLabels(cfg.labels), cfg.query))
	if err != nil {
		return fmt.Errorf("enumerate messages: %w", err)
	}
	for _, id := range ids {
		fmt.Println(id)
	}
	fmt.Printf("%d message(s)\n", len(ids))
	return nil
}

func dispose(ctx context.Context, cfg messagesConfig, action rules.Action) error {
	scope := runtime.ScopeReadonly
	if cfg.execute {
		scope = runtime.ScopeModify
	}
	client, err := newClient(ctx, cfg, scope)
	if err != nil {
		return fmt.Errorf("create gmail client: %w", err)
	}
	limiter, stop := newLimiter(cfg)
	defer stop()

	proc := cull.NewProcessor(client, limiter, runtime.DefaultLogger())
	opts := cull.AdHocOptions{
		Labels:   splitLabels(cfg.labels),
		Query:    cfg.query,
		Action:   action,
		PageSize: cfg.pageSize,
		MaxPages: cfg.maxPages,
	}
	if cfg.execute {
		opts.Mode = cull.Execute
	}

	outcomes, runErr := proc.RunAdHoc(ctx, opts)

	rep := report.Build(outcomes, !cfg.execute, proc.Clock())
	if err := report.PrintHuman(rep, os.Stdout); err != nil {
		return err
	}
	if cfg.jsonOut != "" {
		if err := report.WriteJSON(rep, cfg.jsonOut); err != nil {
			return err
		}
	}
	if runErr != nil {
		return fmt.Errorf("%s messages: %w", action, runErr)
	}
	if rep.Failed > 0 || rep.Errors > 0 {
		return errors.New("run completed with failures; see report")
	}
	return nil
}

func newClient(ctx context.Context, cfg messagesConfig, scope runtime.Scope) (gmail.Client, error) {
	if cfg.authMode == "oauth" {
		return runtime.NewOAuthGmailClient(ctx, cfg.cfgDir, scope)
	}
	return runtime.NewGmailClient(ctx, cfg.cfgDir, scope)
}

func newLimiter(cfg messagesConfig) (rate.Limiter, func()) {
	if cfg.rps <= 0 {
		return nil, func() {}
	}
	bucket := rate.NewTokenBucket(cfg.rps)
	return bucket, bucket.Stop
}

func splitLabels(input string) []string {
	var labels []string
	for _, part := range strings.Split(input, ",") {
		if part = strings.TrimSpace(part); part != "" {
			labels = append(labels, part)
		}
	}
	return labels
}
