// Command mailcull-run evaluates the configured retention rules against a
// Gmail mailbox and disposes matching messages. Dry-run is the default;
// nothing is mutated without -execute.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
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

type runConfig struct {
	cfgDir     string
	rulesPath  string
	authMode   string
	execute    bool
	skipTrash  bool
	skipDelete bool
	ruleIDs    string
	pageSize   int
	maxPages   int
	rps        int
	jsonOut    string
}

func main() {
	cfg := parseFlags()
	if err := run(cfg); err != nil {
		runtime.DefaultLogger().Error("mailcull-run failed", "error", err)
		os.Exit(1)
	}
}

func parseFlags() runConfig {
	defaults := config.Load()

	cfgDir := flag.String("config", defaults.ConfigDir, "auth/credential directory")
	rulesPath := flag.String("rules", defaults.RulesPath, "rules file")
	authMode := flag.String("auth", defaults.AuthMode, "credential bootstrap: gmailctl or oauth")
	execute := flag.Bool("execute", false, "apply disposals; default is dry-run")
	skipTrash := flag.Bool("skip-trash", false, "skip all trash-action rules")
	skipDelete := flag.Bool("skip-delete", false, "skip all delete-action rules")
	ruleIDs := flag.String("rule", "", "comma separated rule ids; empty runs all")
	pageSize := flag.Int("page-size", defaults.PageSize, "Gmail list page size (<=500)")
	maxPages := flag.Int("max-pages", 0, "max pages per label; 0 means all")
	rps := flag.Int("rps", defaults.RPS, "max requests per second")
	jsonOut := flag.String("json", "", "write JSON report to path")
	flag.Parse()

	return runConfig{
		cfgDir:     *cfgDir,
		rulesPath:  *rulesPath,
		authMode:   *authMode,
		execute:    *execute,
		skipTrash:  *skipTrash,
		skipDelete: *skipDelete,
		ruleIDs:    *ruleIDs,
		pageSize:   *pageSize,
		maxPages:   *maxPages,
		rps:        *rps,
		jsonOut:    *jsonOut,
	}
}

func run(cfg runConfig) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	logger := runtime.DefaultLogger()

	set, err := (rules.Store{Path: cfg.rulesPath}).Load()
	if err != nil {
		return fmt.Errorf("load rules: %w", err)
	}
	if set.Len() == 0 {
		logger.Info("no rules configured", "rules", cfg.rulesPath)
		return nil
	}

	ids, err := parseRuleIDs(cfg.ruleIDs)
	if err != nil {
		return err
	}

	scope := runtime.ScopeReadonly
	if cfg.execute {
		scope = runtime.ScopeModify
	}
	client, err := newClient(ctx, cfg, scope)
	if err != nil {
		return fmt.Errorf("create gmail client: %w", err)
	}

	var limiter rate.Limiter
	if cfg.rps > 0 {
		bucket := rate.NewTokenBucket(cfg.rps)
		defer bucket.Stop()
		limiter = bucket
	}

	proc := cull.NewProcessor(client, limiter, logger)
	opts := cull.Options{
		SkipTrash:  cfg.skipTrash,
		SkipDelete: cfg.skipDelete,
		RuleIDs:    ids,
		PageSize:   cfg.pageSize,
		MaxPages:   cfg.maxPages,
	}
	if cfg.execute {
		opts.Mode = cull.Execute
	}

	outcomes, runErr := proc.Run(ctx, set, opts)

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
		return fmt.Errorf("run rules: %w", runErr)
	}
	if rep.Failed > 0 || rep.Errors > 0 {
		return errors.New("run completed with failures; see report")
	}
	return nil
}

func newClient(ctx context.Context, cfg runConfig, scope runtime.Scope) (gmail.Client, error) {
	if cfg.authMode == "oauth" {
		return runtime.NewOAuthGmailClient(ctx, cfg.cfgDir, scope)
	}
	return runtime.NewGmailClient(ctx, cfg.cfgDir, scope)
}

func parseRuleIDs(input string) ([]int, error) {
	if strings.TrimSpace(input) == "" {
		return nil, nil
	}
	var ids []int
	for _, part := range strings.Split(input, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.Atoi(part)
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("invalid rule id %q", part)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
