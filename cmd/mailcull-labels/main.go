// Command mailcull-labels lists the mailbox's labels with their provider
// ids, which helps when picking rule targets.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/mkern/mailcull/internal/config"
	"github.com/mkern/mailcull/internal/gmail"
	"github.com/mkern/mailcull/internal/runtime"
)

type labelsConfig struct {
	cfgDir   string
	authMode string
}

func main() {
	defaults := config.Load()
	cfgDir := flag.String("config", defaults.ConfigDir, "auth/credential directory")
	authMode := flag.String("auth", defaults.AuthMode, "credential bootstrap: gmailctl or oauth")
	flag.Parse()

	cfg := labelsConfig{cfgDir: *cfgDir, authMode: *authMode}
	if err := run(cfg); err != nil {
		runtime.DefaultLogger().Error("mailcull-labels failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg labelsConfig) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var (
		client gmail.Client
		err    error
	)
	if cfg.authMode == "oauth" {
		client, err = runtime.NewOAuthGmailClient(ctx, cfg.cfgDir, runtime.ScopeReadonly)
	} else {
		client, err = runtime.NewGmailClient(ctx, cfg.cfgDir, runtime.ScopeReadonly)
	}
	if err != nil {
		return fmt.Errorf("create gmail client: %w", err)
	}

	byName, _, err := client.ListLabels(ctx)
	if err != nil {
		return fmt.Errorf("list labels: %w", err)
	}

	names := make([]string, 0, len(byName))
	for name := range byName {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Printf("%s: %s\n", name, byName[name])
	}
	return nil
}
