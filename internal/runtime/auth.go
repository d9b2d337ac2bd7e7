package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/mbrt/gmailctl/cmd/gmailctl/localcred"
	"google.golang.org/api/gmail/v1"

	gc "github.com/mkern/mailcull/internal/gmail"
)

// Scope selects how much Gmail access a binary requests.
type Scope int

const (
	ScopeReadonly Scope = iota
	ScopeModify
)

// NewGmailClient bootstraps a Gmail client through gmailctl's local
// credential store under cfgDir.
func NewGmailClient(ctx context.Context, cfgDir string, scope Scope) (gc.Client, error) {
	var (
		svc *gmail.Service
		err error
	)
	switch scope {
	case ScopeReadonly:
		svc, err = (localcred.Provider{}).ServiceWithScopes(ctx, cfgDir, gmail.GmailReadonlyScope)
	case ScopeModify:
		svc, err = (localcred.Provider{}).ServiceWithScopes(ctx, cfgDir, gmail.GmailModifyScope)
	default:
		return nil, fmt.Errorf("unknown scope %d", scope)
	}
	if err != nil {
		return nil, fmt.Errorf("authorize gmail: %w", err)
	}
	return NewGoogleAPIClient(svc), nil
}

// DefaultLogger returns the process logger: slog text to stderr at info.
func DefaultLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
}
