// Package runtime wires the abstract Gmail capability interface to the real
// Google API client and handles credential bootstrap.
package runtime

import (
	"context"
	"fmt"

	"google.golang.org/api/gmail/v1"

	gc "github.com/mkern/mailcull/internal/gmail"
	"github.com/mkern/mailcull/internal/rules"
)

// trashLabelID is Gmail's system label for the trash folder.
const trashLabelID = "TRASH"

type googleClient struct{ svc *gmail.Service }

// NewGoogleAPIClient adapts a *gmail.Service to the mailcull capability
// interface.
func NewGoogleAPIClient(svc *gmail.Service) gc.Client { return &googleClient{svc} }

func (g *googleClient) List(ctx context.Context, q gc.Query, pageToken string, pageSize int) (gc.ListPage, error) {
	call := g.svc.Users.Messages.List("me").Q(q.Raw).MaxResults(int64(pageSize))
	if pageToken != "" {
		call = call.PageToken(pageToken)
	}
	res, err := call.Context(ctx).Do()
	if err != nil {
		return gc.ListPage{}, fmt.Errorf("list messages: %w", err)
	}
	page := gc.ListPage{NextPageToken: res.NextPageToken}
	for _, m := range res.Messages {
		page.IDs = append(page.IDs, gc.MessageID(m.Id))
	}
	return page, nil
}

func (g *googleClient) ListLabels(ctx context.Context) (map[string]gc.LabelID, map[gc.LabelID]string, error) {
	res, err := g.svc.Users.Labels.List("me").Context(ctx).Do()
	if err != nil {
		return nil, nil, fmt.Errorf("list labels: %w", err)
	}
	if len(res.Labels) == 0 {
		return nil, nil, gc.ErrNoLabels
	}
	byName := make(map[string]gc.LabelID, len(res.Labels))
	byID := make(map[gc.LabelID]string, len(res.Labels))
	for _, l := range res.Labels {
		byName[l.Name] = gc.LabelID(l.Id)
		byID[gc.LabelID(l.Id)] = l.Name
	}
	return byName, byID, nil
}

func (g *googleClient) EnsureLabel(ctx context.Context, name string) (gc.LabelID, error) {
	byName, _, err := g.ListLabels(ctx)
	if err != nil {
		return "", err
	}
	if id, ok := byName[name]; ok {
		return id, nil
	}
	created, err := g.svc.Users.Labels.Create("me", &gmail.Label{Name: name}).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("create label %q: %w", name, err)
	}
	return gc.LabelID(created.Id), nil
}

func (g *googleClient) ApplyLabel(ctx context.Context, label gc.LabelID, ids []gc.MessageID) error {
	req := &gmail.BatchModifyMessagesRequest{
		Ids:         toStrings(ids),
		AddLabelIds: []string{string(label)},
	}
	if err := g.svc.Users.Messages.BatchModify("me", req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("apply label: %w", err)
	}
	return nil
}

// Dispose maps the closed action set onto Gmail's batch endpoints: Trash is
// batchModify adding TRASH, Delete is batchDelete. Gmail reports only
// whole-call results, so per-id failures are never populated here.
func (g *googleClient) Dispose(ctx context.Context, action rules.Action, ids []gc.MessageID) (gc.DisposeResult, error) {
	switch action {
	case rules.Trash:
		req := &gmail.BatchModifyMessagesRequest{
			Ids:         toStrings(ids),
			AddLabelIds: []string{trashLabelID},
		}
		if err := g.svc.Users.Messages.BatchModify("me", req).Context(ctx).Do(); err != nil {
			return gc.DisposeResult{}, fmt.Errorf("batch trash: %w", err)
		}
	case rules.Delete:
		req := &gmail.BatchDeleteMessagesRequest{Ids: toStrings(ids)}
		if err := g.svc.Users.Messages.BatchDelete("me", req).Context(ctx).Do(); err != nil {
			return gc.DisposeResult{}, fmt.Errorf("batch delete: %w", err)
		}
	default:
		return gc.DisposeResult{}, fmt.Errorf("unknown action %v", action)
	}
	return gc.DisposeResult{}, nil
}

func toStrings(ids []gc.MessageID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = string(id)
	}
	return out
}
