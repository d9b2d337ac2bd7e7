package cull

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/mkern/mailcull/internal/gmail"
	"github.com/mkern/mailcull/internal/rules"
)

// fakeClient is an in-memory Client for processor and enumerator tests.
type fakeClient struct {
	mu sync.Mutex

	labelsByName map[string]gmail.LabelID
	labelsByID   map[gmail.LabelID]string
	listLabelErr error

	pages       map[string][]gmail.ListPage // keyed by query string
	listCalls   []string
	listTokens  []string // page token of each List call, in order
	listErrOn   int      // 1-based call index that fails; 0 means never
	listCallNum int

	disposeCalls   []disposeCall
	disposeErrOn   int // 1-based chunk call index that fails whole-call
	disposeFailIDs map[gmail.MessageID]string

	ensured   []string
	ensureErr error
	applied   []applyCall
	applyErr  error
}

type disposeCall struct {
	action rules.Action
	ids    []gmail.MessageID
}

type applyCall struct {
	label gmail.LabelID
	ids   []gmail.MessageID
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		labelsByName: map[string]gmail.LabelID{},
		labelsByID:   map[gmail.LabelID]string{},
		pages:        map[string][]gmail.ListPage{},
	}
}

func (f *fakeClient) addLabel(name string) gmail.LabelID {
	id := gmail.LabelID(fmt.Sprintf("Label_%d", len(f.labelsByName)+1))
	f.labelsByName[name] = id
	f.labelsByID[id] = name
	return id
}

// List serves the query's pages keyed by token: the empty token names the
// first page and each page's NextPageToken names its successor. A token
// that matches no page is an error, so a caller that fails to advance (or
// invents) tokens surfaces immediately.
func (f *fakeClient) List(_ context.Context, q gmail.Query, pageToken string, _ int) (gmail.ListPage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCallNum++
	f.listCalls = append(f.listCalls, q.Raw)
	f.listTokens = append(f.listTokens, pageToken)
	if f.listErrOn > 0 && f.listCallNum == f.listErrOn {
		return gmail.ListPage{}, fmt.Errorf("transport: list failed")
	}
	queue := f.pages[q.Raw]
	if len(queue) == 0 {
		if pageToken != "" {
			return gmail.ListPage{}, fmt.Errorf("unknown page token %q for query %q", pageToken, q.Raw)
		}
		return gmail.ListPage{}, nil
	}
	want := ""
	for _, page := range queue {
		if pageToken == want {
			return page, nil
		}
		want = page.NextPageToken
	}
	return gmail.ListPage{}, fmt.Errorf("unknown page token %q for query %q", pageToken, q.Raw)
}

func (f *fakeClient) ListLabels(context.Context) (map[string]gmail.LabelID, map[gmail.LabelID]string, error) {
	if f.listLabelErr != nil {
		return nil, nil, f.listLabelErr
	}
	if len(f.labelsByName) == 0 {
		return nil, nil, gmail.ErrNoLabels
	}
	return f.labelsByName, f.labelsByID, nil
}

func (f *fakeClient) EnsureLabel(_ context.Context, name string) (gmail.LabelID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ensured = append(f.ensured, name)
	if f.ensureErr != nil {
		return "", f.ensureErr
	}
	if id, ok := f.labelsByName[name]; ok {
		return id, nil
	}
	return f.addLabel(name), nil
}

func (f *fakeClient) ApplyLabel(_ context.Context, label gmail.LabelID, ids []gmail.MessageID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.applyErr != nil {
		return f.applyErr
	}
	f.applied = append(f.applied, applyCall{label: label, ids: append([]gmail.MessageID(nil), ids...)})
	return nil
}

func (f *fakeClient) Dispose(_ context.Context, action rules.Action, ids []gmail.MessageID) (gmail.DisposeResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.disposeCalls = append(f.disposeCalls, disposeCall{
		action: action,
		ids:    append([]gmail.MessageID(nil), ids...),
	})
	if f.disposeErrOn > 0 && len(f.disposeCalls) == f.disposeErrOn {
		return gmail.DisposeResult{}, fmt.Errorf("transport: dispose failed")
	}
	if len(f.disposeFailIDs) == 0 {
		return gmail.DisposeResult{}, nil
	}
	failed := map[gmail.MessageID]string{}
	for _, id := range ids {
		if reason, ok := f.disposeFailIDs[id]; ok {
			failed[id] = reason
		}
	}
	return gmail.DisposeResult{Failed: failed}, nil
}

func slogDiscard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func messageIDs(prefix string, n int) []gmail.MessageID {
	ids := make([]gmail.MessageID, n)
	for i := range ids {
		ids[i] = gmail.MessageID(fmt.Sprintf("%s-%04d", prefix, i))
	}
	return ids
}
