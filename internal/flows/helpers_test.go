package flows

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Devcode940/kenyawatch/internal/bus"
	"github.com/Devcode940/kenyawatch/internal/fixtures"
	"github.com/Devcode940/kenyawatch/internal/llm"
	"github.com/Devcode940/kenyawatch/internal/store"
)

// recordingBus captures published messages.
type recordingBus struct {
	mu      sync.Mutex
	updates []bus.UpdateMessage
	jobs    []bus.JobMessage
}

func (b *recordingBus) PublishUpdate(_ context.Context, msg bus.UpdateMessage) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.updates = append(b.updates, msg)
	return nil
}

func (b *recordingBus) PublishJob(_ context.Context, job bus.JobMessage) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.jobs = append(b.jobs, job)
	return nil
}

func (b *recordingBus) ReadJobsStream(ctx context.Context, _, _ string, handler func(context.Context, bus.JobMessage) error) error {
	b.mu.Lock()
	jobs := append([]bus.JobMessage(nil), b.jobs...)
	b.mu.Unlock()
	for _, j := range jobs {
		_ = handler(ctx, j)
	}
	return nil
}

func (b *recordingBus) ReadUpdatesStream(context.Context, string, string, func(context.Context, bus.UpdateMessage) error) error {
	return nil
}

func (b *recordingBus) GetStats(context.Context) (map[string]interface{}, error) { return nil, nil }
func (b *recordingBus) HealthCheck(context.Context) error                        { return nil }
func (b *recordingBus) Close() error                                             { return nil }

func (b *recordingBus) datasets() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []string
	for _, u := range b.updates {
		out = append(out, u.Dataset)
	}
	return out
}

// scriptedModel answers every call with a fixed text or error.
type scriptedModel struct {
	text  string
	err   error
	calls []llm.Request
}

func (m *scriptedModel) Name() string { return "scripted" }

func (m *scriptedModel) Generate(_ context.Context, req llm.Request) (*llm.Response, error) {
	m.calls = append(m.calls, req)
	if m.err != nil {
		return nil, m.err
	}
	return &llm.Response{Text: m.text, TokensUsed: 12, Cost: 0.001, Model: "scripted"}, nil
}

var errModelDown = errors.New("model down")

type harness struct {
	svc   *Service
	store *store.Store
	bus   *recordingBus
	logs  *observer.ObservedLogs
}

func newHarness(t *testing.T, model llm.Provider) *harness {
	t.Helper()
	st, err := store.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	set, err := fixtures.Default()
	require.NoError(t, err)
	require.NoError(t, st.Seed(context.Background(), set))

	core, logs := observer.New(zap.DebugLevel)
	b := &recordingBus{}
	svc, err := New(Deps{
		Store:  st,
		Bus:    b,
		Model:  model,
		Logger: zap.New(core),
		Actor:  "tester",
	})
	require.NoError(t, err)
	svc.now = func() time.Time { return time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC) }
	return &harness{svc: svc, store: st, bus: b, logs: logs}
}
