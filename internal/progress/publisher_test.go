package progress

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/cloo-solutions/jobspy-mcp/internal/domain"
	"github.com/cloo-solutions/jobspy-mcp/internal/mcp/protocol"
	"github.com/cloo-solutions/jobspy-mcp/internal/session"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captureTransport struct {
	mu     sync.Mutex
	events []*protocol.ProgressParams
	err    error
}

func (c *captureTransport) Send(_ context.Context, msg any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	n := msg.(*protocol.Notification)
	c.events = append(c.events, n.Params.(*protocol.ProgressParams))
	return nil
}

func (c *captureTransport) values() []int {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]int, 0, len(c.events))
	for _, e := range c.events {
		out = append(out, e.Progress)
	}
	return out
}

func newPublisher(reg *session.Registry, step int) *Publisher {
	logger, _ := test.NewNullLogger()
	return NewPublisher(reg, Config{Interval: 5 * time.Millisecond, Step: step}, logger)
}

func TestPublisher_TicksUpToCap(t *testing.T) {
	reg := session.NewRegistry()
	tr := &captureTransport{}
	require.NoError(t, reg.Register("s1", tr))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- newPublisher(reg, 40).Run(ctx, Target{SessionID: "s1", Tool: "search_jobs"}) }()

	require.Eventually(t, func() bool {
		v := tr.values()
		return len(v) >= 3
	}, time.Second, 5*time.Millisecond)
	time.Sleep(30 * time.Millisecond)
	cancel()
	require.NoError(t, <-done)

	assert.Equal(t, []int{40, 80, 90}, tr.values())
}

func TestPublisher_EventShape(t *testing.T) {
	reg := session.NewRegistry()
	tr := &captureTransport{}
	require.NoError(t, reg.Register("s1", tr))

	newPublisher(reg, 5).Complete(context.Background(), Target{SessionID: "s1", Tool: "search_jobs", ProgressToken: "tok-1"})

	require.Len(t, tr.events, 1)
	ev := tr.events[0]
	assert.Equal(t, "progress", ev.Type)
	assert.Equal(t, "search_jobs", ev.Tool)
	assert.Equal(t, 100, ev.Progress)
	assert.Equal(t, 100, ev.Total)
	assert.Equal(t, "tok-1", ev.ProgressToken)
	assert.Equal(t, "Job search completed", ev.Message)
}

func TestPublisher_NoSessionReturnsImmediately(t *testing.T) {
	reg := session.NewRegistry()
	p := newPublisher(reg, 5)

	done := make(chan error, 1)
	go func() { done <- p.Run(context.Background(), Target{SessionID: "missing"}) }()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run blocked without a session")
	}

	assert.NotPanics(t, func() { p.Complete(context.Background(), Target{}) })
}

func TestPublisher_StopsWhenSessionDisappears(t *testing.T) {
	reg := session.NewRegistry()
	tr := &captureTransport{}
	require.NoError(t, reg.Register("s1", tr))

	done := make(chan error, 1)
	go func() { done <- newPublisher(reg, 1).Run(context.Background(), Target{SessionID: "s1"}) }()

	require.Eventually(t, func() bool { return len(tr.values()) > 0 }, time.Second, 5*time.Millisecond)
	reg.Unregister("s1")

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run kept ticking after the session was removed")
	}

	sent := len(tr.values())
	newPublisher(reg, 1).Complete(context.Background(), Target{SessionID: "s1"})
	assert.Len(t, tr.values(), sent)
}

func TestPublisher_SendFailureKeepsTicking(t *testing.T) {
	reg := session.NewRegistry()
	tr := &captureTransport{err: errors.New("broken pipe")}
	require.NoError(t, reg.Register("s1", tr))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	assert.NoError(t, newPublisher(reg, 5).Run(ctx, Target{SessionID: "s1"}))
}

func TestPublisher_ProgressIsNonDecreasingAndCapped(t *testing.T) {
	reg := session.NewRegistry()
	tr := &captureTransport{}
	require.NoError(t, reg.Register("s1", tr))

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	p := newPublisher(reg, 7)
	require.NoError(t, p.Run(ctx, Target{SessionID: "s1"}))
	p.Complete(context.Background(), Target{SessionID: "s1"})

	values := tr.values()
	require.NotEmpty(t, values)
	for i := 1; i < len(values); i++ {
		assert.GreaterOrEqual(t, values[i], values[i-1])
	}
	for _, v := range values[:len(values)-1] {
		assert.LessOrEqual(t, v, DefaultCap)
	}
	assert.Equal(t, domain.ProgressComplete, values[len(values)-1])
}
