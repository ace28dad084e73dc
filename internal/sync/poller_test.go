package sync

import (
	"context"
	"errors"
	gosync "sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/mail-triage/internal/source"
	"github.com/nhle/mail-triage/internal/triage"
)

type fakeRunner struct {
	mu    gosync.Mutex
	calls int
	errs  []error
	onRun func(n int)
}

func (f *fakeRunner) Run(_ context.Context) (triage.Summary, error) {
	f.mu.Lock()
	f.calls++
	n := f.calls
	var err error
	if len(f.errs) > 0 {
		err = f.errs[0]
		f.errs = f.errs[1:]
	}
	onRun := f.onRun
	f.mu.Unlock()

	if onRun != nil {
		onRun(n)
	}
	return triage.Summary{Total: n}, err
}

func (f *fakeRunner) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func TestPoller_RunsImmediatelyAndOnTicks(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	r := &fakeRunner{onRun: func(n int) {
		if n == 3 {
			cancel()
		}
	}}
	p := New(r, 10*time.Millisecond, nil, nil)

	require.NoError(t, p.Run(ctx))
	assert.Equal(t, 3, r.count())
	assert.Equal(t, 3, p.Status().Runs)
	assert.Equal(t, StateIdle, p.Status().State)
}

func TestPoller_StopsOnAuthError(t *testing.T) {
	authErr := &source.AuthError{Provider: source.ProviderGmail, Message: "bad password"}
	r := &fakeRunner{errs: []error{authErr}}
	p := New(r, time.Hour, nil, nil)

	err := p.Run(context.Background())

	assert.True(t, source.IsAuthError(err))
	assert.Equal(t, 1, r.count())
	assert.Equal(t, StateError, p.Status().State)
}

func TestPoller_RetriesConnectionErrors(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	connErr := &source.ConnectionError{Provider: source.ProviderGmail, Addr: "x:993", Err: errors.New("refused")}
	r := &fakeRunner{
		errs: []error{connErr},
		onRun: func(n int) {
			if n == 2 {
				cancel()
			}
		},
	}

	var results []error
	p := New(r, 10*time.Millisecond, nil, func(_ triage.Summary, err error) {
		results = append(results, err)
	})

	require.NoError(t, p.Run(ctx))
	require.Len(t, results, 2)
	assert.Error(t, results[0])
	assert.NoError(t, results[1])
}

func TestPoller_TriggerRunsWithoutWaitingForTick(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var p *Poller
	r := &fakeRunner{onRun: func(n int) {
		switch n {
		case 1:
			p.Trigger()
			p.Trigger()
		case 2:
			cancel()
		}
	}}
	p = New(r, time.Hour, nil, nil)

	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("poller did not react to trigger")
	}
	assert.Equal(t, 2, r.count())
}

func TestPoller_CancelledBeforeStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := &fakeRunner{}
	require.NoError(t, New(r, time.Hour, nil, nil).Run(ctx))
	assert.Zero(t, r.count())
}
