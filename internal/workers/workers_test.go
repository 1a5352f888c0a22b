package workers

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zcoinsAPI/internal/logging"
	"zcoinsAPI/internal/workflow"
)

type fakeSweeper struct {
	calls  atomic.Int32
	policy atomic.Value
	limit  atomic.Int32
	err    error
}

func (f *fakeSweeper) Sweep(_ context.Context, policy workflow.SweepPolicy, limit int) (int, error) {
	f.calls.Add(1)
	f.policy.Store(policy)
	f.limit.Store(int32(limit))
	return 1, f.err
}

type fakeDispatcher struct {
	calls atomic.Int32
}

func (f *fakeDispatcher) DispatchDue(context.Context, int) (int, error) {
	f.calls.Add(1)
	return 0, nil
}

func TestSweepOnce_PassesPolicy(t *testing.T) {
	sw := &fakeSweeper{}
	w, err := New(Config{SweepInterval: time.Hour, SweepPolicy: workflow.SweepRefund, ReminderInterval: time.Hour},
		sw, nil, logging.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Stop() })

	w.sweepOnce()

	assert.EqualValues(t, 1, sw.calls.Load())
	assert.Equal(t, workflow.SweepRefund, sw.policy.Load())
	assert.EqualValues(t, sweepBatch, sw.limit.Load())
}

func TestSweepOnce_ErrorIsLoggedOnly(t *testing.T) {
	sw := &fakeSweeper{err: errors.New("db down")}
	w, err := New(Config{SweepInterval: time.Hour, SweepPolicy: workflow.SweepExpire, ReminderInterval: time.Hour},
		sw, nil, logging.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Stop() })

	assert.NotPanics(t, w.sweepOnce)
}

func TestNew_RegistersJobs(t *testing.T) {
	w, err := New(Config{SweepInterval: time.Hour, SweepPolicy: workflow.SweepExpire, ReminderInterval: time.Hour},
		&fakeSweeper{}, &fakeDispatcher{}, logging.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Stop() })

	assert.Len(t, w.sched.Jobs(), 2)

	w2, err := New(Config{SweepInterval: time.Hour, SweepPolicy: workflow.SweepExpire, ReminderInterval: time.Hour},
		&fakeSweeper{}, nil, logging.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = w2.Stop() })

	assert.Len(t, w2.sched.Jobs(), 1)
}

func TestStart_RunsJobs(t *testing.T) {
	sw := &fakeSweeper{}
	d := &fakeDispatcher{}
	w, err := New(Config{SweepInterval: 20 * time.Millisecond, SweepPolicy: workflow.SweepExpire, ReminderInterval: 20 * time.Millisecond},
		sw, d, logging.NewNop())
	require.NoError(t, err)

	w.Start()
	assert.Eventually(t, func() bool {
		return sw.calls.Load() > 0 && d.calls.Load() > 0
	}, 2*time.Second, 10*time.Millisecond)
	require.NoError(t, w.Stop())
}
