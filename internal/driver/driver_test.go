package driver

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/wodwiki/internal/compiler"
	"github.com/roach88/wodwiki/internal/engine"
	"github.com/roach88/wodwiki/internal/testutil"
)

type memRecorder struct {
	mu      sync.Mutex
	batches []Batch
	fail    error
}

func (m *memRecorder) RecordCycle(_ context.Context, cycle int64, events []engine.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return m.fail
	}
	m.batches = append(m.batches, Batch{Cycle: cycle, Events: append([]engine.Event(nil), events...)})
	return nil
}

func newRuntime(t *testing.T, source string) *engine.Runtime {
	t.Helper()
	result := compiler.Compile(source)
	require.NoError(t, result.Err())
	rt, err := engine.New(source, result.Nodes)
	require.NoError(t, err)
	return rt
}

func TestNew_RequiresRuntime(t *testing.T) {
	_, err := New(nil)
	require.Error(t, err)
	var re *engine.RuntimeError
	require.True(t, errors.As(err, &re))
	assert.Equal(t, engine.ErrCodeNoRuntime, re.Code)
	assert.True(t, IsFatal(err))
}

func TestDriver_CycleBatchesFollowUpsInboxAndTick(t *testing.T) {
	clock := testutil.NewManualClock(time.Time{})
	rec := &memRecorder{}
	d, err := New(newRuntime(t, "Row\nBike"), WithNow(clock.Now), WithRecorder(rec))
	require.NoError(t, err)
	ctx := context.Background()

	d.Submit(engine.NewEvent(engine.EventBegin, clock.Now()))
	require.NoError(t, d.Cycle(ctx))
	assert.Equal(t, []engine.Event{engine.NewEvent(engine.EventStart, testutil.Epoch)}, d.Pending())

	clock.Advance(4 * time.Second)
	d.Click(engine.CompleteButton)
	require.NoError(t, d.Cycle(ctx))

	require.Len(t, rec.batches, 2)
	assert.Equal(t, int64(1), rec.batches[0].Cycle)
	assert.Equal(t, int64(2), rec.batches[1].Cycle)

	names := func(events []engine.Event) []string {
		out := make([]string, len(events))
		for i, e := range events {
			out[i] = e.Name
		}
		return out
	}
	assert.Equal(t, []string{"begin", "tick"}, names(rec.batches[0].Events))
	assert.Equal(t, []string{"start", "complete", "tick"}, names(rec.batches[1].Events))
	assert.Equal(t, "Bike", d.Runtime().Cursor().Label)
	assert.Equal(t, engine.StateRunning, d.State())
}

func TestDriver_RecorderFailureIsNotFatal(t *testing.T) {
	rec := &memRecorder{fail: errors.New("database is locked")}
	d, err := New(newRuntime(t, "Row"), WithRecorder(rec))
	require.NoError(t, err)

	require.NoError(t, d.Cycle(context.Background()))
	assert.NoError(t, d.Err())
}

func TestDriver_RunStopsWhenDone(t *testing.T) {
	d, err := New(newRuntime(t, "Row"), WithInterval(time.Millisecond), StopWhenDone())
	require.NoError(t, err)

	now := testutil.Epoch
	d.Submit(engine.RunButton.Click(now)...)
	d.Submit(engine.NewEvent(engine.EventEnd, now.Add(time.Minute)))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, d.Run(ctx))

	assert.Equal(t, engine.StateDone, d.State())
	require.Len(t, d.Runtime().Results(), 1)
	assert.Equal(t, time.Minute, d.Runtime().Results()[0].Duration(now))
	assert.False(t, d.Submit(engine.NewEvent(engine.EventReset, now)), "inbox closes with the loop")
}

func TestDriver_CycleWithAfterRun(t *testing.T) {
	var saved []string
	result := compiler.Compile("Row")
	require.NoError(t, result.Err())
	rt, err := engine.New("Row", result.Nodes, engine.WithExporter(engine.ExporterFunc(
		func(_ context.Context, _ string, history []string) error {
			saved = append(saved, history...)
			return nil
		})))
	require.NoError(t, err)

	d, err := New(rt, WithInterval(time.Millisecond), StopWhenDone())
	require.NoError(t, err)
	now := testutil.Epoch
	d.Submit(engine.RunButton.Click(now)...)
	d.Submit(engine.NewEvent(engine.EventEnd, now.Add(time.Minute)))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, d.Run(ctx))
	require.False(t, d.Click(engine.SaveButton))

	require.NoError(t, d.CycleWith(ctx, engine.SaveButton.Click(now)...))
	assert.Equal(t, []string{"1|0:1"}, saved)
	assert.Equal(t, engine.StateDone, d.State())
}

func TestDriver_RunHonoursCancel(t *testing.T) {
	d, err := New(newRuntime(t, "Row"), WithInterval(time.Millisecond))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, d.Run(ctx), context.Canceled)
}

func TestReplay_ReproducesResults(t *testing.T) {
	const source = "(2)\n  10 Pullups\n  20 Pushups"
	clock := testutil.NewManualClock(time.Time{})
	rec := &memRecorder{}
	live := newRuntime(t, source)
	d, err := New(live, WithNow(clock.Now), WithRecorder(rec))
	require.NoError(t, err)
	ctx := context.Background()

	d.Click(engine.RunButton)
	require.NoError(t, d.Cycle(ctx))
	for i := 0; i < 8 && live.State() != engine.StateDone; i++ {
		clock.Advance(7 * time.Second)
		if i%2 == 1 {
			d.Click(engine.CompleteButton)
		}
		require.NoError(t, d.Cycle(ctx))
	}
	require.Equal(t, engine.StateDone, live.State())

	replayed := newRuntime(t, source)
	require.NoError(t, Replay(ctx, replayed, rec.batches))

	assert.Equal(t, live.Results(), replayed.Results())
	assert.Equal(t, live.History(), replayed.History())
	assert.Equal(t, live.State(), replayed.State())
}

func TestReplay_RejectsOutOfOrderBatches(t *testing.T) {
	err := Replay(context.Background(), newRuntime(t, "Row"), []Batch{{Cycle: 2}, {Cycle: 1}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cycle 1 after cycle 2")
}
