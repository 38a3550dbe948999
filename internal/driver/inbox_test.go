package driver

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/wodwiki/internal/engine"
	"github.com/roach88/wodwiki/internal/testutil"
)

func TestInbox_DrainIsFIFO(t *testing.T) {
	q := newInbox()
	now := testutil.Epoch

	require.True(t, q.Submit(engine.NewEvent("a", now)))
	require.True(t, q.Submit(engine.NewEvent("b", now), engine.NewEvent("c", now)))
	assert.Equal(t, 3, q.Len())

	got := q.Drain()
	require.Len(t, got, 3)
	assert.Equal(t, "a", got[0].Name)
	assert.Equal(t, "c", got[2].Name)
	assert.Nil(t, q.Drain(), "drained inbox is empty")
}

func TestInbox_SignalsSubmission(t *testing.T) {
	q := newInbox()
	go func() {
		time.Sleep(5 * time.Millisecond)
		q.Submit(engine.NewEvent("start", testutil.Epoch))
	}()

	select {
	case <-q.Wait():
	case <-time.After(time.Second):
		t.Fatal("no signal after submit")
	}
	assert.Equal(t, 1, q.Len())
}

func TestInbox_CloseRejectsAndWakes(t *testing.T) {
	q := newInbox()
	q.Close()
	q.Close()

	assert.False(t, q.Submit(engine.NewEvent("start", testutil.Epoch)))
	_, open := <-q.Wait()
	assert.False(t, open)
}

func TestInbox_ConcurrentSubmit(t *testing.T) {
	q := newInbox()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				q.Submit(engine.NewEvent(engine.EventTick, testutil.Epoch))
			}
		}()
	}
	wg.Wait()
	assert.Len(t, q.Drain(), 1000)
}
