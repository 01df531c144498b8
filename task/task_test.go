package task

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func spinUntilStopped(iterations *atomic.Int64) Body {
	return func(sig *Signal) error {
		for !sig.Stopped() {
			iterations.Add(1)
			select {
			case <-sig.Done():
			case <-time.After(time.Millisecond):
			}
		}
		return nil
	}
}

func TestStartStop(t *testing.T) {
	assert := assert.New(t)

	var n atomic.Int64
	h := Start("spin", spinUntilStopped(&n))
	assert.False(h.IsStopped())
	assert.Equal(Running, h.State())
	assert.NotEmpty(h.ID)

	h.Stop()
	assert.True(h.IsStopped())
	assert.Equal(Stopped, h.State())
	assert.NoError(h.Err())

	select {
	case <-h.Done():
	default:
		t.Fatal("Stop returned before the goroutine exited")
	}

	// second stop is a no-op
	h.Stop()
	assert.True(h.IsStopped())
}

func TestStopJoinsInFlightIteration(t *testing.T) {
	var exited atomic.Bool
	started := make(chan struct{})
	h := Start("slow", func(sig *Signal) error {
		close(started)
		// simulate an iteration that does not look at the signal
		time.Sleep(50 * time.Millisecond)
		exited.Store(true)
		return nil
	})
	<-started
	h.Stop()
	assert.True(t, exited.Load())
}

func TestIsStoppedBeforeExit(t *testing.T) {
	release := make(chan struct{})
	h := Start("blocked", func(sig *Signal) error {
		<-release
		return nil
	})

	go func() {
		// Stop sets the signal before blocking on the join
		h.Stop()
	}()
	require.Eventually(t, h.IsStopped, time.Second, time.Millisecond)
	assert.Equal(t, Stopped, h.State())
	select {
	case <-h.Done():
		t.Fatal("goroutine should still be blocked")
	default:
	}
	close(release)
	h.Wait()
}

func TestFailedState(t *testing.T) {
	assert := assert.New(t)

	boom := errors.New("boom")
	h := Start("failing", func(sig *Signal) error {
		return boom
	})
	h.Wait()
	assert.Equal(Failed, h.State())
	assert.ErrorIs(h.Err(), boom)
	assert.False(h.IsStopped())

	h.Stop()
	assert.Equal(Failed, h.State())
}

func TestPanicRecovered(t *testing.T) {
	h := Start("panicky", func(sig *Signal) error {
		panic("kaboom")
	})
	h.Wait()
	assert.Equal(t, Failed, h.State())
	assert.ErrorIs(t, h.Err(), ErrPanic)
	assert.Contains(t, h.Err().Error(), "kaboom")
}

func TestFinishedState(t *testing.T) {
	h := Start("oneshot", func(sig *Signal) error {
		return nil
	})
	h.Wait()
	assert.Equal(t, Finished, h.State())
	assert.Equal(t, "finished", h.State().String())
}
