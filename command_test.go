package player

import (
	"sync"
	"testing"
	"time"
)

func TestCommandBusRunsImmediatelyWhenIdle(t *testing.T) {
	t.Parallel()
	ran := make(chan *Command, 1)
	bus := newCommandBus(func(c *Command) { ran <- c })
	cmd := &Command{ID: bus.nextID(), Type: CommandOpen, URL: "a"}
	bus.Submit(cmd)

	select {
	case got := <-ran:
		if got != cmd {
			t.Fatalf("exec ran with %+v, want %+v", got, cmd)
		}
	case <-time.After(time.Second):
		t.Fatal("exec never ran")
	}
}

func TestCommandBusPendingLastWriterWins(t *testing.T) {
	t.Parallel()
	release := make(chan struct{})
	execStarts := make(chan *Command, 3)
	bus := newCommandBus(func(c *Command) {
		execStarts <- c
		<-release
	})

	first := &Command{ID: bus.nextID(), Type: CommandOpen, URL: "first"}
	bus.Submit(first)
	<-execStarts // first is now running and blocked on release

	queuedA := &Command{ID: bus.nextID(), Type: CommandOpen, URL: "queuedA"}
	queuedB := &Command{ID: bus.nextID(), Type: CommandStop}
	bus.Submit(queuedA)
	bus.Submit(queuedB) // supersedes queuedA before it ever runs

	close(release)
	bus.onFinished() // first is done; this begins the pending command

	select {
	case got := <-execStarts:
		if got != queuedB {
			t.Fatalf("second exec ran with %+v, want the superseding command %+v", got, queuedB)
		}
	case <-time.After(time.Second):
		t.Fatal("pending command never ran")
	}
	bus.onFinished()

	select {
	case got := <-execStarts:
		t.Fatalf("a third command ran unexpectedly: %+v", got)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestCommandBusOnFinishedWithNoPendingIsIdle(t *testing.T) {
	t.Parallel()
	var mu sync.Mutex
	calls := 0
	bus := newCommandBus(func(c *Command) {
		mu.Lock()
		calls++
		mu.Unlock()
	})
	done := make(chan struct{})
	go func() {
		bus.Submit(&Command{ID: bus.nextID(), Type: CommandStop})
		close(done)
	}()
	<-done
	time.Sleep(10 * time.Millisecond) // let the async exec run
	bus.onFinished()
	bus.onFinished() // idempotent: no pending command, must not panic or re-run

	mu.Lock()
	defer mu.Unlock()
	if calls != 1 {
		t.Fatalf("exec ran %d times, want 1", calls)
	}
}
