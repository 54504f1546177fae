package runloop

import (
	"context"
	"testing"
	"time"

	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

func TestInvalidateCoalescesBurstIntoOneFrame(t *testing.T) {
	var frames int
	l := NewLoop(Config{FrameCeilingFPS: 0}, func() { frames++ }, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		l.Run(ctx)
		close(done)
	}()

	l.Post(InvalidateCommand{})
	l.Post(InvalidateCommand{})
	l.Post(InvalidateCommand{})

	time.Sleep(20 * time.Millisecond)
	cancel()
	<-done

	if frames != 1 {
		t.Fatalf("expected exactly one coalesced frame, got %d", frames)
	}
}

func TestResizeCommandInvokesHandlerAndInvalidates(t *testing.T) {
	var gotW, gotH int
	var frames int
	l := NewLoop(Config{}, func() { frames++ }, nil)
	l.OnResize = func(w, h int) { gotW, gotH = w, h }

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		l.Run(ctx)
		close(done)
	}()

	l.Post(ResizeCommand{W: 80, H: 24})
	time.Sleep(20 * time.Millisecond)
	cancel()
	<-done

	if gotW != 80 || gotH != 24 {
		t.Fatalf("expected resize handler called with (80,24), got (%d,%d)", gotW, gotH)
	}
	if frames != 1 {
		t.Fatalf("expected one frame from the resize's invalidation, got %d", frames)
	}
}

func TestKeyCommandRoutesToHandler(t *testing.T) {
	var seen interface{}
	l := NewLoop(Config{}, func() {}, nil)
	l.OnKey = func(ev interface{}) { seen = ev }

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		l.Run(ctx)
		close(done)
	}()

	l.Post(KeyCommand{Event: "enter"})
	time.Sleep(20 * time.Millisecond)
	cancel()
	<-done

	if seen != "enter" {
		t.Fatalf("expected key handler invoked with injected event, got %v", seen)
	}
}

func TestRunStopsAtNextSafePointOnCancel(t *testing.T) {
	l := NewLoop(Config{}, func() {}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	errCh := make(chan error, 1)
	go func() { errCh <- l.Run(ctx) }()

	select {
	case err := <-errCh:
		if err != context.Canceled {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Run did not return promptly after cancellation")
	}
}

func TestTickerTicksUntilFinishedThenGoesInactive(t *testing.T) {
	var tk Ticker
	var val float32
	tw := gween.New(0, 10, 1.0, ease.Linear)
	tk.Add(tw, func(v float32) { val = v })

	if !tk.Active() {
		t.Fatalf("expected ticker active immediately after Add")
	}
	active := tk.Tick(0.5)
	if !active {
		t.Fatalf("expected ticker still active mid-tween")
	}
	if val <= 0 || val >= 10 {
		t.Fatalf("expected midpoint value between 0 and 10, got %v", val)
	}
	active = tk.Tick(0.6)
	if active {
		t.Fatalf("expected ticker to report inactive once the tween finishes")
	}
	if tk.Active() {
		t.Fatalf("expected finished tween removed from the ticker")
	}
}
