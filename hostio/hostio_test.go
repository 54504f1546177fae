package hostio

import (
	"context"
	"sync"
	"testing"
	"time"

	"hex1b/runloop"
	"hex1b/surface"
	"hex1b/widget"
)

// fakePresentation is an in-memory PresentationAdapter recording every
// call, used to drive Engine without a real terminal.
type fakePresentation struct {
	mu      sync.Mutex
	caps    Capabilities
	started bool
	ended   bool
	frames  int
	lastOps []surface.UpdateOp
}

func (f *fakePresentation) Capabilities() Capabilities { return f.caps }
func (f *fakePresentation) SessionStart(w, h int, t0 time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.started = true
	return nil
}
func (f *fakePresentation) Frame(ops []surface.UpdateOp, cx, cy int, visible bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.frames++
	f.lastOps = ops
	return nil
}
func (f *fakePresentation) Resize(w, h int, t time.Time) error { return nil }
func (f *fakePresentation) SessionEnd(t time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ended = true
	return nil
}

// fakeWorkload lets a test inject events on demand and closes cleanly on Stop.
type fakeWorkload struct {
	events chan Event
	closed bool
}

func newFakeWorkload() *fakeWorkload { return &fakeWorkload{events: make(chan Event, 16)} }

func (f *fakeWorkload) Start(ctx context.Context) (<-chan Event, error) { return f.events, nil }
func (f *fakeWorkload) Stop() error {
	if !f.closed {
		f.closed = true
		close(f.events)
	}
	return nil
}

func TestEngineRunProducesOneFrameAndCleanExit(t *testing.T) {
	pres := &fakePresentation{caps: Capabilities{Width: 10, Height: 3}}
	work := newFakeWorkload()

	build := func() widget.Widget { return &widget.Text{Content: "hi"} }
	e := NewEngine(pres, work, build, nil, runloop.Config{FrameCeilingFPS: 0}, 0, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan int, 1)
	go func() { done <- e.Run(ctx) }()

	time.Sleep(20 * time.Millisecond)
	cancel()
	code := <-done

	if code != 0 {
		t.Fatalf("expected clean exit code 0, got %d", code)
	}
	pres.mu.Lock()
	defer pres.mu.Unlock()
	if !pres.started || !pres.ended {
		t.Fatalf("expected SessionStart and SessionEnd both called")
	}
	if pres.frames == 0 {
		t.Fatalf("expected at least one frame rendered")
	}
}

func TestEngineDisconnectEventRequestsStop(t *testing.T) {
	pres := &fakePresentation{caps: Capabilities{Width: 10, Height: 3}}
	work := newFakeWorkload()
	e := NewEngine(pres, work, func() widget.Widget { return &widget.Text{Content: "x"} }, nil, runloop.Config{}, 0, nil)

	done := make(chan int, 1)
	go func() { done <- e.Run(context.Background()) }()

	time.Sleep(10 * time.Millisecond)
	work.events <- DisconnectEvent{}

	select {
	case code := <-done:
		if code != 0 {
			t.Fatalf("expected clean exit after disconnect, got %d", code)
		}
	case <-time.After(time.Second):
		t.Fatal("engine did not stop after a disconnect event")
	}
}

func TestEngineSendInputDoesNotPanicWithFocusableButton(t *testing.T) {
	pres := &fakePresentation{caps: Capabilities{Width: 10, Height: 3}}
	work := newFakeWorkload()

	build := func() widget.Widget {
		return &widget.Button{Label: "b", OnActivate: func() {}}
	}
	e := NewEngine(pres, work, build, nil, runloop.Config{}, 0, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan int, 1)
	go func() { done <- e.Run(ctx) }()
	time.Sleep(10 * time.Millisecond)

	e.SendInput([]byte("a"))
	time.Sleep(10 * time.Millisecond)
	cancel()
	<-done
}
