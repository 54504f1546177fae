package hostio

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"golang.org/x/term"

	"hex1b/ansiterm"
	"hex1b/surface"
)

// TermAdapter is the default PresentationAdapter+WorkloadAdapter pair,
// talking directly to the controlling terminal. Grounded on the teacher's
// tui/screen.go (raw mode lifecycle, SIGWINCH handling, capability
// sniffing from $TERM) and tui/input.go (a dedicated stdin-reading
// goroutine feeding a byte channel so only one goroutine ever touches the
// bufio.Reader).
type TermAdapter struct {
	in  *os.File
	out *os.File

	mu       sync.Mutex
	oldState *term.State
	bufOut   *bufio.Writer
	emitter  *ansiterm.Emitter

	resizeCh chan os.Signal
	rawBytes chan byte
	events   chan Event
	done     chan struct{}
	stopOnce sync.Once
}

// NewTermAdapter builds an adapter against the process's stdin/stdout.
func NewTermAdapter() *TermAdapter {
	return &TermAdapter{
		in:  os.Stdin,
		out: os.Stdout,
	}
}

// Capabilities reports the controlling terminal's current size and
// sniffs color/style support from $TERM, mirroring tui/screen.go's
// NewScreen capability check.
func (t *TermAdapter) Capabilities() Capabilities {
	w, h, err := term.GetSize(int(t.out.Fd()))
	if err != nil {
		w, h = 80, 24
	}
	termEnv := os.Getenv("TERM")
	fancy := strings.Contains(termEnv, "xterm") ||
		strings.Contains(termEnv, "truecolor") ||
		strings.Contains(termEnv, "alacritty") ||
		strings.Contains(termEnv, "kitty") ||
		strings.Contains(termEnv, "screen") ||
		strings.Contains(termEnv, "tmux")
	return Capabilities{Width: w, Height: h, TrueColor: fancy, Italic: fancy, Strikethrough: fancy}
}

// SessionStart enables raw mode and hides the cursor.
func (t *TermAdapter) SessionStart(w, h int, t0 time.Time) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	old, err := term.MakeRaw(int(t.in.Fd()))
	if err != nil {
		fmt.Fprintf(os.Stderr, "hostio: failed to enable raw mode: %v\n", err)
	} else {
		t.oldState = old
	}
	t.bufOut = bufio.NewWriterSize(t.out, 64*1024)
	t.emitter = ansiterm.New(t.bufOut)
	_, err = t.out.WriteString("\x1b[?25l")
	return err
}

// Frame emits update ops via ansiterm and flushes the buffered writer,
// mirroring tui/screen.go's Render (diff, write, Flush in one critical
// section).
func (t *TermAdapter) Frame(ops []surface.UpdateOp, cursorX, cursorY int, cursorVisible bool) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.emitter == nil {
		return nil
	}
	if err := t.emitter.Emit(ops, cursorX, cursorY, cursorVisible); err != nil {
		return err
	}
	return t.bufOut.Flush()
}

// Resize is a no-op for the terminal adapter: dimension changes reach the
// engine through the ResizeEvent the workload side already emits on
// SIGWINCH, and Frame always paints at the current size.
func (t *TermAdapter) Resize(w, h int, at time.Time) error { return nil }

// SessionEnd shows the cursor and restores the terminal's prior mode.
func (t *TermAdapter) SessionEnd(at time.Time) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.out.WriteString("\x1b[?25h")
	if t.oldState != nil {
		return term.Restore(int(t.in.Fd()), t.oldState)
	}
	return nil
}

// Start begins the stdin decode loop and SIGWINCH listener, returning a
// channel of neutral Events. Grounded on tui/input.go's two-goroutine
// split: one goroutine only reads bytes off stdin, the decode loop only
// reads off that byte channel, so nothing else ever touches the
// bufio.Reader.
func (t *TermAdapter) Start(ctx context.Context) (<-chan Event, error) {
	t.done = make(chan struct{})
	t.events = make(chan Event, 64)
	t.rawBytes = make(chan byte, 256)

	reader := bufio.NewReader(t.in)
	go func() {
		for {
			b, err := reader.ReadByte()
			if err != nil {
				close(t.rawBytes)
				return
			}
			t.rawBytes <- b
		}
	}()
	go t.decodeLoop()

	t.resizeCh = make(chan os.Signal, 1)
	signal.Notify(t.resizeCh, syscall.SIGWINCH)
	go t.resizeLoop(ctx)

	return t.events, nil
}

// Stop ends both background goroutines; safe to call more than once.
func (t *TermAdapter) Stop() error {
	t.stopOnce.Do(func() {
		if t.resizeCh != nil {
			signal.Stop(t.resizeCh)
		}
		close(t.done)
	})
	return nil
}

func (t *TermAdapter) resizeLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.done:
			return
		case <-t.resizeCh:
			w, h, err := term.GetSize(int(t.out.Fd()))
			if err != nil {
				continue
			}
			select {
			case t.events <- ResizeEvent{W: w, H: h}:
			case <-t.done:
				return
			}
		}
	}
}

func (t *TermAdapter) decodeLoop() {
	defer close(t.events)
	for {
		select {
		case <-t.done:
			return
		case b, ok := <-t.rawBytes:
			if !ok {
				t.emit(DisconnectEvent{})
				return
			}
			if b == 0x1b {
				t.processEsc()
			} else {
				t.processChar(b)
			}
		}
	}
}

func (t *TermAdapter) emit(ev Event) {
	select {
	case t.events <- ev:
	case <-t.done:
	}
}

func (t *TermAdapter) readByteTimeout(timeout time.Duration) (byte, bool) {
	select {
	case b, ok := <-t.rawBytes:
		return b, ok
	case <-time.After(timeout):
		return 0, false
	}
}

const csiTimeout = 50 * time.Millisecond

func (t *TermAdapter) processEsc() {
	select {
	case next, ok := <-t.rawBytes:
		if !ok {
			t.emit(KeyEvent{Code: KeyEsc, Time: time.Now()})
			return
		}
		switch next {
		case '[':
			t.parseCSI()
		case 'O':
			t.parseSS3()
		default:
			t.emit(KeyEvent{Code: KeyChar, Char: rune(next), Mods: Alt, Time: time.Now()})
		}
	case <-time.After(10 * time.Millisecond):
		t.emit(KeyEvent{Code: KeyEsc, Time: time.Now()})
	}
}

func (t *TermAdapter) processChar(b byte) {
	now := time.Now()
	switch {
	case b == 0x0d:
		t.emit(KeyEvent{Code: KeyEnter, Time: now})
	case b == 0x09:
		t.emit(KeyEvent{Code: KeyTab, Time: now})
	case b == 0x08:
		t.emit(KeyEvent{Code: KeyBackspace, Time: now})
	case b == 0x03:
		t.emit(KeyEvent{Code: KeyChar, Char: 'c', Mods: Control, Time: now})
	case b <= 0x1f:
		t.emit(KeyEvent{Code: KeyChar, Char: rune(b + 0x60), Mods: Control, Time: now})
	case b == 0x7f:
		t.emit(KeyEvent{Code: KeyBackspace, Time: now})
	default:
		t.emit(KeyEvent{Code: KeyChar, Char: rune(b), Time: now})
	}
}

func (t *TermAdapter) parseCSI() {
	var params []byte
	for {
		b, ok := t.readByteTimeout(csiTimeout)
		if !ok {
			return
		}
		if b >= 0x40 && b <= 0x7e {
			t.dispatchCSI(params, b)
			return
		}
		params = append(params, b)
	}
}

func (t *TermAdapter) dispatchCSI(params []byte, final byte) {
	now := time.Now()
	p := string(params)
	switch final {
	case 'A':
		t.emit(KeyEvent{Code: KeyArrowUp, Time: now})
	case 'B':
		t.emit(KeyEvent{Code: KeyArrowDown, Time: now})
	case 'C':
		t.emit(KeyEvent{Code: KeyArrowRight, Time: now})
	case 'D':
		t.emit(KeyEvent{Code: KeyArrowLeft, Time: now})
	case 'H':
		t.emit(KeyEvent{Code: KeyHome, Time: now})
	case 'F':
		t.emit(KeyEvent{Code: KeyEnd, Time: now})
	case '~':
		key := p
		if i := strings.IndexByte(p, ';'); i >= 0 {
			key = p[:i]
		}
		if code, ok := tildeCode(key); ok {
			t.emit(KeyEvent{Code: code, Time: now})
		}
	}
}

func tildeCode(key string) (KeyCode, bool) {
	switch key {
	case "1":
		return KeyHome, true
	case "2":
		return KeyInsert, true
	case "3":
		return KeyDelete, true
	case "4":
		return KeyEnd, true
	case "5":
		return KeyPgUp, true
	case "6":
		return KeyPgDown, true
	case "15":
		return KeyF5, true
	case "17":
		return KeyF6, true
	case "18":
		return KeyF7, true
	case "19":
		return KeyF8, true
	case "20":
		return KeyF9, true
	case "21":
		return KeyF10, true
	case "23":
		return KeyF11, true
	case "24":
		return KeyF12, true
	default:
		return KeyNone, false
	}
}

func (t *TermAdapter) parseSS3() {
	b, ok := t.readByteTimeout(csiTimeout)
	if !ok {
		return
	}
	now := time.Now()
	switch b {
	case 'A':
		t.emit(KeyEvent{Code: KeyArrowUp, Time: now})
	case 'B':
		t.emit(KeyEvent{Code: KeyArrowDown, Time: now})
	case 'C':
		t.emit(KeyEvent{Code: KeyArrowRight, Time: now})
	case 'D':
		t.emit(KeyEvent{Code: KeyArrowLeft, Time: now})
	case 'P':
		t.emit(KeyEvent{Code: KeyF1, Time: now})
	case 'Q':
		t.emit(KeyEvent{Code: KeyF2, Time: now})
	case 'R':
		t.emit(KeyEvent{Code: KeyF3, Time: now})
	case 'S':
		t.emit(KeyEvent{Code: KeyF4, Time: now})
	case 'H':
		t.emit(KeyEvent{Code: KeyHome, Time: now})
	case 'F':
		t.emit(KeyEvent{Code: KeyEnd, Time: now})
	}
}

