package diagnostics

import (
	"bufio"
	"encoding/json"
	"net"
	"path/filepath"
	"testing"
	"time"

	"hex1b/surface"
)

// fakeEngine is a minimal stand-in for *hostio.Engine used to drive Server
// without spinning up a real terminal or render loop.
type fakeEngine struct {
	w, h      int
	startedAt time.Time
	snapshot  *surface.Surface
	tree      string

	invalidated bool
	stopped     bool
	lastInput   []byte
	resizedTo   [2]int
}

func (f *fakeEngine) Invalidate()           { f.invalidated = true }
func (f *fakeEngine) RequestStop()          { f.stopped = true }
func (f *fakeEngine) SendInput(data []byte) { f.lastInput = data }
func (f *fakeEngine) Resize(w, h int)       { f.resizedTo = [2]int{w, h} }
func (f *fakeEngine) Snapshot() *surface.Surface {
	if f.snapshot == nil {
		return surface.New(0, 0)
	}
	return f.snapshot
}
func (f *fakeEngine) Dimensions() (int, int) { return f.w, f.h }
func (f *fakeEngine) StartedAt() time.Time   { return f.startedAt }
func (f *fakeEngine) Tree() string           { return f.tree }

func newTestServer(t *testing.T, eng *fakeEngine) (*Server, string) {
	t.Helper()
	dir := t.TempDir()
	sock := filepath.Join(dir, "hex1b.sock")
	s := NewServer(sock, "hex1btest", eng, nil)
	go s.ListenAndServe()
	time.Sleep(10 * time.Millisecond)
	t.Cleanup(func() { s.Close() })
	return s, sock
}

func dial(t *testing.T, sock string) net.Conn {
	t.Helper()
	conn, err := net.Dial("unix", sock)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	return conn
}

func roundTrip(t *testing.T, conn net.Conn, req Request) Response {
	t.Helper()
	b, err := json.Marshal(req)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	if _, err := conn.Write(append(b, '\n')); err != nil {
		t.Fatalf("write request: %v", err)
	}
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	scanner := bufio.NewScanner(conn)
	if !scanner.Scan() {
		t.Fatalf("no response: %v", scanner.Err())
	}
	var resp Response
	if err := json.Unmarshal(scanner.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	return resp
}

func TestInfoReturnsDimensionsAndPid(t *testing.T) {
	eng := &fakeEngine{w: 80, h: 24, startedAt: time.Now()}
	_, sock := newTestServer(t, eng)
	conn := dial(t, sock)
	defer conn.Close()

	resp := roundTrip(t, conn, Request{Method: "info"})
	if !resp.OK {
		t.Fatalf("expected ok response, got error %q", resp.Error)
	}
	m, ok := resp.Result.(map[string]interface{})
	if !ok {
		t.Fatalf("expected result object, got %T", resp.Result)
	}
	if int(m["width"].(float64)) != 80 || int(m["height"].(float64)) != 24 {
		t.Fatalf("expected 80x24, got %v", m)
	}
}

func TestCaptureTextReturnsRenderedRows(t *testing.T) {
	snap := surface.New(3, 2)
	snap.SetGrapheme(0, 0, "h", surface.DefaultColor, surface.DefaultColor, 0)
	snap.SetGrapheme(1, 0, "i", surface.DefaultColor, surface.DefaultColor, 0)
	eng := &fakeEngine{w: 3, h: 2, snapshot: snap}
	_, sock := newTestServer(t, eng)
	conn := dial(t, sock)
	defer conn.Close()

	resp := roundTrip(t, conn, Request{Method: "capture", Format: "text"})
	if !resp.OK {
		t.Fatalf("expected ok, got error %q", resp.Error)
	}
	text, ok := resp.Result.(string)
	if !ok || len(text) == 0 {
		t.Fatalf("expected non-empty text result, got %v", resp.Result)
	}
	if text[0] != 'h' || text[1] != 'i' {
		t.Fatalf("expected capture to start with %q, got %q", "hi", text)
	}
}

func TestInputForwardsBytesToEngine(t *testing.T) {
	eng := &fakeEngine{w: 10, h: 3}
	_, sock := newTestServer(t, eng)
	conn := dial(t, sock)
	defer conn.Close()

	resp := roundTrip(t, conn, Request{Method: "input", Data: "abc"})
	if !resp.OK {
		t.Fatalf("expected ok, got error %q", resp.Error)
	}
	if string(eng.lastInput) != "abc" {
		t.Fatalf("expected engine to receive %q, got %q", "abc", eng.lastInput)
	}
}

func TestResizeCallsEngineResize(t *testing.T) {
	eng := &fakeEngine{w: 10, h: 3}
	_, sock := newTestServer(t, eng)
	conn := dial(t, sock)
	defer conn.Close()

	resp := roundTrip(t, conn, Request{Method: "resize", Width: 40, Height: 12})
	if !resp.OK {
		t.Fatalf("expected ok, got error %q", resp.Error)
	}
	if eng.resizedTo != [2]int{40, 12} {
		t.Fatalf("expected resize(40,12), got %v", eng.resizedTo)
	}
}

func TestShutdownRequestsStopAndClosesConnection(t *testing.T) {
	eng := &fakeEngine{w: 10, h: 3}
	_, sock := newTestServer(t, eng)
	conn := dial(t, sock)
	defer conn.Close()

	resp := roundTrip(t, conn, Request{Method: "shutdown"})
	if !resp.OK {
		t.Fatalf("expected ok, got error %q", resp.Error)
	}
	if !eng.stopped {
		t.Fatalf("expected RequestStop to have been called")
	}
}

func TestUnknownMethodReturnsError(t *testing.T) {
	eng := &fakeEngine{w: 10, h: 3}
	_, sock := newTestServer(t, eng)
	conn := dial(t, sock)
	defer conn.Close()

	resp := roundTrip(t, conn, Request{Method: "bogus"})
	if resp.OK {
		t.Fatalf("expected error response for unknown method")
	}
}

func TestAttachStreamsFrameAndAcceptsInput(t *testing.T) {
	snap := surface.New(2, 1)
	snap.SetGrapheme(0, 0, "x", surface.DefaultColor, surface.DefaultColor, 0)
	eng := &fakeEngine{w: 2, h: 1, snapshot: snap}
	s, sock := newTestServer(t, eng)
	s.AttachPollInterval = 5 * time.Millisecond

	conn := dial(t, sock)
	defer conn.Close()

	b, _ := json.Marshal(Request{Method: "attach"})
	if _, err := conn.Write(append(b, '\n')); err != nil {
		t.Fatalf("write attach: %v", err)
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	scanner := bufio.NewScanner(conn)
	if !scanner.Scan() {
		t.Fatalf("expected a streamed frame line: %v", scanner.Err())
	}
	line := scanner.Text()
	if len(line) < 2 || line[:2] != "o:" {
		t.Fatalf("expected an o:-prefixed frame line, got %q", line)
	}

	if _, err := conn.Write([]byte("i:q\n")); err != nil {
		t.Fatalf("write input line: %v", err)
	}
	time.Sleep(20 * time.Millisecond)
	if string(eng.lastInput) != "q" {
		t.Fatalf("expected attach input to reach engine, got %q", eng.lastInput)
	}

	if _, err := conn.Write([]byte("detach\n")); err != nil {
		t.Fatalf("write detach: %v", err)
	}
}
