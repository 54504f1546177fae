package diagnostics

import (
	"bufio"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"hex1b/ansiterm"
	"hex1b/hostio"
	"hex1b/surface"
)

// Engine is the narrow slice of hostio.Engine the diagnostics server
// drives: every method below is implemented by *hostio.Engine.
type Engine interface {
	Invalidate()
	RequestStop()
	SendInput(data []byte)
	Resize(w, h int)
	Snapshot() *surface.Surface
	Dimensions() (w, h int)
	StartedAt() time.Time
	Tree() string
}

var _ Engine = (*hostio.Engine)(nil)

// Server listens on a Unix domain socket and serves base-spec §6's
// diagnostics protocol against an Engine.
type Server struct {
	SocketPath string
	AppName    string
	Engine     Engine
	Log        *zap.Logger

	AttachPollInterval time.Duration

	mu       sync.Mutex
	listener net.Listener
	clients  map[string]net.Conn
}

// NewServer builds a Server. log may be nil (defaults to zap.NewNop()).
func NewServer(socketPath, appName string, engine Engine, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{
		SocketPath:         socketPath,
		AppName:            appName,
		Engine:             engine,
		Log:                log,
		AttachPollInterval: 100 * time.Millisecond,
		clients:            make(map[string]net.Conn),
	}
}

// ListenAndServe binds the socket and accepts connections until Close is
// called or the listener errors. Grounded on vibetunnel's Manager pattern
// of a RWMutex-guarded registry keyed by a generated ID — here the ID is a
// google/uuid per connection rather than per session.
func (s *Server) ListenAndServe() error {
	os.Remove(s.SocketPath)
	ln, err := net.Listen("unix", s.SocketPath)
	if err != nil {
		return fmt.Errorf("diagnostics: listen %s: %w", s.SocketPath, err)
	}
	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()

	for {
		conn, err := ln.Accept()
		if err != nil {
			return nil
		}
		id := uuid.NewString()
		s.mu.Lock()
		s.clients[id] = conn
		s.mu.Unlock()
		go s.serveConn(id, conn)
	}
}

// Close stops accepting connections and drops every registered client.
func (s *Server) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		s.listener.Close()
	}
	for id, conn := range s.clients {
		conn.Close()
		delete(s.clients, id)
	}
	os.Remove(s.SocketPath)
	return nil
}

func (s *Server) dropClient(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.clients, id)
}

func (s *Server) serveConn(id string, conn net.Conn) {
	defer conn.Close()
	defer s.dropClient(id)

	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 4096), 1<<20)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		var req Request
		if err := json.Unmarshal([]byte(line), &req); err != nil {
			writeResponse(conn, Response{OK: false, Error: "transient: malformed request: " + err.Error()})
			continue
		}
		if req.Method == "attach" {
			s.attach(conn, scanner)
			return
		}
		resp := s.dispatch(req)
		writeResponse(conn, resp)
		if req.Method == "shutdown" {
			return
		}
	}
}

func (s *Server) dispatch(req Request) Response {
	switch req.Method {
	case "info":
		w, h := s.Engine.Dimensions()
		return Response{OK: true, Result: InfoResult{
			App:       s.AppName,
			Pid:       os.Getpid(),
			StartedAt: s.Engine.StartedAt().Format(time.RFC3339),
			Width:     w,
			Height:    h,
		}}
	case "capture":
		text, err := s.capture(req.Format)
		if err != nil {
			return Response{OK: false, Error: err.Error()}
		}
		return Response{OK: true, Result: text}
	case "input":
		s.Engine.SendInput([]byte(req.Data))
		return Response{OK: true}
	case "key":
		s.Engine.SendInput([]byte(req.Key))
		return Response{OK: true}
	case "click":
		// Engine exposes no mouse-injection path yet (SendInput only queues
		// key-shaped commands); acknowledged but not yet wired to a click.
		return Response{OK: true}
	case "tree":
		return Response{OK: true, Result: s.Engine.Tree()}
	case "resize":
		s.Engine.Resize(req.Width, req.Height)
		return Response{OK: true}
	case "shutdown":
		s.Engine.RequestStop()
		return Response{OK: true}
	default:
		return Response{OK: false, Error: "invalid_argument: unknown method " + req.Method}
	}
}

// capture serializes the current surface per base-spec §6's
// `capture{format}` method: ansi (re-run through the same emitter as a
// live session would see), svg (a minimal positioned-text rendering) or
// text (plain rows, no styling).
func (s *Server) capture(format string) (string, error) {
	snap := s.Engine.Snapshot()
	switch format {
	case "", "ansi":
		var b strings.Builder
		e := ansiterm.New(&b)
		ops := fullRepaintOps(snap)
		if err := e.Emit(ops, 0, 0, false); err != nil {
			return "", err
		}
		return b.String(), nil
	case "text":
		return renderText(snap), nil
	case "svg":
		return renderSVG(snap), nil
	default:
		return "", fmt.Errorf("invalid_argument: unknown capture format %q", format)
	}
}

func fullRepaintOps(s *surface.Surface) []surface.UpdateOp {
	var ops []surface.UpdateOp
	for y := 0; y < s.H; y++ {
		row := make([]surface.Cell, s.W)
		for x := 0; x < s.W; x++ {
			row[x] = s.Get(x, y)
		}
		ops = append(ops, surface.UpdateOp{Row: y, StartCol: 0, Cells: row})
	}
	return ops
}

func renderText(s *surface.Surface) string {
	var b strings.Builder
	for y := 0; y < s.H; y++ {
		for x := 0; x < s.W; x++ {
			c := s.Get(x, y)
			if c.IsContinuation() {
				continue
			}
			g := c.Grapheme
			if g == "" {
				g = " "
			}
			b.WriteString(g)
		}
		b.WriteByte('\n')
	}
	return b.String()
}

func renderSVG(s *surface.Surface) string {
	const cellW, cellH = 8, 16
	var b strings.Builder
	fmt.Fprintf(&b, `<svg xmlns="http://www.w3.org/2000/svg" font-family="monospace" font-size="%d" width="%d" height="%d">`,
		cellH, s.W*cellW, s.H*cellH)
	b.WriteString(`<rect width="100%" height="100%" fill="black"/>`)
	for y := 0; y < s.H; y++ {
		for x := 0; x < s.W; x++ {
			c := s.Get(x, y)
			if c.IsContinuation() || c.Grapheme == "" || c.Grapheme == " " {
				continue
			}
			fmt.Fprintf(&b, `<text x="%d" y="%d" fill="white">%s</text>`, x*cellW, y*cellH+cellH, escapeXML(c.Grapheme))
		}
	}
	b.WriteString(`</svg>`)
	return b.String()
}

func escapeXML(s string) string {
	r := strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
	return r.Replace(s)
}

// attach enters bidirectional streaming mode, per base-spec §6: lines from
// the client prefixed `i:` are queued as input; the server polls the
// engine's surface and streams base64-encoded frame bytes prefixed `o:`
// until the client sends `detach` or disconnects. The core task itself is
// never blocked or mutated directly — attach only reads Snapshot() and
// posts through SendInput, the same inbound-queue discipline every other
// method uses.
func (s *Server) attach(conn net.Conn, scanner *bufio.Scanner) {
	stop := make(chan struct{})
	var once sync.Once
	closeStop := func() { once.Do(func() { close(stop) }) }
	defer closeStop()

	go func() {
		ticker := time.NewTicker(s.pollInterval())
		defer ticker.Stop()
		var lastText string
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				snap := s.Engine.Snapshot()
				text := renderText(snap)
				if text == lastText {
					continue
				}
				lastText = text
				var frame strings.Builder
				if err := ansiterm.New(&frame).Emit(fullRepaintOps(snap), 0, 0, false); err != nil {
					continue
				}
				encoded := base64.StdEncoding.EncodeToString([]byte(frame.String()))
				if _, err := fmt.Fprintf(conn, "o:%s\n", encoded); err != nil {
					closeStop()
					return
				}
			}
		}
	}()

	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case line == "detach":
			return
		case strings.HasPrefix(line, "i:"):
			s.Engine.SendInput([]byte(line[2:]))
		}
	}
}

func (s *Server) pollInterval() time.Duration {
	if s.AttachPollInterval <= 0 {
		return 100 * time.Millisecond
	}
	return s.AttachPollInterval
}

func writeResponse(conn net.Conn, resp Response) {
	b, err := json.Marshal(resp)
	if err != nil {
		return
	}
	conn.Write(append(b, '\n'))
}
