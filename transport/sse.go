package transport

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// SSEListener serves the two-endpoint SSE transport: a GET /sse stream per
// session, paired with a POST /messages/?session_id=<id> endpoint the peer
// uses to deliver messages into that session. Grounded on
// original_source's httpserver.cpp/qmcpserversse.cpp, reimplemented on top
// of net/http.ServeMux instead of the original's hand-rolled HTTP/1.1
// parser.
type SSEListener struct {
	mux *http.ServeMux
	log zerolog.Logger

	mu       sync.Mutex
	sessions map[SessionID]*sseConn

	newConns chan *sseConn
	closed   chan struct{}
	closeOnce sync.Once
}

// NewSSEListener builds a Listener whose Handler should be mounted at the
// transport's root (it registers "/sse" and "/messages/" relative to that
// root).
func NewSSEListener(log zerolog.Logger) *SSEListener {
	l := &SSEListener{
		log:      log,
		sessions: make(map[SessionID]*sseConn),
		newConns: make(chan *sseConn, 8),
		closed:   make(chan struct{}),
	}
	l.mux = http.NewServeMux()
	l.mux.HandleFunc("/sse", l.handleSSE)
	l.mux.HandleFunc("/messages/", l.handleMessages)
	return l
}

// Handler returns the http.Handler to mount (e.g. under an *http.Server).
func (l *SSEListener) Handler() http.Handler {
	return l.mux
}

func (l *SSEListener) Accept(ctx context.Context) (Conn, error) {
	select {
	case c := <-l.newConns:
		return c, nil
	case <-l.closed:
		return nil, io.EOF
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (l *SSEListener) Close() error {
	l.closeOnce.Do(func() {
		close(l.closed)
		l.mu.Lock()
		defer l.mu.Unlock()
		for _, c := range l.sessions {
			c.Close()
		}
	})
	return nil
}

func (l *SSEListener) handleSSE(w http.ResponseWriter, r *http.Request) {
	accept := r.Header.Get("Accept")
	if !strings.Contains(accept, "text/event-stream") && !strings.Contains(accept, "*/*") {
		http.Error(w, "Accept header must allow text/event-stream", http.StatusNotAcceptable)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	conn := &sseConn{
		id:      newSessionID(),
		w:       w,
		flusher: flusher,
		inbound: make(chan []byte, 16),
		done:    make(chan struct{}),
	}

	l.mu.Lock()
	l.sessions[conn.id] = conn
	l.mu.Unlock()
	defer func() {
		l.mu.Lock()
		delete(l.sessions, conn.id)
		l.mu.Unlock()
	}()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, "event: endpoint\r\ndata: /messages/?session_id=%s\r\n\r\n", conn.id.String())
	flusher.Flush()

	select {
	case l.newConns <- conn:
	case <-l.closed:
		conn.Close()
		return
	}

	select {
	case <-r.Context().Done():
		conn.Close()
	case <-conn.done:
	}
}

func (l *SSEListener) handleMessages(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	sessionID := r.URL.Query().Get("session_id")
	l.mu.Lock()
	var found *sseConn
	for id, c := range l.sessions {
		if id.String() == sessionID {
			found = c
			break
		}
	}
	l.mu.Unlock()
	if found == nil {
		http.Error(w, "unknown session", http.StatusNotFound)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return
	}

	select {
	case found.inbound <- body:
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "Accept")
	case <-found.done:
		http.Error(w, "session closed", http.StatusGone)
	}
}

type sseConn struct {
	id      SessionID
	w       http.ResponseWriter
	flusher http.Flusher

	inbound chan []byte
	done    chan struct{}
	once    sync.Once
	writeMu sync.Mutex
}

func (c *sseConn) ID() SessionID          { return c.id }
func (c *sseConn) Inbound() <-chan []byte { return c.inbound }
func (c *sseConn) Done() <-chan struct{}  { return c.done }

func (c *sseConn) Send(ctx context.Context, payload []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	select {
	case <-c.done:
		return fmt.Errorf("session closed")
	default:
	}
	if _, err := fmt.Fprintf(c.w, "event: message\r\ndata: %s\r\n\r\n", payload); err != nil {
		return err
	}
	c.flusher.Flush()
	return nil
}

func (c *sseConn) Close() error {
	c.once.Do(func() {
		close(c.done)
	})
	return nil
}
