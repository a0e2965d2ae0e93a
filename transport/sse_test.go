package transport

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

// openStream performs GET /sse and returns the stream reader plus the
// /messages/ endpoint path announced in the first event.
func openStream(t *testing.T, baseURL string) (*bufio.Reader, string, func()) {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, baseURL+"/sse", nil)
	require.NoError(t, err)
	req.Header.Set("Accept", "text/event-stream")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)
	event, data := readEvent(t, reader)
	require.Equal(t, "endpoint", event)
	require.True(t, strings.HasPrefix(data, "/messages/?session_id="), "unexpected endpoint data: %s", data)

	return reader, data, func() { resp.Body.Close() }
}

// readEvent parses one SSE frame ("event:" line, "data:" line, blank line).
func readEvent(t *testing.T, reader *bufio.Reader) (event, data string) {
	t.Helper()
	for {
		line, err := reader.ReadString('\n')
		require.NoError(t, err)
		line = strings.TrimRight(line, "\r\n")
		switch {
		case line == "":
			return event, data
		case strings.HasPrefix(line, "event: "):
			event = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			data = strings.TrimPrefix(line, "data: ")
		}
	}
}

func TestSSESessionRoundTrip(t *testing.T) {
	l := NewSSEListener(zerolog.Nop())
	httpSrv := httptest.NewServer(l.Handler())
	defer httpSrv.Close()
	defer l.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	reader, endpoint, closeStream := openStream(t, httpSrv.URL)
	defer closeStream()

	conn, err := l.Accept(ctx)
	require.NoError(t, err)
	require.Contains(t, endpoint, conn.ID().String())

	// Client -> server: POST one message to the announced endpoint.
	payload := `{"jsonrpc":"2.0","method":"ping","id":0}`
	resp, err := http.Post(httpSrv.URL+endpoint, "application/json", strings.NewReader(payload))
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "Accept", string(body))

	select {
	case got := <-conn.Inbound():
		require.JSONEq(t, payload, string(got))
	case <-time.After(time.Second):
		t.Fatal("POSTed message did not reach the session")
	}

	// Server -> client: Send surfaces as an event: message frame.
	require.NoError(t, conn.Send(ctx, []byte(`{"jsonrpc":"2.0","id":0,"result":{}}`)))
	event, data := readEvent(t, reader)
	require.Equal(t, "message", event)
	require.JSONEq(t, `{"jsonrpc":"2.0","id":0,"result":{}}`, data)
}

func TestSSEUnknownSessionRejected(t *testing.T) {
	l := NewSSEListener(zerolog.Nop())
	httpSrv := httptest.NewServer(l.Handler())
	defer httpSrv.Close()
	defer l.Close()

	resp, err := http.Post(httpSrv.URL+"/messages/?session_id=nonexistent", "application/json", bytes.NewReader([]byte(`{}`)))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestSSERequiresEventStreamAccept(t *testing.T) {
	l := NewSSEListener(zerolog.Nop())
	httpSrv := httptest.NewServer(l.Handler())
	defer httpSrv.Close()
	defer l.Close()

	req, err := http.NewRequest(http.MethodGet, httpSrv.URL+"/sse", nil)
	require.NoError(t, err)
	req.Header.Set("Accept", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusNotAcceptable, resp.StatusCode)
}

// Two concurrent streams get distinct sessions, and a POST addressed to one
// session is never delivered to the other.
func TestSSESessionMultiplexing(t *testing.T) {
	l := NewSSEListener(zerolog.Nop())
	httpSrv := httptest.NewServer(l.Handler())
	defer httpSrv.Close()
	defer l.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	_, endpoint1, close1 := openStream(t, httpSrv.URL)
	defer close1()
	conn1, err := l.Accept(ctx)
	require.NoError(t, err)

	_, endpoint2, close2 := openStream(t, httpSrv.URL)
	defer close2()
	conn2, err := l.Accept(ctx)
	require.NoError(t, err)

	require.NotEqual(t, endpoint1, endpoint2)
	require.NotEqual(t, conn1.ID(), conn2.ID())

	resp, err := http.Post(httpSrv.URL+endpoint1, "application/json", strings.NewReader(`{"jsonrpc":"2.0","method":"only-for-one"}`))
	require.NoError(t, err)
	resp.Body.Close()

	select {
	case got := <-conn1.Inbound():
		require.Contains(t, string(got), "only-for-one")
	case <-time.After(time.Second):
		t.Fatal("message did not reach its session")
	}

	select {
	case got := <-conn2.Inbound():
		t.Fatalf("message leaked to the wrong session: %s", got)
	case <-time.After(100 * time.Millisecond):
	}
}
