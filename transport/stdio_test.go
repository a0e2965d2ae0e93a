package transport

import (
	"bytes"
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

// lockedBuffer lets the test read what the conn wrote without racing its
// write side.
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestStdioConnFraming(t *testing.T) {
	inR, inW := io.Pipe()
	out := &lockedBuffer{}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	l := NewStdioListener(inR, out, zerolog.Nop())
	conn, err := l.Accept(ctx)
	require.NoError(t, err)

	go func() {
		// Blank lines between frames are skipped, not parsed.
		inW.Write([]byte("\n" + `{"jsonrpc":"2.0","method":"ping","id":0}` + "\n"))
		inW.Write([]byte(`{"jsonrpc":"2.0","method":"notifications/initialized"}` + "\n"))
	}()

	select {
	case got := <-conn.Inbound():
		require.JSONEq(t, `{"jsonrpc":"2.0","method":"ping","id":0}`, string(got))
	case <-time.After(time.Second):
		t.Fatal("first frame not delivered")
	}
	select {
	case got := <-conn.Inbound():
		require.JSONEq(t, `{"jsonrpc":"2.0","method":"notifications/initialized"}`, string(got))
	case <-time.After(time.Second):
		t.Fatal("second frame not delivered")
	}

	require.NoError(t, conn.Send(ctx, []byte(`{"jsonrpc":"2.0","id":0,"result":{}}`)))
	require.Equal(t, `{"jsonrpc":"2.0","id":0,"result":{}}`+"\n", out.String())
}

func TestStdioEOFClosesInbound(t *testing.T) {
	inR, inW := io.Pipe()
	out := &lockedBuffer{}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	l := NewStdioListener(inR, out, zerolog.Nop())
	conn, err := l.Accept(ctx)
	require.NoError(t, err)

	require.NoError(t, inW.Close())

	select {
	case _, ok := <-conn.Inbound():
		require.False(t, ok, "inbound should close on EOF")
	case <-time.After(time.Second):
		t.Fatal("inbound channel did not close on EOF")
	}
	select {
	case <-conn.Done():
	case <-time.After(time.Second):
		t.Fatal("conn did not report done after EOF")
	}
}

// A second Accept on the single-session listener only returns once the
// first session ends.
func TestStdioSingleSession(t *testing.T) {
	inR, _ := io.Pipe()
	out := &lockedBuffer{}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	l := NewStdioListener(inR, out, zerolog.Nop())
	conn, err := l.Accept(ctx)
	require.NoError(t, err)

	shortCtx, shortCancel := context.WithTimeout(ctx, 50*time.Millisecond)
	defer shortCancel()
	_, err = l.Accept(shortCtx)
	require.ErrorIs(t, err, context.DeadlineExceeded)

	require.NoError(t, conn.Close())
	_, err = l.Accept(ctx)
	require.ErrorIs(t, err, io.EOF)
}
