package dispatcher

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/mcpgopher/runtime/transport"
)

// pairConn is an in-memory transport.Conn for testing; writes to one side
// surface as inbound reads on the other, mimicking a loopback pipe.
type pairConn struct {
	id      transport.SessionID
	inbound chan []byte
	peer    *pairConn
	done    chan struct{}
}

func newPair() (*pairConn, *pairConn) {
	a := &pairConn{inbound: make(chan []byte, 16), done: make(chan struct{})}
	b := &pairConn{inbound: make(chan []byte, 16), done: make(chan struct{})}
	a.peer, b.peer = b, a
	return a, b
}

func (c *pairConn) ID() transport.SessionID  { return c.id }
func (c *pairConn) Inbound() <-chan []byte   { return c.inbound }
func (c *pairConn) Done() <-chan struct{}    { return c.done }
func (c *pairConn) Close() error {
	select {
	case <-c.done:
	default:
		close(c.done)
	}
	return nil
}
func (c *pairConn) Send(ctx context.Context, payload []byte) error {
	select {
	case c.peer.inbound <- payload:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func TestDispatcherRequestResponseRoundTrip(t *testing.T) {
	client, server := newPair()

	serverDisp := New(server, zerolog.Nop())
	serverDisp.HandleRequest("echo", func(ctx context.Context, params json.RawMessage) (interface{}, error) {
		var req struct {
			Text string `json:"text"`
		}
		require.NoError(t, json.Unmarshal(params, &req))
		return map[string]string{"text": req.Text}, nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	go serverDisp.Run(ctx)

	clientDisp := New(client, zerolog.Nop())
	go clientDisp.Run(ctx)

	result, err := clientDisp.Call(ctx, "echo", map[string]string{"text": "hello"})
	require.NoError(t, err)

	var got struct {
		Text string `json:"text"`
	}
	require.NoError(t, json.Unmarshal(result, &got))
	require.Equal(t, "hello", got.Text)
}

func TestDispatcherMethodNotFound(t *testing.T) {
	client, server := newPair()
	serverDisp := New(server, zerolog.Nop())
	clientDisp := New(client, zerolog.Nop())

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	go serverDisp.Run(ctx)
	go clientDisp.Run(ctx)

	_, err := clientDisp.Call(ctx, "nonexistent", nil)
	require.Error(t, err)
}

// Cancelling a Call's context aborts the handler on the far side via
// notifications/cancelled and drops any late reply silently.
func TestDispatcherCancellationAbortsHandler(t *testing.T) {
	client, server := newPair()
	serverDisp := New(server, zerolog.Nop())
	clientDisp := New(client, zerolog.Nop())

	started := make(chan struct{})
	aborted := make(chan struct{})
	serverDisp.HandleRequest("slow", func(ctx context.Context, params json.RawMessage) (interface{}, error) {
		close(started)
		<-ctx.Done()
		close(aborted)
		return nil, ctx.Err()
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	go serverDisp.Run(ctx)
	go clientDisp.Run(ctx)

	callCtx, cancelCall := context.WithCancel(ctx)
	errCh := make(chan error, 1)
	go func() {
		_, err := clientDisp.Call(callCtx, "slow", nil)
		errCh <- err
	}()

	<-started
	cancelCall()

	select {
	case err := <-errCh:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("cancelled call did not return")
	}
	select {
	case <-aborted:
	case <-time.After(time.Second):
		t.Fatal("handler context was not cancelled by the peer's notice")
	}
}

// A request handler may issue its own Call back over the same dispatcher
// without deadlocking the read loop.
func TestDispatcherNestedCall(t *testing.T) {
	client, server := newPair()
	serverDisp := New(server, zerolog.Nop())
	clientDisp := New(client, zerolog.Nop())

	clientDisp.HandleRequest("whoami", func(ctx context.Context, params json.RawMessage) (interface{}, error) {
		return map[string]string{"name": "client"}, nil
	})
	serverDisp.HandleRequest("greet", func(ctx context.Context, params json.RawMessage) (interface{}, error) {
		raw, err := serverDisp.Call(ctx, "whoami", nil)
		if err != nil {
			return nil, err
		}
		var who struct {
			Name string `json:"name"`
		}
		if err := json.Unmarshal(raw, &who); err != nil {
			return nil, err
		}
		return map[string]string{"greeting": "hello " + who.Name}, nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	go serverDisp.Run(ctx)
	go clientDisp.Run(ctx)

	raw, err := clientDisp.Call(ctx, "greet", nil)
	require.NoError(t, err)
	var got struct {
		Greeting string `json:"greeting"`
	}
	require.NoError(t, json.Unmarshal(raw, &got))
	require.Equal(t, "hello client", got.Greeting)
}

// A JSON array of envelopes is dispatched element by element in order.
func TestDispatcherBatchDispatch(t *testing.T) {
	_, server := newPair()
	serverDisp := New(server, zerolog.Nop())

	seen := make(chan string, 2)
	serverDisp.HandleNotification("first", func(ctx context.Context, params json.RawMessage) {
		seen <- "first"
	})
	serverDisp.HandleNotification("second", func(ctx context.Context, params json.RawMessage) {
		seen <- "second"
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	go serverDisp.Run(ctx)

	batch := `[{"jsonrpc":"2.0","method":"first"},{"jsonrpc":"2.0","method":"second"}]`
	server.inbound <- []byte(batch)

	require.Equal(t, "first", <-seen)
	require.Equal(t, "second", <-seen)
}

func TestDispatcherNotification(t *testing.T) {
	client, server := newPair()
	serverDisp := New(server, zerolog.Nop())
	clientDisp := New(client, zerolog.Nop())

	received := make(chan string, 1)
	serverDisp.HandleNotification("ping-note", func(ctx context.Context, params json.RawMessage) {
		received <- "got it"
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	go serverDisp.Run(ctx)
	go clientDisp.Run(ctx)

	require.NoError(t, clientDisp.Notify(ctx, "ping-note", nil))

	select {
	case msg := <-received:
		require.Equal(t, "got it", msg)
	case <-time.After(time.Second):
		t.Fatal("notification was not delivered")
	}
}
