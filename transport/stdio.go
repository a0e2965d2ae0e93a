package transport

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/rs/zerolog"
)

// stdioConn is the single implicit session of a stdio transport: one
// newline-delimited JSON message per line in each direction. Grounded on
// the original stdio server/client backends, which frame messages the same
// way and treat EOF on the read side as the session finishing.
type stdioConn struct {
	id SessionID

	in  io.Reader
	out io.Writer

	inbound chan []byte
	done    chan struct{}
	closeOnce sync.Once

	writeMu sync.Mutex
	log     zerolog.Logger
}

// NewStdioListener wraps r/w as a Listener that yields exactly one Conn.
// Subsequent Accept calls block until the first Conn is closed, then return
// io.EOF, matching stdio's single-session nature.
func NewStdioListener(r io.Reader, w io.Writer, log zerolog.Logger) Listener {
	return &stdioListener{r: r, w: w, log: log, accepted: make(chan struct{})}
}

type stdioListener struct {
	r   io.Reader
	w   io.Writer
	log zerolog.Logger

	once     sync.Once
	accepted chan struct{}
	conn     *stdioConn
}

func (l *stdioListener) Accept(ctx context.Context) (Conn, error) {
	var first bool
	l.once.Do(func() {
		first = true
		l.conn = newStdioConn(l.r, l.w, l.log)
		close(l.accepted)
	})
	if first {
		return l.conn, nil
	}
	select {
	case <-l.conn.Done():
		return nil, io.EOF
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (l *stdioListener) Close() error {
	<-l.accepted
	return l.conn.Close()
}

func newStdioConn(r io.Reader, w io.Writer, log zerolog.Logger) *stdioConn {
	c := &stdioConn{
		id:      newSessionID(),
		in:      r,
		out:     w,
		inbound: make(chan []byte, 16),
		done:    make(chan struct{}),
		log:     log,
	}
	go c.readLoop()
	return c
}

func (c *stdioConn) readLoop() {
	defer close(c.inbound)
	defer c.Close()

	scanner := bufio.NewScanner(c.in)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		cp := make([]byte, len(line))
		copy(cp, line)
		select {
		case c.inbound <- cp:
		case <-c.done:
			return
		}
	}
	if err := scanner.Err(); err != nil {
		c.log.Error().Err(err).Msg("stdio read failed")
	}
}

func (c *stdioConn) ID() SessionID            { return c.id }
func (c *stdioConn) Inbound() <-chan []byte   { return c.inbound }
func (c *stdioConn) Done() <-chan struct{}    { return c.done }

func (c *stdioConn) Send(ctx context.Context, payload []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if _, err := c.out.Write(payload); err != nil {
		return fmt.Errorf("stdio write failed: %w", err)
	}
	if _, err := c.out.Write([]byte("\n")); err != nil {
		return fmt.Errorf("stdio write failed: %w", err)
	}
	return nil
}

func (c *stdioConn) Close() error {
	c.closeOnce.Do(func() {
		close(c.done)
	})
	return nil
}
