package client

import (
	"context"
	"fmt"
	"io"
	"os/exec"

	"github.com/rs/zerolog"

	"github.com/mcpgopher/runtime/transport"
)

// StdioProcess is a subprocess-backed transport.Conn: it launches command as
// a child process and frames messages over its stdin/stdout exactly as
// transport.NewStdioListener does for the server's os.Stdin/os.Stdout pair,
// just dialed from the opposite end of the pipe.
type StdioProcess struct {
	transport.Conn
	cmd   *exec.Cmd
	stdin io.WriteCloser
}

// NewStdioProcess starts command with args, wiring its stdin/stdout to a
// transport.Conn suitable for NewClient. Close stops the subprocess.
func NewStdioProcess(ctx context.Context, log zerolog.Logger, command string, args ...string) (*StdioProcess, error) {
	cmd := exec.CommandContext(ctx, command, args...)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("stdout pipe: %w", err)
	}
	cmd.Stderr = &stderrLogWriter{log: log}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start %s: %w", command, err)
	}

	listener := transport.NewStdioListener(stdout, stdin, log)
	conn, err := listener.Accept(ctx)
	if err != nil {
		_ = cmd.Process.Kill()
		return nil, fmt.Errorf("accept subprocess conn: %w", err)
	}

	return &StdioProcess{Conn: conn, cmd: cmd, stdin: stdin}, nil
}

// Close closes the subprocess's stdio pipes and waits for it to exit.
func (p *StdioProcess) Close() error {
	closeErr := p.Conn.Close()
	_ = p.stdin.Close()
	waitErr := p.cmd.Wait()
	if closeErr != nil {
		return closeErr
	}
	if waitErr != nil {
		if _, ok := waitErr.(*exec.ExitError); ok {
			return nil
		}
		return waitErr
	}
	return nil
}

// stderrLogWriter relays a subprocess's stderr into the dispatcher's
// logger, one write per Write call, rather than letting it leak to the
// parent process's own stderr unannotated.
type stderrLogWriter struct {
	log zerolog.Logger
}

var _ io.Writer = (*stderrLogWriter)(nil)

func (w *stderrLogWriter) Write(p []byte) (int, error) {
	w.log.Warn().Str("stream", "subprocess-stderr").Msg(string(p))
	return len(p), nil
}
