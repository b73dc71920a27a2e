package process

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"sync"
)

// Session is a long-lived subprocess driven over stdin/stdout, used for
// workers that keep expensive state (loaded models) between requests.
type Session struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout *bufio.Reader

	mu     sync.Mutex
	stderr bytes.Buffer
	done   chan struct{}
	err    error
}

// Start launches cmd without waiting for it. The process lives until ctx
// is cancelled or Close is called.
func Start(ctx context.Context, cmd Command) (*Session, error) {
	c, err := build(ctx, cmd)
	if err != nil {
		return nil, err
	}
	s := &Session{cmd: c, done: make(chan struct{})}

	if s.stdin, err = c.StdinPipe(); err != nil {
		return nil, fmt.Errorf("process: stdin pipe: %w", err)
	}
	out, err := c.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("process: stdout pipe: %w", err)
	}
	s.stdout = bufio.NewReaderSize(out, 1<<20)
	c.Stderr = &lockedWriter{mu: &s.mu, w: &s.stderr}

	if err := c.Start(); err != nil {
		return nil, fmt.Errorf("process: start %s: %w", cmd.Binary, err)
	}
	go func() {
		err := c.Wait()
		s.mu.Lock()
		s.err = err
		s.mu.Unlock()
		close(s.done)
	}()
	return s, nil
}

// Stdin returns the process's standard input.
func (s *Session) Stdin() io.Writer { return s.stdin }

// Stdout returns a buffered reader over the process's standard output.
func (s *Session) Stdout() *bufio.Reader { return s.stdout }

// Stderr returns everything written to stderr so far.
func (s *Session) Stderr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stderr.String()
}

// Done is closed when the process exits.
func (s *Session) Done() <-chan struct{} { return s.done }

// Exited reports whether the process has exited, with its wait error.
func (s *Session) Exited() (bool, error) {
	select {
	case <-s.done:
		s.mu.Lock()
		defer s.mu.Unlock()
		return true, s.err
	default:
		return false, nil
	}
}

// Close closes stdin, asking the worker to exit, and escalates to the
// process-group signals when ctx expires first.
func (s *Session) Close(ctx context.Context) error {
	_ = s.stdin.Close()
	select {
	case <-s.done:
	case <-ctx.Done():
		if s.cmd.Cancel != nil {
			_ = s.cmd.Cancel()
		}
		<-s.done
	}
	_, err := s.Exited()
	return err
}

type lockedWriter struct {
	mu *sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}
