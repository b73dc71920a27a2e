// Package process runs external tools (ffmpeg, the inference worker) in
// their own process group so cancellation reaches the whole tree: SIGTERM
// first, SIGKILL once the grace period expires.
package process

import (
	"errors"
	"io"
	"time"
)

// ErrNotFound reports that the binary could not be resolved on PATH.
var ErrNotFound = errors.New("process: executable not found")

const defaultGracePeriod = 5 * time.Second

// Command configures a subprocess.
type Command struct {
	// Binary is an executable path or a name resolved via PATH.
	Binary string
	Args   []string
	Dir    string
	// Env holds extra KEY=value pairs appended to the parent environment.
	Env   []string
	Stdin io.Reader
	// GracePeriod is the wait between SIGTERM and SIGKILL. Defaults to 5s.
	GracePeriod time.Duration
}

// Result holds the output and status of a finished subprocess.
type Result struct {
	Stdout []byte
	Stderr []byte
	// ExitCode is -1 when the process never started or was killed by a signal.
	ExitCode int
	Duration time.Duration
}
