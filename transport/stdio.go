package transport

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
)

// Stdio binds a connection to os.Stdin and os.Stdout. Diagnostics must go
// elsewhere: any other byte on stdout corrupts the stream.
func Stdio(cfg Config) (*Connection, *IoThreads) {
	return Streams(os.Stdin, os.Stdout, cfg)
}

// Streams binds a connection to an arbitrary reader and writer.
func Streams(r io.Reader, w io.Writer, cfg Config) (*Connection, *IoThreads) {
	return spawn(r, w, cfg, ioHooks{})
}

// CommandConfig configures a child process spoken to over its stdio.
type CommandConfig struct {
	Command string
	Args    []string
	Env     map[string]string
}

// Command starts a child process and binds a connection to its stdin and
// stdout. The child's stderr is passed through to ours. Its stdin is closed
// once the writer finishes, and the caller owns cmd.Wait.
func Command(ctx context.Context, cc CommandConfig, cfg Config) (*Connection, *IoThreads, *exec.Cmd, error) {
	cmd := exec.CommandContext(ctx, cc.Command, cc.Args...)

	cmd.Env = os.Environ()
	for k, v := range cc.Env {
		cmd.Env = append(cmd.Env, fmt.Sprintf("%s=%s", k, v))
	}

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to get stdin: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to get stdout: %w", err)
	}
	cmd.Stderr = os.Stderr

	if err := cmd.Start(); err != nil {
		return nil, nil, nil, fmt.Errorf("failed to start %s: %w", cc.Command, err)
	}

	conn, threads := spawn(stdout, stdin, cfg, ioHooks{
		afterWrite: func() { stdin.Close() },
	})
	return conn, threads, cmd, nil
}
