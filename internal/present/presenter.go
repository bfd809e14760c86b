// Package present hands search results to external collaborators: the
// configured viewer command and the system clipboard. Hand-offs are
// best-effort; callers fall back to plain stdout when neither is available.
package present

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
)

// Presenter launches the configured viewer command with result paths on
// stdin, one per line. Interactive viewers such as fzf or less inherit the
// process's stdout and stderr.
type Presenter struct {
	command string
	stdout  io.Writer
	stderr  io.Writer

	// For testing: override command execution
	execCommand func(name string, args ...string) *exec.Cmd
	lookPath    func(file string) (string, error)
}

// NewPresenter creates a presenter for the given viewer command. The
// command string is split on whitespace; quoting is not supported. An
// empty command means no viewer is configured.
func NewPresenter(command string) *Presenter {
	return &Presenter{
		command:     command,
		stdout:      os.Stdout,
		stderr:      os.Stderr,
		execCommand: exec.Command,
		lookPath:    exec.LookPath,
	}
}

// Available reports whether a viewer command is configured and resolvable
// on PATH.
func (p *Presenter) Available() bool {
	argv := strings.Fields(p.command)
	if len(argv) == 0 {
		return false
	}
	_, err := p.lookPath(argv[0])
	return err == nil
}

// Command returns the configured viewer command string.
func (p *Presenter) Command() string {
	return p.command
}

// Present launches the viewer, writes one path per line to its stdin, and
// waits for it to exit. Cancelling ctx kills the viewer.
func (p *Presenter) Present(ctx context.Context, paths []string) error {
	argv := strings.Fields(p.command)
	if len(argv) == 0 {
		return fmt.Errorf("no viewer command configured")
	}

	binary, err := p.lookPath(argv[0])
	if err != nil {
		return fmt.Errorf("viewer %q not found: %w", argv[0], err)
	}

	var input strings.Builder
	for _, path := range paths {
		input.WriteString(path)
		input.WriteByte('\n')
	}

	cmd := p.execCommand(binary, argv[1:]...)
	cmd.Stdin = strings.NewReader(input.String())
	cmd.Stdout = p.stdout
	cmd.Stderr = p.stderr

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start viewer %q: %w", argv[0], err)
	}

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("viewer %q failed: %w", argv[0], err)
		}
		return nil
	case <-ctx.Done():
		_ = cmd.Process.Kill()
		<-done
		return ctx.Err()
	}
}
