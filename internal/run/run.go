// Package run executes the external tools the release pipeline delegates to.
package run

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/pterm/pterm"
)

//go:generate mockgen -source=run.go -destination=mock/runner.go -package=mock

// Command describes a single external tool invocation.
type Command struct {
	// Name is the binary to invoke.
	Name string
	// Args are passed to the binary verbatim.
	Args []string
	// Dir is the working directory for the invocation. Empty means the
	// current directory.
	Dir string
	// Env is extra environment in KEY=VALUE form, appended to the
	// inherited environment.
	Env []string
}

// String renders the command the way a user would type it, for dry-run and
// debug output. Credentials passed via Env are never included.
func (c Command) String() string {
	parts := make([]string, 0, len(c.Args)+1)
	parts = append(parts, c.Name)
	for _, a := range c.Args {
		if strings.ContainsAny(a, " \t") {
			a = fmt.Sprintf("%q", a)
		}
		parts = append(parts, a)
	}
	return strings.Join(parts, " ")
}

// Runner executes external commands, returning their combined output.
type Runner interface {
	Run(ctx context.Context, cmd Command) (string, error)
}

var _ Runner = (*Local)(nil)

// Local runs commands on the local host.
type Local struct{}

// Run executes the command, capturing stdout and stderr together. The
// returned output is whitespace-trimmed and is returned even when the
// command fails, so callers can surface the tool's own error text.
func (Local) Run(ctx context.Context, cmd Command) (string, error) {
	var buf bytes.Buffer
	c := exec.CommandContext(ctx, cmd.Name, cmd.Args...)
	c.Dir = cmd.Dir
	if len(cmd.Env) > 0 {
		c.Env = append(os.Environ(), cmd.Env...)
	}
	c.Stdout = &buf
	c.Stderr = &buf

	pterm.Debug.Printfln("running: %s", cmd)
	err := c.Run()
	out := strings.TrimSpace(buf.String())
	if err != nil {
		pterm.Debug.Printfln("[%s] error: %v", cmd.Name, err)
		return out, fmt.Errorf("%s: %w", cmd.Name, err)
	}
	return out, nil
}
