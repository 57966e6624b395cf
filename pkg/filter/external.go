package filter

import (
	"bytes"
	"context"
	"os/exec"

	"github.com/bgrewell/isoforge/pkg/contentstream"
)

// External runs an external command as a filter, piping the input stream
// to its stdin and capturing stdout as the filtered content. Installation
// of external filters is behavior-flag gated: a caller must explicitly
// enable them, since running an arbitrary command during image emission is
// a meaningfully different trust boundary than the in-process zisofs
// filter.
type External struct {
	Command string
	Args    []string
	ctx     context.Context
}

// NewExternal builds an External filter invoking command with args. ctx
// governs the spawned process's lifetime; passing nil uses
// context.Background.
func NewExternal(ctx context.Context, command string, args ...string) *External {
	if ctx == nil {
		ctx = context.Background()
	}
	return &External{Command: command, Args: args, ctx: ctx}
}

func (e *External) Name() string { return "external:" + e.Command }

func (e *External) Apply(input contentstream.Stream) (contentstream.Stream, error) {
	if !input.Repeatable() {
		return nil, ErrNotRepeatable
	}
	if err := input.Open(); err != nil {
		return nil, err
	}
	defer input.Close()

	cmd := exec.CommandContext(e.ctx, e.Command, e.Args...)
	cmd.Stdin = input

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, &ExternalFilterError{Command: e.Command, Stderr: stderr.String(), Err: err}
	}

	return contentstream.NewMemoryStream(stdout.Bytes()), nil
}

// ExternalFilterError reports an external filter command's failure,
// retaining its stderr output for diagnostics.
type ExternalFilterError struct {
	Command string
	Stderr  string
	Err     error
}

func (e *ExternalFilterError) Error() string {
	return "filter: external command " + e.Command + " failed: " + e.Err.Error()
}

func (e *ExternalFilterError) Unwrap() error { return e.Err }
