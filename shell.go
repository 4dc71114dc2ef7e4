package chore

import (
	"context"
	"io"
)

// Shell is the embedded-shell external collaborator: it interprets a
// task's script text and executes it, returning the process exit code.
// The core never inspects script syntax itself; it treats a non-empty
// Script as an opaque program handed to this interface.
type Shell interface {
	Run(ctx context.Context, script string, env []string, cwd string, stdin io.Reader, stdout, stderr io.Writer) (exitCode int, err error)
}
