// Package report prints task lifecycle events to the terminal through a
// mutex-protected writer, with colorized phony/file key labels and
// start/skip/finish/error framing.
package report

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/fatih/color"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
)

// Reporter prints task lifecycle events. All methods are safe for
// concurrent use by the scheduler's parallel peers.
type Reporter struct {
	mu    sync.Mutex
	out   io.Writer
	phony *color.Color
	file  *color.Color
	fail  *color.Color
	skip  *color.Color
	plain *color.Color
}

// New builds a Reporter writing to out. When out is os.Stdout, it is
// wrapped with go-colorable so ANSI codes render on Windows consoles too;
// color is disabled automatically when out is not a TTY.
func New(out io.Writer) *Reporter {
	noColor := true
	if f, ok := out.(*os.File); ok {
		noColor = !isatty.IsTerminal(f.Fd()) && !isatty.IsCygwinTerminal(f.Fd())
	}
	if out == os.Stdout {
		out = colorable.NewColorableStdout()
	}
	mk := func(attrs ...color.Attribute) *color.Color {
		c := color.New(attrs...)
		if noColor {
			c.DisableColor()
		}
		return c
	}
	return &Reporter{
		out:   out,
		phony: mk(color.FgHiMagenta),
		file:  mk(color.FgHiBlue),
		fail:  mk(color.FgHiRed),
		skip:  mk(color.FgHiBlack),
		plain: mk(),
	}
}

// KeyLabel colorizes a task key for display: phony names in bright purple,
// file paths in bright blue.
func (r *Reporter) KeyLabel(name string, isPhony bool) string {
	if isPhony {
		return r.phony.Sprint(name)
	}
	return r.file.Sprint(name)
}

// Started reports that key's script has begun running.
func (r *Reporter) Started(name string, isPhony bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintf(r.out, "→ %s\n", r.KeyLabel(name, isPhony))
}

// Skipped reports that key was up to date and its script did not run.
func (r *Reporter) Skipped(name string, isPhony bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintf(r.out, "%s %s\n", r.skip.Sprint("skip"), r.KeyLabel(name, isPhony))
}

// Finished reports that key's script completed successfully.
func (r *Reporter) Finished(name string, isPhony bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintf(r.out, "%s %s\n", r.plain.Sprint("done"), r.KeyLabel(name, isPhony))
}

// Failed reports a task error, which may be any of the core's typed
// errors (resolution, parse, or runtime).
func (r *Reporter) Failed(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintf(r.out, "%s %v\n", r.fail.Sprint("error:"), err)
}
