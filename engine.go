package chore

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/fredrikaverpil/chore/internal/globalconfig"
	"github.com/fredrikaverpil/chore/internal/loader"
	"github.com/fredrikaverpil/chore/internal/report"
	"github.com/fredrikaverpil/chore/internal/shell"
)

// IO groups the three streams a run's tasks share. A nil field falls
// back to the corresponding os.Std{in,out,err} stream.
type IO struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// ExecuteOptions configures one call to Execute: the targets requested on
// the command line, the inherited environment, the I/O streams tasks
// share, and the root directory configuration is discovered under.
type ExecuteOptions struct {
	Targets []string
	Envs    map[string]string
	IO      IO
	Root    string

	// Quiet suppresses the terminal Reporter collaborator; used by `chore
	// list` and `chore graph`, which build a Registry/forest but never run
	// it, and by tests that only care about the returned error.
	Quiet bool
}

// Log is the package-level structured logger for engine lifecycle
// diagnostics, grounded on the corpus's logrus usage for exactly this
// kind of "stage reached" diagnostic trail.
var Log = logrus.New()

// Execute wires the Loader, GlobalConfig, Registry, DependencyResolver and
// Scheduler collaborators together. It parses targets against the
// current working directory (or opts.Root), builds the registry from
// every chore.yaml/chore.yml file discovered under that root, resolves
// the requested subset into a forest of shared nodes, and runs it to
// completion.
func Execute(ctx context.Context, opts ExecuteOptions) error {
	root := opts.Root
	if root == "" {
		wd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("chore: determine working directory: %w", err)
		}
		root = wd
	}

	gcfg, err := globalconfig.Load(root)
	if err != nil {
		return fmt.Errorf("chore: load global config: %w", err)
	}
	Log.WithField("root", root).Debug("global config loaded")

	files, err := loader.Load(root)
	if err != nil {
		return fmt.Errorf("chore: load task files: %w", err)
	}

	reg, err := BuildRegistry(toConfigFiles(files))
	if err != nil {
		return err
	}
	Log.WithField("tasks", reg.Len()).Info("registry built")

	targets := make([]TaskKey, 0, len(opts.Targets))
	for _, t := range opts.Targets {
		rel, err := ParseRelativeTaskKey(t)
		if err != nil {
			return &ArgumentError{Target: t, Err: err}
		}
		key, err := rel.Resolve(root)
		if err != nil {
			return &ArgumentError{Target: t, Err: err}
		}
		targets = append(targets, key)
	}

	rt := newRuntimeEnv(opts, gcfg)
	Log.Debug("resolution started")
	roots, err := Resolve(reg, targets, rt)
	if err != nil {
		return err
	}

	Log.Debug("scheduler started")
	if err := RunForest(ctx, roots); err != nil {
		if !opts.Quiet {
			report.New(rt.stderr).Failed(err)
		}
		return err
	}
	return nil
}

// newRuntimeEnv resolves the global environment (process env, overridden
// by chore.yaml's env; task envs are layered on top of this result later,
// per task) and wires the production Shell and StalenessOracle
// collaborators for one Execute call.
func newRuntimeEnv(opts ExecuteOptions, gcfg globalconfig.Config) *runtimeEnv {
	base := opts.Envs
	if base == nil {
		base = environSlice(os.Environ())
	}
	global := make(map[string]string, len(base)+len(gcfg.Env))
	for k, v := range base {
		global[k] = v
	}
	for k, v := range gcfg.Env {
		global[k] = v
	}

	stdin := opts.IO.Stdin
	if stdin == nil {
		stdin = os.Stdin
	}
	stdout := opts.IO.Stdout
	if stdout == nil {
		stdout = os.Stdout
	}
	stderr := opts.IO.Stderr
	if stderr == nil {
		stderr = os.Stderr
	}

	var rep *report.Reporter
	if !opts.Quiet {
		rep = report.New(stdout)
	}

	var sem chan struct{}
	if gcfg.Concurrency > 0 {
		sem = make(chan struct{}, gcfg.Concurrency)
	}

	return &runtimeEnv{
		globalEnv: global,
		shell:     shell.Posix{Command: gcfg.Shell},
		oracle:    NewStalenessOracle(nil),
		reporter:  rep,
		stdin:     stdin,
		stdout:    stdout,
		stderr:    stderr,
		sem:       sem,
	}
}

// environSlice turns the process's "KEY=VALUE" environ slice into a map,
// the form mergeEnv and newRuntimeEnv's merge step operate on.
func environSlice(environ []string) map[string]string {
	out := make(map[string]string, len(environ))
	for _, kv := range environ {
		for i := 0; i < len(kv); i++ {
			if kv[i] == '=' {
				out[kv[:i]] = kv[i+1:]
				break
			}
		}
	}
	return out
}

// toConfigFiles adapts the loader's decode-agnostic FileResult into the
// ConfigFile/RawTaskBody shapes BuildRegistry consumes. Kept as a
// conversion at the package boundary (rather than having loader import
// chore) so internal/loader stays free of a cycle back to its own
// caller.
func toConfigFiles(files []loader.FileResult) []ConfigFile {
	out := make([]ConfigFile, 0, len(files))
	for _, f := range files {
		cf := ConfigFile{Path: f.Path, Err: f.Err}
		if f.Err == nil {
			tasks := make(map[string]RawTaskBody, len(f.Tasks))
			for name, body := range f.Tasks {
				tasks[name] = RawTaskBody{
					Envs:        body.Envs,
					Script:      body.Script,
					Depends:     body.Depends,
					Cwd:         body.Cwd,
					Description: body.Description,
				}
			}
			cf.Parsed = &ParsedFile{Tasks: tasks}
		}
		out = append(out, cf)
	}
	return out
}

// BuildForest loads the registry under root and resolves targets without
// running anything, for `chore list`/`chore graph`.
func BuildForest(root string, targets []string) (*Registry, []*SharedNode, error) {
	gcfg, err := globalconfig.Load(root)
	if err != nil {
		return nil, nil, fmt.Errorf("chore: load global config: %w", err)
	}
	files, err := loader.Load(root)
	if err != nil {
		return nil, nil, fmt.Errorf("chore: load task files: %w", err)
	}
	reg, err := BuildRegistry(toConfigFiles(files))
	if err != nil {
		return nil, nil, err
	}

	keys := make([]TaskKey, 0, len(targets))
	for _, t := range targets {
		rel, err := ParseRelativeTaskKey(t)
		if err != nil {
			return reg, nil, &ArgumentError{Target: t, Err: err}
		}
		key, err := rel.Resolve(root)
		if err != nil {
			return reg, nil, &ArgumentError{Target: t, Err: err}
		}
		keys = append(keys, key)
	}
	if len(keys) == 0 {
		for key := range reg.tasks {
			keys = append(keys, key)
		}
	}

	rt := newRuntimeEnv(ExecuteOptions{Quiet: true}, gcfg)
	roots, err := Resolve(reg, keys, rt)
	return reg, roots, err
}
