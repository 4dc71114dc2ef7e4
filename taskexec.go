package chore

import (
	"context"
	"io"
	"sync"

	"github.com/fredrikaverpil/chore/internal/report"
)

// latch is a single-producer, many-consumer broadcast primitive: it
// publishes exactly one value, once. Late readers (arriving after
// publish) see the value immediately; early readers (arriving before)
// block on done until it is published. This is the "latched broadcast"
// the Processing state of a TaskExecutable needs: sync.Once alone
// signals "has run" but does not hand the cached result to a concurrent
// late joiner, so this adds the one published field sync.Once lacks.
type latch struct {
	done   chan struct{}
	result error
}

func newLatch() *latch {
	return &latch{done: make(chan struct{})}
}

// publish sets the result and wakes every waiter. Must be called exactly
// once.
func (l *latch) publish(result error) {
	l.result = result
	close(l.done)
}

// wait blocks until publish has been called, or ctx is done, and returns
// the published result.
func (l *latch) wait(ctx context.Context) error {
	select {
	case <-l.done:
		return l.result
	case <-ctx.Done():
		return ctx.Err()
	}
}

type execState int

const (
	stateInitialized execState = iota
	stateProcessing
	stateDone
)

// runtimeEnv carries the per-run settings a TaskExecutable needs to
// execute a non-empty task: the resolved global environment, the shell
// collaborator, the staleness oracle, and the I/O streams peers share.
// The streams are handed to the shell as given, so the output of
// concurrent peers may interleave; only the Reporter serializes its own
// lines with a mutex.
type runtimeEnv struct {
	globalEnv map[string]string
	shell     Shell
	oracle    *StalenessOracle
	reporter  *report.Reporter
	stdin     io.Reader
	stdout    io.Writer
	stderr    io.Writer
	// sem bounds how many scripts may be shelling out at once; nil means
	// unlimited, matching GlobalConfig's Concurrency=0 default.
	sem chan struct{}
}

// TaskExecutable is the per-key execution cell: at any moment it is
// Initialized (never started), Processing (run in flight, other callers
// join the latch), or Done (cached result, returned to all callers
// forever). def is nil for an auto-materialized empty File dependency,
// whose "execution" is the staleness gate alone.
type TaskExecutable struct {
	mu    sync.Mutex
	state execState
	key   TaskKey
	def   *TaskDef
	rt    *runtimeEnv
	latch *latch
	result error
}

func newTaskExecutable(key TaskKey, def *TaskDef, rt *runtimeEnv) *TaskExecutable {
	return &TaskExecutable{key: key, def: def, rt: rt, state: stateInitialized}
}

// Run is the sole entry point: idempotent, safe to invoke from multiple
// concurrent callers sharing this cell. The state transition out of
// Initialized happens entirely under the mutex, with no suspension in
// between, so a second caller arriving mid-transition always observes
// Processing (and joins the latch) rather than Initialized (and starting
// a second execution).
func (t *TaskExecutable) Run(ctx context.Context) error {
	t.mu.Lock()
	switch t.state {
	case stateDone:
		result := t.result
		t.mu.Unlock()
		return result
	case stateProcessing:
		l := t.latch
		t.mu.Unlock()
		return l.wait(ctx)
	default:
		l := newLatch()
		t.latch = l
		t.state = stateProcessing
		t.mu.Unlock()

		result := t.execute(ctx)
		l.publish(result)

		t.mu.Lock()
		t.state = stateDone
		t.result = result
		t.mu.Unlock()
		return result
	}
}

// execute runs the staleness gate and, if not skipped, the task's script.
func (t *TaskExecutable) execute(ctx context.Context) error {
	if t.def == nil {
		// Auto-materialized File dependency: no script, nothing to run.
		return nil
	}

	skip, err := t.rt.oracle.ShouldSkip(t.key, t.def.Depends)
	if err != nil {
		return err
	}
	if skip {
		t.report(func(r *report.Reporter) { r.Skipped(t.key.String(), t.key.IsPhony()) })
		return nil
	}
	if t.def.Script == "" {
		return nil
	}

	t.report(func(r *report.Reporter) { r.Started(t.key.String(), t.key.IsPhony()) })

	if t.rt.sem != nil {
		select {
		case t.rt.sem <- struct{}{}:
			defer func() { <-t.rt.sem }()
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	// Cancellation is observed before the script starts; a script that has
	// already started is left to finish rather than killed.
	if err := ctx.Err(); err != nil {
		return err
	}
	mergedEnv := mergeEnv(t.rt.globalEnv, t.def.Envs)
	exitCode, err := t.rt.shell.Run(context.WithoutCancel(ctx), t.def.Script, envSlice(mergedEnv), t.def.Cwd, t.rt.stdin, t.rt.stdout, t.rt.stderr)
	if err != nil {
		return err
	}
	if exitCode != 0 {
		runErr := &ExecutionError{Key: t.key, ExitCode: exitCode}
		t.report(func(r *report.Reporter) { r.Failed(runErr) })
		return runErr
	}
	t.report(func(r *report.Reporter) { r.Finished(t.key.String(), t.key.IsPhony()) })
	return nil
}

// report invokes fn with the runtime's reporter if one was configured;
// runtimeEnv.reporter is nil in tests that exercise the engine without a
// terminal collaborator.
func (t *TaskExecutable) report(fn func(*report.Reporter)) {
	if t.rt == nil || t.rt.reporter == nil {
		return
	}
	fn(t.rt.reporter)
}

// mergeEnv layers task envs on top of global envs; task values win on
// key collision.
func mergeEnv(global, task map[string]string) map[string]string {
	merged := make(map[string]string, len(global)+len(task))
	for k, v := range global {
		merged[k] = v
	}
	for k, v := range task {
		merged[k] = v
	}
	return merged
}

func envSlice(env map[string]string) []string {
	out := make([]string, 0, len(env))
	for k, v := range env {
		out = append(out, k+"="+v)
	}
	return out
}
