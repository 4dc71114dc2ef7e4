package chore

import (
	"context"
	"io"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingShell struct {
	calls     int32
	lastEnv   []string
	exitCode  int
	runErr    error
}

func (s *countingShell) Run(_ context.Context, _ string, env []string, _ string, _ io.Reader, _, _ io.Writer) (int, error) {
	atomic.AddInt32(&s.calls, 1)
	s.lastEnv = env
	return s.exitCode, s.runErr
}

func TestTaskExecutable_RunsScriptExactlyOnce_UnderConcurrentCallers(t *testing.T) {
	shell := &countingShell{}
	def := &TaskDef{Key: phonyKey("build"), Script: "echo hi"}
	rt := &runtimeEnv{globalEnv: map[string]string{}, shell: shell, oracle: NewStalenessOracle(afero.NewMemMapFs())}
	exec := newTaskExecutable(def.Key, def, rt)

	const n = 20
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			err := exec.Run(context.Background())
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 1, shell.calls)
}

func TestTaskExecutable_Done_ReturnsCachedResult(t *testing.T) {
	shell := &countingShell{}
	def := &TaskDef{Key: phonyKey("build"), Script: "echo hi"}
	rt := &runtimeEnv{globalEnv: map[string]string{}, shell: shell, oracle: NewStalenessOracle(afero.NewMemMapFs())}
	exec := newTaskExecutable(def.Key, def, rt)

	require.NoError(t, exec.Run(context.Background()))
	require.NoError(t, exec.Run(context.Background()))
	assert.EqualValues(t, 1, shell.calls)
}

func TestTaskExecutable_NonZeroExit_ReturnsExecutionError(t *testing.T) {
	shell := &countingShell{exitCode: 3}
	def := &TaskDef{Key: phonyKey("build"), Script: "exit 3"}
	rt := &runtimeEnv{globalEnv: map[string]string{}, shell: shell, oracle: NewStalenessOracle(afero.NewMemMapFs())}
	exec := newTaskExecutable(def.Key, def, rt)

	err := exec.Run(context.Background())
	require.Error(t, err)
	var execErr *ExecutionError
	require.ErrorAs(t, err, &execErr)
	assert.Equal(t, 3, execErr.ExitCode)
}

func TestTaskExecutable_MergedEnv_TaskOverridesGlobal(t *testing.T) {
	shell := &countingShell{}
	def := &TaskDef{
		Key:    phonyKey("build"),
		Script: "echo hi",
		Envs:   map[string]string{"FOO": "task"},
	}
	rt := &runtimeEnv{
		globalEnv: map[string]string{"FOO": "global", "BAR": "global"},
		shell:     shell,
		oracle:    NewStalenessOracle(afero.NewMemMapFs()),
	}
	exec := newTaskExecutable(def.Key, def, rt)
	require.NoError(t, exec.Run(context.Background()))

	got := make(map[string]string)
	for _, kv := range shell.lastEnv {
		for i := 0; i < len(kv); i++ {
			if kv[i] == '=' {
				got[kv[:i]] = kv[i+1:]
				break
			}
		}
	}
	assert.Equal(t, "task", got["FOO"])
	assert.Equal(t, "global", got["BAR"])
}

func TestTaskExecutable_EmptyDependency_NoScriptInvoked(t *testing.T) {
	shell := &countingShell{}
	rt := &runtimeEnv{globalEnv: map[string]string{}, shell: shell, oracle: NewStalenessOracle(afero.NewMemMapFs())}
	exec := newTaskExecutable(fileKey("/tmp/out.o"), nil, rt)

	require.NoError(t, exec.Run(context.Background()))
	assert.EqualValues(t, 0, shell.calls)
}
