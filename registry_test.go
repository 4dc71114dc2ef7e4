package chore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildRegistry_MergesAcrossFiles(t *testing.T) {
	files := []ConfigFile{
		{
			Path: "/repo/chore.yaml",
			Parsed: &ParsedFile{Tasks: map[string]RawTaskBody{
				"build": {Script: "go build ./..."},
			}},
		},
		{
			Path: "/repo/sub/chore.yaml",
			Parsed: &ParsedFile{Tasks: map[string]RawTaskBody{
				"test": {Script: "go test ./...", Depends: []string{"build"}},
			}},
		},
	}

	reg, err := BuildRegistry(files)
	require.NoError(t, err)
	assert.Equal(t, 2, reg.Len())

	build, ok := reg.Get(phonyKey("build"))
	require.True(t, ok)
	assert.Equal(t, "go build ./...", build.Script)

	test, ok := reg.Get(phonyKey("test"))
	require.True(t, ok)
	require.Len(t, test.Depends, 1)
	assert.Equal(t, phonyKey("build"), test.Depends[0])
}

func TestBuildRegistry_DuplicateKeyAcrossFiles(t *testing.T) {
	files := []ConfigFile{
		{Path: "/repo/chore.yaml", Parsed: &ParsedFile{Tasks: map[string]RawTaskBody{"build": {}}}},
		{Path: "/repo/sub/chore.yaml", Parsed: &ParsedFile{Tasks: map[string]RawTaskBody{"build": {}}}},
	}

	_, err := BuildRegistry(files)
	require.Error(t, err)
	var dupErr *DuplicatedTaskNameError
	assert.ErrorAs(t, err, &dupErr)
}

func TestBuildRegistry_SkipsParseErrorFiles(t *testing.T) {
	files := []ConfigFile{
		{Path: "/repo/broken.yaml", Err: assertError("boom")},
		{Path: "/repo/chore.yaml", Parsed: &ParsedFile{Tasks: map[string]RawTaskBody{"build": {}}}},
	}

	reg, err := BuildRegistry(files)
	require.NoError(t, err)
	assert.Equal(t, 1, reg.Len())
}

func TestBuildRegistry_ResolvesDependsAndCwdRelativeToDeclaringFile(t *testing.T) {
	files := []ConfigFile{
		{
			Path: "/repo/sub/chore.yaml",
			Parsed: &ParsedFile{Tasks: map[string]RawTaskBody{
				"build": {Script: "make", Cwd: "inner", Depends: []string{"in.c"}},
			}},
		},
	}

	reg, err := BuildRegistry(files)
	require.NoError(t, err)
	def, ok := reg.Get(phonyKey("build"))
	require.True(t, ok)
	assert.Equal(t, "/repo/sub/inner", def.Cwd)
	require.Len(t, def.Depends, 1)
	assert.Equal(t, "/repo/sub/in.c", def.Depends[0].String())
}

type simpleErr string

func (e simpleErr) Error() string { return string(e) }

func assertError(msg string) error { return simpleErr(msg) }
