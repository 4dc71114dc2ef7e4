package chore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRelativeTaskKey_Empty(t *testing.T) {
	_, err := ParseRelativeTaskKey("")
	require.Error(t, err)
	var emptyErr *EmptyTaskKeyError
	assert.ErrorAs(t, err, &emptyErr)
}

func TestParseRelativeTaskKey_PhonyDigitStart(t *testing.T) {
	_, err := ParseRelativeTaskKey("9build")
	require.Error(t, err)
}

func TestParseRelativeTaskKey_Phony(t *testing.T) {
	rel, err := ParseRelativeTaskKey("build")
	require.NoError(t, err)
	assert.Equal(t, "build", rel.Display())
}

func TestParseRelativeTaskKey_File(t *testing.T) {
	for _, s := range []string{"a/b.txt", "./out.o", "../x", "file.go"} {
		rel, err := ParseRelativeTaskKey(s)
		require.NoError(t, err, s)
		assert.Equal(t, s, rel.Display())
	}
}

func TestRelativeTaskKey_Resolve_Phony(t *testing.T) {
	rel, err := ParseRelativeTaskKey("build")
	require.NoError(t, err)
	key, err := rel.Resolve("/some/dir")
	require.NoError(t, err)
	assert.True(t, key.IsPhony())
	assert.Equal(t, "build", key.String())
}

func TestRelativeTaskKey_Resolve_File(t *testing.T) {
	rel, err := ParseRelativeTaskKey("out.o")
	require.NoError(t, err)
	key, err := rel.Resolve("/some/dir")
	require.NoError(t, err)
	assert.False(t, key.IsPhony())
	assert.Equal(t, "/some/dir/out.o", key.String())
}

func TestRelativeTaskKey_Resolve_DotDot(t *testing.T) {
	rel, err := ParseRelativeTaskKey("../sibling/out.o")
	require.NoError(t, err)
	key, err := rel.Resolve("/some/dir")
	require.NoError(t, err)
	assert.Equal(t, "/some/sibling/out.o", key.String())
}

func TestTaskKey_Less_PhonyBeforeFile(t *testing.T) {
	p := phonyKey("zzz")
	f := fileKey("/aaa")
	assert.True(t, p.Less(f))
	assert.False(t, f.Less(p))
}

func TestTaskKey_Less_Lexicographic(t *testing.T) {
	assert.True(t, phonyKey("a").Less(phonyKey("b")))
	assert.True(t, fileKey("/a").Less(fileKey("/b")))
}
