package lock

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAcquireRelease(t *testing.T) {
	dir := t.TempDir()
	l := NewRunLock(dir, "varejo")

	require.NoError(t, l.Acquire())
	assert.Equal(t, filepath.Join(dir, ".varejo.lock"), l.Path())

	content, err := os.ReadFile(l.Path())
	require.NoError(t, err)
	assert.Contains(t, string(content), "pid=")

	require.NoError(t, l.Release())
	_, err = os.Stat(l.Path())
	assert.True(t, os.IsNotExist(err))
}

func TestAcquireConflict(t *testing.T) {
	dir := t.TempDir()
	first := NewRunLock(dir, "varejo")
	second := NewRunLock(dir, "varejo")

	require.NoError(t, first.Acquire())
	defer first.Release()

	err := second.Acquire()
	assert.ErrorIs(t, err, ErrAlreadyRunning)
}

func TestDifferentPipelinesDoNotConflict(t *testing.T) {
	dir := t.TempDir()
	a := NewRunLock(dir, "varejo")
	b := NewRunLock(dir, "atacado")

	require.NoError(t, a.Acquire())
	defer a.Release()
	require.NoError(t, b.Acquire())
	defer b.Release()
}

func TestReleaseWithoutAcquire(t *testing.T) {
	l := NewRunLock(t.TempDir(), "varejo")
	assert.NoError(t, l.Release())
}

func TestAcquireCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "saida")
	l := NewRunLock(dir, "varejo")
	require.NoError(t, l.Acquire())
	defer l.Release()
}
