package schema

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGenerationWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schema.graphql")

	gen := NewGeneration(widgetBuilder().Build)
	require.Equal(t, Idle, gen.State())

	require.Nil(t, gen.Run(nil, path))
	require.Equal(t, Written, gen.State())

	expected, err := widgetBuilder().Build()
	require.Nil(t, err)

	b, err := os.ReadFile(path)
	require.Nil(t, err)
	require.Equal(t, expected.SDL(), string(b))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.Nil(t, err)
	require.Len(t, entries, 1)
}

func TestGenerationStdout(t *testing.T) {
	var stdout bytes.Buffer

	gen := NewGeneration(widgetBuilder().Build)
	require.Nil(t, gen.Run(&stdout, ""))

	expected, err := widgetBuilder().Build()
	require.Nil(t, err)
	require.Equal(t, expected.SDL(), stdout.String())
}

func TestGenerationIdempotent(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "first.graphql")
	second := filepath.Join(dir, "second.graphql")

	require.Nil(t, NewGeneration(widgetBuilder().Build).Run(nil, first))
	require.Nil(t, NewGeneration(widgetBuilder().Build).Run(nil, second))

	a, err := os.ReadFile(first)
	require.Nil(t, err)
	b, err := os.ReadFile(second)
	require.Nil(t, err)
	require.Equal(t, a, b)
}

func TestGenerationFailed(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "schema.graphql")

	gen := NewGeneration(NewBuilder().Object("Widget", "").Build)
	err := gen.Run(nil, path)

	var genErr *GenerationError
	require.True(t, errors.As(err, &genErr))
	require.Equal(t, Failed, gen.State())

	entries, err := os.ReadDir(dir)
	require.Nil(t, err)
	require.Empty(t, entries)
}

func TestGenerationFailedKeepsExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schema.graphql")
	require.Nil(t, os.WriteFile(path, []byte("previous"), 0o644))

	gen := NewGeneration(NewBuilder().Build)
	require.Error(t, gen.Run(nil, path))

	b, err := os.ReadFile(path)
	require.Nil(t, err)
	require.Equal(t, "previous", string(b))
}

func TestGenerationUnwritable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "schema.graphql")

	gen := NewGeneration(widgetBuilder().Build)
	require.Error(t, gen.Run(nil, path))
	require.Equal(t, Failed, gen.State())
}

func TestGenerationRunOnce(t *testing.T) {
	var stdout bytes.Buffer

	gen := NewGeneration(widgetBuilder().Build)
	require.Nil(t, gen.Run(&stdout, ""))
	require.ErrorIs(t, gen.Run(&stdout, ""), ErrGenerationRun)
	require.Equal(t, Written, gen.State())
}
