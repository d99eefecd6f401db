package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ispyb/fluorescence-scan/cmd/fluorescence-scan/graph"

	"github.com/stretchr/testify/require"
)

func TestRun(t *testing.T) {
	dir := t.TempDir()

	tests := map[string]struct {
		args     []string
		expected int
		written  string
	}{
		"schema": {
			args:     []string{"schema", "--path", filepath.Join(dir, "schema.graphql")},
			expected: ecExit,
			written:  filepath.Join(dir, "schema.graphql"),
		},
		"generate schema": {
			args:     []string{"generate", "schema", "--path", filepath.Join(dir, "generated.graphql")},
			expected: ecExit,
			written:  filepath.Join(dir, "generated.graphql"),
		},
		"unwritable path": {
			args:     []string{"schema", "--path", filepath.Join(dir, "missing", "schema.graphql")},
			expected: ecSchema,
		},
		"unknown command": {
			args:     []string{"migrate"},
			expected: ecUsage,
		},
		"unexpected argument": {
			args:     []string{"schema", "schema.graphql"},
			expected: ecUsage,
		},
		"invalid log level": {
			args:     []string{"schema", "--log-level", "verbose"},
			expected: ecLogger,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			require.Equal(t, test.expected, run(test.args))
			if test.written == "" {
				return
			}

			s, err := graph.Build()
			require.Nil(t, err)

			b, err := os.ReadFile(test.written)
			require.Nil(t, err)
			require.Equal(t, s.SDL(), string(b))
		})
	}
}
