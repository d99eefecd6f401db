package graph

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/ispyb/fluorescence-scan/cmd/fluorescence-scan/db"
	"github.com/ispyb/fluorescence-scan/internal/schema"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestBuild(t *testing.T) {
	s, err := Build()
	require.Nil(t, err)

	sdl := s.SDL()
	for _, expected := range []string{
		`type FluorescenceScan @key(fields: "id") {`,
		`type Session @key(fields: "id") {`,
		"\tfluorescenceScan(id: ID!): FluorescenceScan\n",
		"\tfluorescenceScan: [FluorescenceScan!]!\n",
		"\tstatus: ScanStatus!\n",
		"\tjpegScanUrl: String\n",
		"\tsession: Session!\n",
		"scalar DateTime",
		"enum ScanStatus {\n\tpending\n\trunning\n\tcompleted\n\tfailed\n}",
	} {
		require.Contains(t, sdl, expected)
	}

	require.Equal(t, []schema.Entity{
		{Type: typeFluorescenceScan, Keys: []string{"id"}},
		{Type: typeSession, Keys: []string{"id"}},
	}, s.Entities())
}

func TestBuildDeterministic(t *testing.T) {
	first, err := Build()
	require.Nil(t, err)
	second, err := Build()
	require.Nil(t, err)

	require.Equal(t, first.SDL(), second.SDL())
}

func TestNewExecutableSchemaMissingReferenceResolver(t *testing.T) {
	resolve := referenceResolvers[typeSession]
	delete(referenceResolvers, typeSession)
	t.Cleanup(func() { referenceResolvers[typeSession] = resolve })

	_, err := NewExecutableSchema(NewResolver(zap.NewNop(), db.NewStoreMock(), nil))

	var genErr *schema.GenerationError
	require.True(t, errors.As(err, &genErr))
	require.ErrorIs(t, err, schema.ErrMissingReferenceResolver)
}

func TestGenerate(t *testing.T) {
	generated, err := Generate()
	require.Nil(t, err)

	built, err := Build()
	require.Nil(t, err)
	require.Equal(t, built.SDL(), generated.SDL())
}

func TestGenerateMissingReferenceResolver(t *testing.T) {
	resolve := referenceResolvers[typeSession]
	delete(referenceResolvers, typeSession)
	t.Cleanup(func() { referenceResolvers[typeSession] = resolve })

	path := filepath.Join(t.TempDir(), "schema.graphql")

	gen := schema.NewGeneration(Generate)
	err := gen.Run(nil, path)
	require.ErrorIs(t, err, schema.ErrMissingReferenceResolver)
	require.Equal(t, schema.Failed, gen.State())

	_, err = os.Stat(path)
	require.True(t, errors.Is(err, os.ErrNotExist))
}
