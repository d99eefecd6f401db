package main

import (
	"github.com/ispyb/fluorescence-scan/cmd/fluorescence-scan/graph"
	"github.com/ispyb/fluorescence-scan/internal/schema"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newSchemaCmd() *cobra.Command {
	var path string

	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Write the subgraph schema.",
		Long: "Write the federated subgraph schema to the file at --path, or to stdout " +
			"when no path is given. An existing file is only replaced once the schema " +
			"has been built and validated.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger, err := newLogger(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			gen := schema.NewGeneration(graph.Generate)
			if err := gen.Run(cmd.OutOrStdout(), path); err != nil {
				logger.Error(
					"Failed to generate schema.",
					zap.String("path", path),
					zap.Error(err),
				)
				return exitError{code: ecSchema}
			}
			if path != "" {
				logger.Info("Generated schema.", zap.String("path", path))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&path, "path", "", "file the schema is written to; stdout when empty")
	return cmd
}
