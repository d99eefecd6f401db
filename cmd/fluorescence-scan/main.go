package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/ispyb/fluorescence-scan/cmd/fluorescence-scan/config"
	"github.com/ispyb/fluorescence-scan/cmd/fluorescence-scan/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const serviceName = "fluorescence-scan"

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	os.Exit(run(os.Args[1:]))
}

const (
	ecExit = iota
	ecUsage
	ecLogger
	ecTracer
	ecDatabaseConnection
	ecRedisConnection
	ecObjectStore
	ecSchema
	ecServerAPI
)

// exitError ends a command with a specific exit code. The command has
// already logged the cause.
type exitError struct{ code int }

func (e exitError) Error() string {
	return fmt.Sprintf("exit status %d", e.code)
}

func run(args []string) int {
	root := newRootCmd()
	root.SetArgs(args)

	err := root.Execute()
	if err == nil {
		return ecExit
	}

	var exit exitError
	if errors.As(err, &exit) {
		return exit.code
	}
	fmt.Fprintf(root.ErrOrStderr(), "Error: %s\n", err)
	return ecUsage
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           serviceName,
		Short:         "Federated GraphQL subgraph serving ISPyB fluorescence scans.",
		Version:       version,
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	root.PersistentFlags().String("log-level", "info", "minimum level logged (debug, info, warn, error)")
	root.PersistentPreRunE = func(cmd *cobra.Command, _ []string) error {
		return config.BindFlags(cmd.Flags())
	}

	generate := &cobra.Command{
		Use:   "generate",
		Short: "Generate service artifacts.",
	}
	generate.AddCommand(newSchemaCmd())

	root.AddCommand(
		newServeCmd(),
		newSchemaCmd(),
		generate,
	)
	return root
}

func newLogger(cmd *cobra.Command) (*zap.Logger, error) {
	zl, err := logger.New(config.LogLevel(), config.LogDevelopment())
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Error: while creating logger: %s\n", err)
		return nil, exitError{code: ecLogger}
	}
	return zl, nil
}
