// Package cli implements the flowctl command line, a local entry point to the
// same flows and ingester the HTTP server exposes.
package cli

import (
	"context"
	"fmt"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/futig/joke-flows/internal/entity"
)

type FlowRunner interface {
	Run(ctx context.Context, name string, req entity.FlowRequest) (string, error)
	List() []entity.FlowInfo
}

type Ingester interface {
	Ingest(ctx context.Context, path string) error
}

// Services is what the commands operate on. Close releases whatever Load opened.
// Logger, when set, is attached to the command context.
type Services struct {
	Flows    FlowRunner
	Ingester Ingester
	Logger   *zap.Logger
	Close    func()
}

// Loader builds services for an environment name
type Loader func(ctx context.Context, env string) (*Services, error)

// servicesRunE adapts a command body that needs services into a cobra RunE
type servicesRunE func(run func(cmd *cobra.Command, args []string, s *Services) error) func(*cobra.Command, []string) error

// NewRootCommand returns the flowctl command tree
func NewRootCommand(load Loader) *cobra.Command {
	var env string

	root := &cobra.Command{
		Use:           "flowctl",
		Short:         "Run joke flows and ingest documents from the command line",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&env, "env", "local", "environment whose .env file to load")

	withServices := func(run func(cmd *cobra.Command, args []string, s *Services) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			s, err := load(cmd.Context(), env)
			if err != nil {
				return fmt.Errorf("init services: %w", err)
			}
			if s.Close != nil {
				defer s.Close()
			}
			if s.Logger != nil {
				cmd.SetContext(ctxzap.ToContext(cmd.Context(), s.Logger))
			}
			return run(cmd, args, s)
		}
	}

	root.AddCommand(
		newFlowsCommand(withServices),
		newRunCommand(withServices),
		newIngestCommand(withServices),
	)
	return root
}
