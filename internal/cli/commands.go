package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/futig/joke-flows/internal/entity"
)

func newFlowsCommand(with servicesRunE) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "flows",
		Short: "List registered flows",
		Args:  cobra.NoArgs,
		RunE: with(func(cmd *cobra.Command, _ []string, s *Services) error {
			flows := s.Flows.List()
			if asJSON {
				data, err := json.MarshalIndent(flows, "", "  ")
				if err != nil {
					return fmt.Errorf("marshal flows: %w", err)
				}
				cmd.Println(string(data))
				return nil
			}

			for _, f := range flows {
				line := f.Name
				if len(f.Tools) > 0 {
					line += "  tools=" + strings.Join(f.Tools, ",")
				}
				if f.Retrieval != "" {
					line += "  index=" + f.Retrieval
				}
				cmd.Println(line)
			}
			return nil
		}),
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "output flows as JSON")
	return cmd
}

func newRunCommand(with servicesRunE) *cobra.Command {
	return &cobra.Command{
		Use:   "run <flow> <text>",
		Short: "Run a flow with the given text",
		Long: `Runs a query flow the same way POST /flows/<flow> does.
All arguments after the flow name are joined into the text.`,
		Args: cobra.MinimumNArgs(2),
		RunE: with(func(cmd *cobra.Command, args []string, s *Services) error {
			out, err := s.Flows.Run(cmd.Context(), args[0], entity.NewFlowRequest(strings.Join(args[1:], " ")))
			if err != nil {
				return fmt.Errorf("%s: %w", entity.KindOf(err), err)
			}
			cmd.Println(out)
			return nil
		}),
	}
}

func newIngestCommand(with servicesRunE) *cobra.Command {
	return &cobra.Command{
		Use:   "ingest <file>...",
		Short: "Extract, chunk and index PDF or DOCX files",
		Args:  cobra.MinimumNArgs(1),
		RunE: with(func(cmd *cobra.Command, args []string, s *Services) error {
			for _, path := range args {
				if err := s.Ingester.Ingest(cmd.Context(), path); err != nil {
					return fmt.Errorf("ingest %s: %w", path, err)
				}
				cmd.Printf("indexed %s\n", path)
			}
			return nil
		}),
	}
}
