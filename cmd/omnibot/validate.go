package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the active flow for consistency",
	Long: `Reports dangling edges, unreachable nodes, menus without a route per button,
dead ends and write actions missing from the catalog.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		stack, err := buildStack(cmd)
		if err != nil {
			return err
		}
		defer stack.Close()

		if err := stack.Engine.Validate(cmd.Context()); err != nil {
			return fmt.Errorf("validation failed: %w", err)
		}
		flow, err := stack.Engine.ActiveFlow(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Flow %s is valid (%d nodes, %d edges)\n", flow.ID, len(flow.Nodes), len(flow.Edges))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
