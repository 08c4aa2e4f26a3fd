package main

import (
	"fmt"

	"github.com/aretw0/omnibot/internal/presentation/graph"
	"github.com/spf13/cobra"
)

var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Export the flow graph visualization",
	Long: `Outputs a Mermaid diagram of the active flow. With --conversation, the
nodes visited by that conversation and its current node are highlighted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		stack, err := buildStack(cmd)
		if err != nil {
			return err
		}
		defer stack.Close()

		ctx := cmd.Context()
		flow, err := stack.Engine.ActiveFlow(ctx)
		if err != nil {
			return err
		}

		var overlay *graph.Overlay
		if id, _ := cmd.Flags().GetString("conversation"); id != "" {
			exec, err := stack.Engine.Execution(ctx, id)
			if err != nil {
				return err
			}
			if exec.FlowID != flow.ID {
				if flow, err = stack.Engine.Loader().Flow(ctx, exec.FlowID); err != nil {
					return err
				}
			}
			overlay = graph.OverlayFor(exec)
		}

		fmt.Fprint(cmd.OutOrStdout(), graph.GenerateMermaid(flow, overlay))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
	graphCmd.Flags().String("conversation", "", "Highlight the path of this conversation")
}
