package main

import (
	"os"

	"github.com/aretw0/omnibot/internal/cli"
	"github.com/aretw0/omnibot/internal/presentation/tui"
	"github.com/spf13/cobra"
)

var chatCmd = &cobra.Command{
	Use:   "chat [conversation-id]",
	Short: "Talk to the active flow in the terminal",
	Long: `Plays the customer side of a conversation. Menu options may be chosen by
number or label. Passing an existing conversation id resumes it.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		stack, err := buildStack(cmd)
		if err != nil {
			return err
		}
		defer stack.Close()

		var conversationID string
		if len(args) > 0 {
			conversationID = args[0]
		}

		plain, _ := cmd.Flags().GetBool("plain")
		styled := !plain && tui.IsInteractive(os.Stdout)
		if styled {
			tui.PrintBanner(cmd.OutOrStdout())
		}

		ctx := cli.NewSignalContext(cmd.Context())
		defer ctx.Cancel()
		return cli.RunChat(ctx, stack.Engine, conversationID, cmd.InOrStdin(), tui.NewPresenter(cmd.OutOrStdout(), styled))
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)
	chatCmd.Flags().Bool("plain", false, "Disable markdown rendering and colors")
}
