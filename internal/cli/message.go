package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newMessageCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "message",
		Short: "Chat commands",
	}

	cmd.AddCommand(newMessageSendCmd())
	cmd.AddCommand(newMessageListCmd())

	return cmd
}

func newMessageSendCmd() *cobra.Command {
	var asHost bool
	var mode string

	cmd := &cobra.Command{
		Use:   "send <player-id> <content>",
		Short: "Send a message on a player's channel",
		Long: `Send a message on a player's channel. Player messages are always
in character; with --host the message comes from the host and --mode picks
RP or OOC.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parsePlayerID(args[0])
			if err != nil {
				return err
			}

			path := fmt.Sprintf("/api/players/%d/messages", id)
			req := map[string]string{"content": args[1]}
			if asHost {
				path = fmt.Sprintf("/api/host/players/%d/messages", id)
				req["mode"] = mode
			}

			var result MessageResult
			if err := client.Post(path, req, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asHost, "host", false, "Send as the host (requires --host-password)")
	cmd.Flags().StringVar(&mode, "mode", "RP", "Message mode for host messages: RP, OOC")

	return cmd
}

func newMessageListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list <player-id>",
		Short: "Show a player's chat history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parsePlayerID(args[0])
			if err != nil {
				return err
			}

			var result MessagesResult
			if err := client.Get(fmt.Sprintf("/api/players/%d/messages", id), &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}
