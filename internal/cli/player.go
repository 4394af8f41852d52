package cli

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mcoot/tablesync/internal/model"
)

func newPlayerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "player",
		Short: "Player management commands",
	}

	cmd.AddCommand(newPlayerCreateCmd())
	cmd.AddCommand(newPlayerGetCmd())
	cmd.AddCommand(newPlayerListCmd())
	cmd.AddCommand(newPlayerRollCmd())
	cmd.AddCommand(newPlayerStatCmd())
	cmd.AddCommand(newPlayerSetCmd())

	return cmd
}

// parsePlayerID reads a positive player id argument
func parsePlayerID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid player id %q", arg)
	}
	return id, nil
}

func newPlayerCreateCmd() *cobra.Command {
	var name, power, powerDesc, sex, physDesc string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a player character",
		RunE: func(cmd *cobra.Command, args []string) error {
			req := map[string]string{
				"player_name":          name,
				"power":                power,
				"power_description":    powerDesc,
				"sex":                  sex,
				"physical_description": physDesc,
			}
			var result CreateResult

			if err := client.Post("/api/players", req, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Player name (required)")
	cmd.Flags().StringVar(&power, "power", "", "Power (required)")
	cmd.Flags().StringVar(&powerDesc, "power-description", "", "Power description (required)")
	cmd.Flags().StringVar(&sex, "sex", "", "Sex (required)")
	cmd.Flags().StringVar(&physDesc, "physical-description", "", "Physical description (required)")
	for _, f := range []string{"name", "power", "power-description", "sex", "physical-description"} {
		_ = cmd.MarkFlagRequired(f)
	}

	return cmd
}

func newPlayerGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show a player",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parsePlayerID(args[0])
			if err != nil {
				return err
			}

			var result PlayerResult
			if err := client.Get(fmt.Sprintf("/api/players/%d", id), &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}

func newPlayerListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every player (host only)",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result PlayersResult
			if err := client.Get("/api/players", &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}

func newPlayerRollCmd() *cobra.Command {
	var roll, sides int

	cmd := &cobra.Command{
		Use:   "roll <id>",
		Short: "Record a dice roll, or let the server roll",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parsePlayerID(args[0])
			if err != nil {
				return err
			}

			req := map[string]int{}
			if cmd.Flags().Changed("value") {
				req["roll"] = roll
			}
			if sides > 0 {
				req["sides"] = sides
			}

			var result RollResult
			if err := client.Post(fmt.Sprintf("/api/players/%d/roll", id), req, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}

	cmd.Flags().IntVar(&roll, "value", 0, "Roll result (omit to roll on the server)")
	cmd.Flags().IntVar(&sides, "sides", 0, "Die size for server rolls")

	return cmd
}

func newPlayerStatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stat <id> <hp|stam> <value>",
		Short: "Set current HP or stamina",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parsePlayerID(args[0])
			if err != nil {
				return err
			}
			value, err := strconv.Atoi(args[2])
			if err != nil {
				return fmt.Errorf("invalid value %q", args[2])
			}

			req := map[string]any{"type": args[1], "value": value}
			var result PlayerResult
			if err := client.Post(fmt.Sprintf("/api/players/%d/stats", id), req, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}

func newPlayerSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <id> <field> <value>",
		Short: "Set one player field",
		Long: `Set one updatable player field. Integer fields (curr_hp, max_hp,
curr_stam, max_stam, last_dice_roll) take a number; the rest take text.`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parsePlayerID(args[0])
			if err != nil {
				return err
			}

			raw, err := json.Marshal(fieldValue(args[1], args[2]))
			if err != nil {
				return err
			}

			req := map[string]any{"field": args[1], "value": json.RawMessage(raw)}
			var result PlayerResult
			if err := client.Patch(fmt.Sprintf("/api/players/%d", id), req, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}

// fieldValue converts arg to the JSON type field takes. Integer fields given
// something that is not a number are sent as text for the server to reject.
func fieldValue(field, arg string) any {
	if model.PlayerField(field).Kind() == model.KindInt {
		if n, err := strconv.Atoi(arg); err == nil {
			return n
		}
	}
	return arg
}
