package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newHostCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "host",
		Short: "Host console commands",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "login",
		Short: "Check the host password",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfg.HostPassword == "" {
				return fmt.Errorf("--host-password or TABLESYNC_HOST_PASSWORD is required")
			}

			req := map[string]string{"password": cfg.HostPassword}
			if err := client.Post("/api/host/login", req, nil); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.PrintMessage("Host password accepted")
			return nil
		},
	})

	return cmd
}
