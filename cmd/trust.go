package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"
)

var trustCmd = &cobra.Command{
	Use:   "trust <user-id>",
	Short: "Print a user's trust report",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := initEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer e.Close()

		report, err := e.Service.Trust(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	},
}

func init() {
	rootCmd.AddCommand(trustCmd)
}
