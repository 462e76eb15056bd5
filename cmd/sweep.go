package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Run one cross-validation sweep and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := initEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer e.Close()

		promoted, err := e.Service.Sweep(cmd.Context())
		if err != nil {
			return err
		}

		fmt.Printf("promoted %d submissions\n", promoted)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sweepCmd)
}
