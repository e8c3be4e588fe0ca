package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var repairCmd = &cobra.Command{
	Use:   "repair <learner> <item>",
	Short: "Rebuild a scheduling record from its review log",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := openDeps(cmd)
		if err != nil {
			return err
		}
		defer d.Close()

		rec, err := d.svc.Repair(cmd.Context(), args[0], args[1])
		if err != nil {
			return err
		}
		fmt.Printf("%s repaired:\n", args[1])
		printRecord(rec, d.svc.Policy())
		return nil
	},
}
