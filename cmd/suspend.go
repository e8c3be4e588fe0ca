package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var suspendCmd = &cobra.Command{
	Use:   "suspend <learner> <item>",
	Short: "Remove an item from the learner's due queue",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := openDeps(cmd)
		if err != nil {
			return err
		}
		defer d.Close()

		if _, err := d.svc.Suspend(cmd.Context(), args[0], args[1]); err != nil {
			return err
		}
		fmt.Printf("%s suspended for %s\n", args[1], args[0])
		return nil
	},
}

var unsuspendCmd = &cobra.Command{
	Use:   "unsuspend <learner> <item>",
	Short: "Return a suspended item to the learner's due queue",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := openDeps(cmd)
		if err != nil {
			return err
		}
		defer d.Close()

		if _, err := d.svc.Unsuspend(cmd.Context(), args[0], args[1]); err != nil {
			return err
		}
		fmt.Printf("%s unsuspended for %s\n", args[1], args[0])
		return nil
	},
}
