package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/lingua/internal/store"
)

var stateCmd = &cobra.Command{
	Use:   "state <learner> <item>",
	Short: "Show the scheduling state of one item",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := openDeps(cmd)
		if err != nil {
			return err
		}
		defer d.Close()

		st, err := d.svc.GetSchedulingState(cmd.Context(), args[0], args[1])
		if err != nil {
			return err
		}
		if st.New {
			fmt.Printf("%s: new (never reviewed)\n", args[1])
			return nil
		}
		fmt.Printf("%s:\n", args[1])
		printRecord(st.Record, d.svc.Policy())
		return nil
	},
}

var historyCmd = &cobra.Command{
	Use:   "history <learner> <item>",
	Short: "Show the review log of one item",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		d, err := openDeps(cmd)
		if err != nil {
			return err
		}
		defer d.Close()

		events, err := d.svc.History(cmd.Context(), args[0], args[1], store.QueryOpts{Limit: limit})
		if err != nil {
			return err
		}
		if len(events) == 0 {
			fmt.Println("No reviews found.")
			return nil
		}

		// Header.
		fmt.Printf("%-8s  %-19s  %-6s  %8s  %s\n", "Seq", "Occurred", "Grade", "Interval", "Version")
		fmt.Println(strings.Repeat("\u2500", 60))
		for _, e := range events {
			fmt.Printf("%-8d  %-19s  %-6s  %8d  %d\n",
				e.Sequence,
				e.OccurredAt.Local().Format("2006-01-02 15:04:05"),
				e.Outcome,
				e.ResultingInterval,
				e.ResultingVersion,
			)
		}
		return nil
	},
}

func init() {
	historyCmd.Flags().Int("limit", 0, "Maximum number of events (0 = all)")
}
