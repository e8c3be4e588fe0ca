package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/lingua/internal/srs"
)

var statsCmd = &cobra.Command{
	Use:   "stats <learner>",
	Short: "Show learning statistics",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := openDeps(cmd)
		if err != nil {
			return err
		}
		defer d.Close()

		st, err := d.svc.Stats(cmd.Context(), args[0], d.svc.Now())
		if err != nil {
			return err
		}

		fmt.Printf("%-16s %d\n", "items", st.Items)
		fmt.Printf("%-16s %d\n", "learning", st.Learning)
		fmt.Printf("%-16s %d\n", "review", st.Review)
		fmt.Printf("%-16s %d\n", "due now", st.DueNow)
		fmt.Printf("%-16s %d\n", "suspended", st.Suspended)
		fmt.Printf("%-16s %d\n", "unseen", st.Unseen)
		fmt.Printf("%-16s %d\n", "lapses", st.Lapses)
		fmt.Printf("%-16s %d\n", "reviews", st.TotalReviews)
		fmt.Printf("%-16s %.1f%%\n", "accuracy", st.Accuracy*100)
		for _, o := range []srs.Outcome{srs.Fail, srs.Hard, srs.Good, srs.Easy} {
			fmt.Printf("  %-14s %d\n", o, st.Outcomes[o])
		}
		return nil
	},
}
