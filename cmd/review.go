package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/abhisek/lingua/internal/review"
	"github.com/abhisek/lingua/internal/srs"
)

var reviewCmd = &cobra.Command{
	Use:   "review <learner> <item> <Fail|Hard|Good|Easy>",
	Short: "Record a review answer",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		outcome, err := srs.ParseOutcome(args[2])
		if err != nil {
			return err
		}
		at, err := parseAt(cmd)
		if err != nil {
			return err
		}
		retry, _ := cmd.Flags().GetBool("retry")

		d, err := openDeps(cmd)
		if err != nil {
			return err
		}
		defer d.Close()
		if at.IsZero() {
			at = d.svc.Now()
		}

		var rec srs.Record
		submit := func(ctx context.Context) error {
			var err error
			rec, err = d.svc.SubmitReview(ctx, args[0], args[1], outcome, at)
			return err
		}
		if retry {
			err = review.RetryOnConflict(cmd.Context(), review.DefaultRetryConfig(), submit)
		} else {
			err = submit(cmd.Context())
		}
		if err != nil {
			return err
		}

		fmt.Printf("%s: %s recorded\n", rec.ItemID, outcome)
		printRecord(rec, d.svc.Policy())
		return nil
	},
}

func init() {
	reviewCmd.Flags().String("at", "", "Review time in RFC3339 (default: now)")
	reviewCmd.Flags().Bool("retry", false, "Retry on concurrent modification")
}

// parseAt reads the --at flag. An empty flag yields the zero time, which
// the service treats as now.
func parseAt(cmd *cobra.Command) (time.Time, error) {
	v, _ := cmd.Flags().GetString("at")
	if v == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --at %q: %w", v, err)
	}
	return t.UTC(), nil
}

func printRecord(rec srs.Record, p srs.Policy) {
	fmt.Printf("  %-16s %s\n", "phase", rec.Phase(p))
	fmt.Printf("  %-16s %d\n", "interval (days)", rec.IntervalDays)
	fmt.Printf("  %-16s %.2f\n", "ease", rec.EaseFactor)
	fmt.Printf("  %-16s %d\n", "repetitions", rec.Repetitions)
	fmt.Printf("  %-16s %d\n", "lapses", rec.Lapses)
	if rec.DueAt != nil {
		fmt.Printf("  %-16s %s\n", "due", rec.DueAt.Local().Format("2006-01-02 15:04"))
	}
	if rec.LastReviewedAt != nil {
		fmt.Printf("  %-16s %s\n", "last reviewed", rec.LastReviewedAt.Local().Format("2006-01-02 15:04"))
	}
	fmt.Printf("  %-16s %t\n", "suspended", rec.Suspended)
	fmt.Printf("  %-16s %d\n", "version", rec.Version)
}
