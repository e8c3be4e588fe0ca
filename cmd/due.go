package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var dueCmd = &cobra.Command{
	Use:   "due <learner>",
	Short: "Show the learner's due queue",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		at, err := parseAt(cmd)
		if err != nil {
			return err
		}

		d, err := openDeps(cmd)
		if err != nil {
			return err
		}
		defer d.Close()

		items, err := d.svc.StartSession(cmd.Context(), args[0], at, limit)
		if err != nil {
			return err
		}
		if len(items) == 0 {
			fmt.Println("Nothing due.")
			return nil
		}

		// Header.
		fmt.Printf("%-4s  %-32s  %-5s  %s\n", "#", "Item", "Level", "Skill")
		fmt.Println(strings.Repeat("\u2500", 60))
		for i, it := range items {
			fmt.Printf("%-4d  %-32s  %-5s  %s\n", i+1, it.ID, it.Level, it.Skill)
		}
		fmt.Printf("\n%d items\n", len(items))
		return nil
	},
}

func init() {
	dueCmd.Flags().Int("limit", 20, "Maximum number of items")
	dueCmd.Flags().String("at", "", "Evaluate the queue at this RFC3339 time instead of now")
}
