/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/friendsincode/deepcrate/internal/models"
)

var setsCmd = &cobra.Command{
	Use:   "sets",
	Short: "List stored sets",
	RunE:  runSets,
}

func init() {
	rootCmd.AddCommand(setsCmd)
}

func runSets(cmd *cobra.Command, args []string) error {
	svc, cleanup, err := openPlanner()
	if err != nil {
		return err
	}
	defer cleanup()

	sets, err := svc.Sets(cmd.Context())
	if err != nil {
		return fmt.Errorf("list sets: %w", err)
	}

	if jsonOutput {
		if sets == nil {
			sets = []models.SetPlan{}
		}
		return printJSON(cmd.OutOrStdout(), sets)
	}
	printSets(cmd.OutOrStdout(), sets)
	return nil
}

func printSets(w io.Writer, sets []models.SetPlan) {
	if len(sets) == 0 {
		fmt.Fprintln(w, "no stored sets")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tID\tMIN\tRISK\tCREATED")
	for _, s := range sets {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n", s.Name, s.ID, s.TargetDuration, s.RiskMode, s.CreatedAt.Format("2006-01-02 15:04"))
	}
	_ = tw.Flush()
}
