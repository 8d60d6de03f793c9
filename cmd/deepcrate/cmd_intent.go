/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var intentCmd = &cobra.Command{
	Use:   "intent DESCRIPTION",
	Short: "Show how a description is read against the library",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runIntent,
}

func init() {
	rootCmd.AddCommand(intentCmd)
}

func runIntent(cmd *cobra.Command, args []string) error {
	svc, cleanup, err := openPlanner()
	if err != nil {
		return err
	}
	defer cleanup()

	report, err := svc.Intent(cmd.Context(), strings.Join(args, " "))
	if err != nil {
		return fmt.Errorf("intent: %w", err)
	}

	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), report)
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "expanded: %s\n", report.Reading.Expanded)
	for _, m := range report.Reading.Profiles {
		fmt.Fprintf(w, "  %-28s score %.2f  strict %.0f-%.0f bpm\n", m.Profile.Name, m.Score, m.Profile.Strict.Min, m.Profile.Strict.Max)
	}
	arc := report.Reading.Arc
	fmt.Fprintf(w, "arc: %s (start low: %t, peak at %.2f)\n", arc.Shape, arc.StartLow, arc.PeakAt)
	fmt.Fprintf(w, "duration: %d min, %d tracks\n", report.Reading.DurationMinutes, report.TargetCount)
	a := report.Availability
	fmt.Fprintf(w, "library: %d of %d tracks match\n", a.Matching, a.Total)
	return nil
}
