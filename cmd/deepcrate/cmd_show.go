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

	"github.com/friendsincode/deepcrate/internal/planner"
)

var showCmd = &cobra.Command{
	Use:     "show NAME",
	Short:   "Show a stored set with its transition scores",
	Example: `  deepcrate show friday`,
	Args:    cobra.ExactArgs(1),
	RunE:    runShow,
}

func init() {
	rootCmd.AddCommand(showCmd)
}

func runShow(cmd *cobra.Command, args []string) error {
	svc, cleanup, err := openPlanner()
	if err != nil {
		return err
	}
	defer cleanup()

	detail, err := svc.SetDetailByName(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("show %q: %w", args[0], err)
	}

	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), detail)
	}
	printSetDetail(cmd.OutOrStdout(), detail)
	return nil
}

func printSetDetail(w io.Writer, d *planner.SetDetail) {
	fmt.Fprintf(w, "%s (%s)\n", d.Set.Name, d.Set.ID)
	if d.Set.Description != "" {
		fmt.Fprintln(w, d.Set.Description)
	}
	fmt.Fprintf(w, "target: %d min, %s\n", d.Set.TargetDuration, d.Set.RiskMode)
	if len(d.Tracks) == 0 {
		fmt.Fprintln(w, "set has no tracks")
		return
	}

	var seconds float64
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tTRACK\tBPM\tKEY\tENERGY\tTRANSITION")
	for i, t := range d.Tracks {
		seconds += t.Duration
		in := ""
		if i > 0 && i-1 < len(d.Transitions) {
			tr := d.Transitions[i-1]
			in = fmt.Sprintf("%s (%.0f%%)", tr.Label, tr.Composite*100)
		}
		fmt.Fprintf(tw, "%d\t%s\t%.0f\t%s\t%.2f\t%s\n", i+1, t.DisplayName(), t.BPM, keyLabel(t.Key), t.Energy, in)
	}
	_ = tw.Flush()

	fmt.Fprintf(w, "estimated duration: %d min\n", int(seconds)/60)
}
