/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/friendsincode/deepcrate/internal/camelot"
	"github.com/friendsincode/deepcrate/internal/planner"
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Plan a set from a description",
	Example: `  deepcrate plan --name friday --desc "90 minute liquid dnb, start mellow, peak at 60"
  deepcrate plan --desc "deep house warmup" --duration 45 --risk safe`,
	RunE: runPlan,
}

var (
	planName     string
	planDesc     string
	planDuration int
	planRisk     string
)

func init() {
	rootCmd.AddCommand(planCmd)

	planCmd.Flags().StringVar(&planName, "name", "", "Set name; an existing set with this name is replaced")
	planCmd.Flags().StringVar(&planDesc, "desc", "", "Free-text description of the set (required)")
	planCmd.Flags().IntVar(&planDuration, "duration", 0, "Set length in minutes (overrides the description)")
	planCmd.Flags().StringVar(&planRisk, "risk", "", "Risk mode: safe, balanced or bold (default from config)")
	_ = planCmd.MarkFlagRequired("desc")
}

func runPlan(cmd *cobra.Command, args []string) error {
	svc, cleanup, err := openPlanner()
	if err != nil {
		return err
	}
	defer cleanup()

	result, err := svc.Plan(cmd.Context(), planner.PlanRequest{
		Name:            planName,
		Description:     planDesc,
		DurationMinutes: planDuration,
		RiskMode:        planRisk,
	})
	if err != nil {
		return fmt.Errorf("plan: %w", err)
	}

	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), result)
	}
	printPlan(cmd.OutOrStdout(), result)
	return nil
}

func printPlan(w io.Writer, r *planner.PlanResult) {
	fmt.Fprintf(w, "%s (%s): %d tracks, %d min, %s, arc %s\n",
		r.Set.Name, r.Set.ID, len(r.Tracks), r.Set.TargetDuration, r.Set.RiskMode, r.Set.Arc)
	if len(r.Set.Profiles) > 0 {
		fmt.Fprintf(w, "genres: %s (filter %s)\n", strings.Join(r.Set.Profiles, ", "), r.Filter)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tTRACK\tBPM\tKEY\tENERGY\tIN")
	for i, t := range r.Tracks {
		in := "-"
		if i > 0 {
			tr := r.Transitions[i-1]
			in = fmt.Sprintf("%.2f %s", tr.Composite, tr.Label)
		}
		fmt.Fprintf(tw, "%d\t%s\t%.1f\t%s\t%.2f\t%s\n", i+1, t.DisplayName(), t.BPM, keyLabel(t.Key), t.Energy, in)
	}
	_ = tw.Flush()

	for _, warn := range r.Warnings {
		fmt.Fprintf(w, "warning: %s\n", warn)
	}
}

func keyLabel(k string) string {
	if name := camelot.KeyName(k); name != "" {
		return k + " " + name
	}
	return "?"
}
