/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/friendsincode/deepcrate/internal/planner"
)

var gapsCmd = &cobra.Command{
	Use:   "gaps",
	Short: "Find weak transitions in stored sets and suggest bridge tracks",
	RunE:  runGaps,
}

var (
	gapsName string
	gapsAll  bool
	gapsRisk string
)

func init() {
	rootCmd.AddCommand(gapsCmd)

	gapsCmd.Flags().StringVar(&gapsName, "name", "", "Name of the set to analyse")
	gapsCmd.Flags().BoolVar(&gapsAll, "all", false, "Analyse every stored set")
	gapsCmd.Flags().StringVar(&gapsRisk, "risk", "", "Risk mode: safe, balanced or bold (default from config)")
	gapsCmd.MarkFlagsMutuallyExclusive("name", "all")
}

func runGaps(cmd *cobra.Command, args []string) error {
	if gapsName == "" && !gapsAll {
		return errors.New("either --name or --all is required")
	}

	svc, cleanup, err := openPlanner()
	if err != nil {
		return err
	}
	defer cleanup()

	var reports []*planner.GapReport
	if gapsAll {
		reports, err = svc.AnalyzeAll(cmd.Context(), gapsRisk)
	} else {
		var report *planner.GapReport
		report, err = svc.AnalyzeGapsByName(cmd.Context(), gapsName, gapsRisk)
		reports = []*planner.GapReport{report}
	}
	if err != nil {
		return fmt.Errorf("gap analysis: %w", err)
	}

	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), reports)
	}
	for _, r := range reports {
		printGapReport(cmd.OutOrStdout(), r)
	}
	return nil
}

func printGapReport(w io.Writer, r *planner.GapReport) {
	fmt.Fprintf(w, "%s (%s, %s): %d weak transitions\n", r.SetName, r.SetID, r.RiskMode, len(r.Gaps))
	for _, g := range r.Gaps {
		fmt.Fprintf(w, "  #%d %s -> %s  %.2f  %s\n", g.Position, g.FromTrack, g.ToTrack, g.Score, g.Reason)
		for _, issue := range g.Issues {
			fmt.Fprintf(w, "      %s\n", issue)
		}
		fmt.Fprintf(w, "      target: %.1f bpm, %s, energy %.2f\n", g.SuggestedBPM, keyLabel(g.SuggestedKey), g.SuggestedEnergy)
		if len(g.BridgeCandidates) > 0 {
			fmt.Fprintf(w, "      bridges: %s\n", strings.Join(g.BridgeCandidates, "; "))
		}
	}
}
