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

	"github.com/friendsincode/deepcrate/internal/library"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show library overview statistics",
	RunE:  runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, args []string) error {
	svc, cleanup, err := openPlanner()
	if err != nil {
		return err
	}
	defer cleanup()

	stats, err := svc.Stats(cmd.Context())
	if err != nil {
		return fmt.Errorf("stats: %w", err)
	}

	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), stats)
	}
	printStats(cmd.OutOrStdout(), stats)
	return nil
}

func printStats(w io.Writer, s *library.Stats) {
	if s.Tracks == 0 {
		fmt.Fprintln(w, "no tracks in library; run 'deepcrate import' first")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "tracks\t%d\n", s.Tracks)
	if s.BPM != nil {
		fmt.Fprintf(tw, "bpm range\t%.0f - %.0f\n", s.BPM.Min, s.BPM.Max)
		fmt.Fprintf(tw, "average bpm\t%.1f\n", s.BPM.Avg)
	}
	if s.Energy != nil {
		fmt.Fprintf(tw, "energy range\t%.2f - %.2f\n", s.Energy.Min, s.Energy.Max)
		fmt.Fprintf(tw, "average energy\t%.2f\n", s.Energy.Avg)
	}
	fmt.Fprintf(tw, "total duration\t%s\n", hoursMinutes(s.TotalDuration))
	_ = tw.Flush()

	if len(s.TopKeys) == 0 {
		return
	}
	fmt.Fprintln(w, "\ntop keys")
	tw = tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, k := range s.TopKeys {
		fmt.Fprintf(tw, "%s\t%d\n", keyLabel(k.Key), k.Count)
	}
	_ = tw.Flush()
}

// hoursMinutes renders seconds as "1h 05m".
func hoursMinutes(seconds float64) string {
	total := int(seconds) / 60
	return fmt.Sprintf("%dh %02dm", total/60, total%60)
}
