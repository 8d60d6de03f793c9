/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/friendsincode/deepcrate/internal/library"
	"github.com/friendsincode/deepcrate/internal/models"
)

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Search the track library",
	Example: `  deepcrate search --bpm 170-175 --key 8A
  deepcrate search --energy 0.6 -q calibre`,
	RunE: runSearch,
}

var (
	searchBPM    string
	searchKey    string
	searchEnergy string
	searchQuery  string
)

// Widths used when a range is given as a single lower bound.
const (
	bpmRangeWidth    = 5
	energyRangeWidth = 0.1
)

func init() {
	rootCmd.AddCommand(searchCmd)

	searchCmd.Flags().StringVar(&searchBPM, "bpm", "", "BPM range, e.g. 170-175 (a single value means value to value+5)")
	searchCmd.Flags().StringVar(&searchKey, "key", "", "Camelot key, e.g. 8A")
	searchCmd.Flags().StringVar(&searchEnergy, "energy", "", "Energy range, e.g. 0.5-0.8 (a single value means value to value+0.1)")
	searchCmd.Flags().StringVarP(&searchQuery, "query", "q", "", "Text to find in artist or title")
}

func runSearch(cmd *cobra.Command, args []string) error {
	filter := library.TrackFilter{Key: searchKey, Query: searchQuery}
	var err error
	if filter.BPMMin, filter.BPMMax, err = parseRange(searchBPM, bpmRangeWidth); err != nil {
		return fmt.Errorf("--bpm: %w", err)
	}
	if filter.EnergyMin, filter.EnergyMax, err = parseRange(searchEnergy, energyRangeWidth); err != nil {
		return fmt.Errorf("--energy: %w", err)
	}

	svc, cleanup, err := openPlanner()
	if err != nil {
		return err
	}
	defer cleanup()

	tracks, err := svc.SearchTracks(cmd.Context(), filter)
	if err != nil {
		return fmt.Errorf("search: %w", err)
	}

	if jsonOutput {
		if tracks == nil {
			tracks = []models.Track{}
		}
		return printJSON(cmd.OutOrStdout(), tracks)
	}
	printTracks(cmd.OutOrStdout(), tracks)
	return nil
}

// parseRange reads "lo-hi" or "lo". A lone lower bound spans width.
func parseRange(raw string, width float64) (lo, hi *float64, err error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil, nil
	}
	first, second, ranged := strings.Cut(raw, "-")
	lower, err := strconv.ParseFloat(strings.TrimSpace(first), 64)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid range %q", raw)
	}
	upper := lower + width
	if ranged {
		if upper, err = strconv.ParseFloat(strings.TrimSpace(second), 64); err != nil {
			return nil, nil, fmt.Errorf("invalid range %q", raw)
		}
	}
	return &lower, &upper, nil
}

func printTracks(w io.Writer, tracks []models.Track) {
	if len(tracks) == 0 {
		fmt.Fprintln(w, "no tracks found")
		return
	}
	fmt.Fprintf(w, "%d tracks\n", len(tracks))
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tID\tTRACK\tBPM\tKEY\tENERGY")
	for i, t := range tracks {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%.0f\t%s\t%.2f\n", i+1, t.ID, t.DisplayName(), t.BPM, keyLabel(t.Key), t.Energy)
	}
	_ = tw.Flush()
}
