/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var scoreCmd = &cobra.Command{
	Use:   "score FROM_ID TO_ID",
	Short: "Score the transition between two library tracks",
	Args:  cobra.ExactArgs(2),
	RunE:  runScore,
}

var scoreRisk string

func init() {
	rootCmd.AddCommand(scoreCmd)

	scoreCmd.Flags().StringVar(&scoreRisk, "risk", "", "Risk mode: safe, balanced or bold (default from config)")
}

func runScore(cmd *cobra.Command, args []string) error {
	svc, cleanup, err := openPlanner()
	if err != nil {
		return err
	}
	defer cleanup()

	tr, err := svc.ScorePair(cmd.Context(), args[0], args[1], scoreRisk)
	if err != nil {
		return fmt.Errorf("score: %w", err)
	}

	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), tr)
	}
	c := tr.Components
	fmt.Fprintf(cmd.OutOrStdout(), "%s -> %s: %.2f %s (%s)\n", tr.FromID, tr.ToID, tr.Composite, tr.Label, tr.RiskMode)
	fmt.Fprintf(cmd.OutOrStdout(), "  key %.2f  tempo %.2f  energy %.2f  phrase %.2f\n", c.Key, c.Tempo, c.Energy, c.Phrase)
	return nil
}
