/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var deleteCmd = &cobra.Command{
	Use:   "delete NAME",
	Short: "Delete a stored set with its tracks and gaps",
	Args:  cobra.ExactArgs(1),
	RunE:  runDelete,
}

func init() {
	rootCmd.AddCommand(deleteCmd)
}

func runDelete(cmd *cobra.Command, args []string) error {
	svc, cleanup, err := openPlanner()
	if err != nil {
		return err
	}
	defer cleanup()

	id, err := svc.DeleteSetByName(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("delete %q: %w", args[0], err)
	}

	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), map[string]string{"deleted": id, "name": args[0]})
	}
	fmt.Fprintf(cmd.OutOrStdout(), "deleted set %s (%s)\n", args[0], id)
	return nil
}
