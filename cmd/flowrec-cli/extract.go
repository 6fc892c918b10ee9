package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"yashubustudio/flowrec/flowrec"
)

func newExtractCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "extract NAME...",
		Short: "Print the canonical key for each substance name",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, raw := range args {
				for _, line := range flowrec.ParseLines(raw) {
					fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", line, flowrec.Extract(line))
				}
			}
			return nil
		},
	}
}
