package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"linediff.znkr.io/diff"
	"linediff.znkr.io/reporter/pack"
	"linediff.znkr.io/reporter/report"
)

func packCmd() *cobra.Command {
	var (
		dir      string
		maxCells int
	)
	cmd := &cobra.Command{
		Use:   "pack OUT.tar",
		Short: "Packs the reports into a .tar file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := report.Load(dir, diff.New(diff.MaxCells(maxCells)))
			if err != nil {
				return fmt.Errorf("loading reports: %v", err)
			}
			return pack.Pack(args[0], s)
		},
	}
	cmd.Flags().StringVar(&dir, "dir", ".", "directory containing site/ and templates/")
	cmd.Flags().IntVar(&maxCells, "max-cells", 0, "maximum size of the LCS table per diff, 0 means unlimited")
	return cmd
}
