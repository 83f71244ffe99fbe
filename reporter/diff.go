package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"linediff.znkr.io/diff"
)

func diffCmd() *cobra.Command {
	var (
		asJSON   bool
		maxCells int
	)
	cmd := &cobra.Command{
		Use:   "diff OLD NEW",
		Short: "Prints the line diff between two files",
		Long: `Prints the line diff between the files OLD and NEW. Every line is prefixed with "+" if
it was added, "-" if it was removed, and a space if it is unchanged. A file named "-" or
/dev/null is an empty text.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, b, err := readPair(args[0], args[1])
			if err != nil {
				return err
			}
			r, err := diff.New(diff.MaxCells(maxCells)).Compute(a, b)
			if err != nil {
				return err
			}
			return writeResult(cmd.OutOrStdout(), r, asJSON)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the diff as JSON")
	cmd.Flags().IntVar(&maxCells, "max-cells", 0, "maximum size of the LCS table, 0 means unlimited")
	return cmd
}

func summaryCmd() *cobra.Command {
	var maxCells int
	cmd := &cobra.Command{
		Use:   "summary OLD NEW",
		Short: "Prints a summary of the line diff between two files",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, b, err := readPair(args[0], args[1])
			if err != nil {
				return err
			}
			summary, err := diff.New(diff.MaxCells(maxCells)).Summarize(a, b)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), summary)
			return err
		},
	}
	cmd.Flags().IntVar(&maxCells, "max-cells", 0, "maximum size of the LCS table, 0 means unlimited")
	return cmd
}

func writeResult(w io.Writer, r diff.Result, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	}
	_, err := io.WriteString(w, r.String())
	return err
}

func readPair(a, b string) (string, string, error) {
	at, err := readText(a)
	if err != nil {
		return "", "", err
	}
	bt, err := readText(b)
	if err != nil {
		return "", "", err
	}
	return at, bt, nil
}

// readText reads the file name. The names "-" and /dev/null stand for an empty text.
func readText(name string) (string, error) {
	if name == "-" || name == os.DevNull {
		return "", nil
	}
	b, err := os.ReadFile(name)
	if err != nil {
		return "", fmt.Errorf("reading input: %v", err)
	}
	return string(b), nil
}
