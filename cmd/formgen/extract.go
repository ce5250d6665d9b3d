package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Rainytroy/May-Quote-sub001/pkg/structured"
)

var extractSalvage bool

var extractCmd = &cobra.Command{
	Use:   "extract <file|->",
	Short: "Extract and analyze a form configuration from a saved model response",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, err := readFileOrStdin(cmd.InOrStdin(), args[0])
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		res := structured.Extract(raw)
		if err := printExtraction(out, res); err != nil {
			return err
		}

		if !res.IsValid && extractSalvage {
			if candidate, ok := structured.ExtractPossibleJSON(raw); ok {
				fmt.Fprintln(out, render(dimStyle, "possible JSON:"))
				fmt.Fprintln(out, structured.FormatJSON(candidate))
			}
		}
		return nil
	},
}

func init() {
	extractCmd.Flags().BoolVar(&extractSalvage, "salvage", false, "Print the best JSON-looking fragment when extraction fails")
}
