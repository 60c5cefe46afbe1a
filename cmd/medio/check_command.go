package main

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"medio/internal/preflight"
)

func newCheckCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Verify directories, permissions, and free space",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			results := preflight.RunAll(cmd.Context(), cfg)
			fmt.Fprintln(cmd.OutOrStdout(), renderPreflight(cmd.OutOrStdout(), results))
			if !preflight.AllPassed(results) {
				return fmt.Errorf("preflight checks failed")
			}
			return nil
		},
	}
}

func renderPreflight(writer io.Writer, results []preflight.Result) string {
	headers := []string{"Check", "Status", "Detail"}
	rows := make([][]string, 0, len(results))
	for _, r := range results {
		status := colorize(writer, text.FgRed, "FAIL")
		if r.Passed {
			status = colorize(writer, text.FgGreen, "OK")
		}
		rows = append(rows, []string{r.Name, status, r.Detail})
	}
	return renderTable(headers, rows, []columnAlignment{alignLeft, alignLeft, alignLeft})
}
