package main

import (
	"fmt"

	"usage-mail-llm/internal/console"
	"usage-mail-llm/internal/report"
	"usage-mail-llm/internal/sheet"

	"github.com/spf13/cobra"
)

func newReportCmd() *cobra.Command {
	var (
		sheetPath string
		sheetName string
		outPath   string
		title     string
	)

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Export the spreadsheet rows to a PDF table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if sheetPath == "" {
				sheetPath = cfg.Sheet.Path
			}
			if sheetName == "" {
				sheetName = cfg.Sheet.Sheet
			}

			rows, err := sheet.ReadRows(sheetPath, sheetName)
			if err != nil {
				return err
			}
			if err := report.WritePDF(rows, title, outPath); err != nil {
				return err
			}
			console.Std().Note(fmt.Sprintf("Wrote %d rows to %s", len(rows), outPath))
			return nil
		},
	}
	cmd.Flags().StringVar(&sheetPath, "sheet", "", "spreadsheet to read (default sheet.path)")
	cmd.Flags().StringVar(&sheetName, "sheet-name", "", "worksheet name (default sheet.sheet)")
	cmd.Flags().StringVarP(&outPath, "out", "o", "report.pdf", "PDF file to write")
	cmd.Flags().StringVar(&title, "title", "Data usage report", "report title")
	return cmd
}
