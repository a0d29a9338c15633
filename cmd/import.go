package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"github.com/kilianp07/slotplan/importer"
)

var importOpts struct {
	delimiter string
	headerRow int
	sheet     string
}

var importCmd = &cobra.Command{
	Use:   "import <export.csv|workbook.xlsx>",
	Short: "Merge a spreadsheet export into the planner file",
	Long: "Reads projects from a CSV export or an Excel workbook and merges them into the planner file: " +
		"known projects get their remaining days updated, new ones are appended.",
	Args: cobra.ExactArgs(1),
	RunE: importProjects,
}

func init() {
	importCmd.Flags().StringVar(&importOpts.delimiter, "delimiter", "", "field separator (default from config or ',')")
	importCmd.Flags().IntVar(&importOpts.headerRow, "header-row", 0, "1-based header row (default from config or 1)")
	importCmd.Flags().StringVar(&importOpts.sheet, "sheet", "", "workbook sheet (default from config or the first sheet)")
	rootCmd.AddCommand(importCmd)
}

func importProjects(cmd *cobra.Command, args []string) error {
	mapping := importer.DefaultMapping()
	if _, err := os.Stat(cfgPath); err == nil {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		mapping = cfg.Import
	} else if !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	if importOpts.delimiter != "" {
		mapping.Delimiter = importOpts.delimiter
	}
	if importOpts.headerRow > 0 {
		mapping.HeaderRow = importOpts.headerRow
	}
	if importOpts.sheet != "" {
		mapping.Sheet = importOpts.sheet
	}

	recs, err := importer.ReadFile(args[0], mapping)
	if err != nil {
		return fmt.Errorf("read %s: %w", args[0], err)
	}
	res, err := importer.Merge(cfgPath, recs)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Imported %d projects into %s: %s\n", len(recs), cfgPath, res)
	return nil
}
