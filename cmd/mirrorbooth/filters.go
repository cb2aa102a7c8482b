package main

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/dudu/mirrorbooth/internal/overlay"
)

var filtersCategory string

var filtersCmd = &cobra.Command{
	Use:   "filters",
	Short: "List the filter catalog",
	RunE: func(cmd *cobra.Command, args []string) error {
		return printFilters(cmd.OutOrStdout(), overlay.Category(filtersCategory))
	},
}

func init() {
	filtersCmd.Flags().StringVar(&filtersCategory, "category", "all", "only list filters in this category")
	rootCmd.AddCommand(filtersCmd)
}

func printFilters(w io.Writer, cat overlay.Category) error {
	defs := overlay.ByCategory(cat)
	if len(defs) == 0 {
		return fmt.Errorf("no filters in category %q", cat)
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"#", "ID", "Name", "Category", "Animated"})
	for i, d := range defs {
		animated := ""
		if overlay.Animated(d.ID) {
			animated = "yes"
		}
		t.AppendRow(table.Row{i + 1, d.ID, d.Name, d.Category, animated})
	}
	t.AppendFooter(table.Row{"", "", "", "total", len(defs)})
	t.Render()
	return nil
}
