package commands

import (
	"classeviva-tools/internal/timetable"
	"classeviva-tools/lib/util/serviceutil"
	"classeviva-tools/lib/util/tableutil"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(importCmd)
}

var importCmd = &cobra.Command{
	Use:   "import <pdf>",
	Short: "Reads a room timetable pdf (one room per page) and saves it as the timetable grid.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		grid, err := newImporter().Import(cmd.Context(), args[0])
		if err != nil {
			serviceutil.Fatal("failed to import timetable", err)
		}
		err = timetable.Save(cfg.Timetable, grid)
		if err != nil {
			serviceutil.Fatal("failed to save timetable", err)
		}

		t := tableutil.New()
		t.AppendHeader(table.Row{"Room", "Days", "Busy hours"})
		for _, room := range grid.Rooms() {
			busy := 0
			for _, day := range grid[room] {
				for _, cell := range day {
					if cell != "" {
						busy++
					}
				}
			}
			t.AppendRow(table.Row{room, len(grid[room]), busy})
		}
		t.AppendFooter(table.Row{"Saved to", cfg.Timetable, ""})
		t.Render()
	},
}
