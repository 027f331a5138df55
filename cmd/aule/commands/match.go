package commands

import (
	"fmt"

	"classeviva-tools/internal/timetable"
	"classeviva-tools/lib/util/serviceutil"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(matchCmd)
}

var matchCmd = &cobra.Command{
	Use:   "match <text> [day] [hh:mm]",
	Short: "Shows where a class or teacher is during the day, the current hour is marked with an arrow.",
	Args:  cobra.RangeArgs(1, 3),
	Run: func(cmd *cobra.Command, args []string) {
		query, err := parseQuery(clock, args[1:])
		if err != nil {
			serviceutil.Fatal("invalid query", err)
		}
		grid, err := loadGrid(cmd.Context())
		if err != nil {
			serviceutil.Fatal("failed to load timetable", err)
		}

		matches, err := timetable.Matches(grid, query, args[0])
		if err != nil {
			serviceutil.Fatal("invalid query", err)
		}
		if len(matches) == 0 {
			fmt.Printf("%q is nowhere on %s.\n", args[0], describe(timetable.Query{Day: query.Day, Hour: -1}))
			return
		}
		for _, m := range matches {
			fmt.Println(m)
		}
	},
}
