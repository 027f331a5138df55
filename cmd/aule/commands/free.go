package commands

import (
	"errors"
	"fmt"

	"classeviva-tools/internal/timetable"
	"classeviva-tools/lib/util/serviceutil"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(freeCmd)
}

var freeCmd = &cobra.Command{
	Use:   "free [day] [hh:mm]",
	Short: "Lists the rooms that are free now, or on the given day (1 is Monday) and time.",
	Args:  cobra.MaximumNArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		query, err := parseQuery(clock, args)
		if err != nil {
			serviceutil.Fatal("invalid query", err)
		}
		grid, err := loadGrid(cmd.Context())
		if err != nil {
			serviceutil.Fatal("failed to load timetable", err)
		}

		rooms, err := timetable.Free(grid, query)
		if errors.Is(err, timetable.ErrNoPeriod) {
			fmt.Printf("No lesson on %s.\n", describe(query))
			return
		}
		if err != nil {
			serviceutil.Fatal("invalid query", err)
		}

		fmt.Printf("Free rooms on %s:\n", describe(query))
		for _, room := range rooms {
			fmt.Println(room)
		}
	},
}
