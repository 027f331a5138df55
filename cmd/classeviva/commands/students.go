package commands

import (
	"context"
	"fmt"
	"strings"
	"time"

	"classeviva-tools/internal/classeviva"
	"classeviva-tools/lib/util/serviceutil"
	"classeviva-tools/lib/util/tableutil"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(studentsCmd)
}

// rosterOf looks the class up among your subjects first and among the
// coordinated classes after.
func rosterOf(ctx context.Context, client *classeviva.Client, className string) ([]*classeviva.Student, error) {
	subjects, err := client.Subjects(ctx)
	if err != nil {
		return nil, err
	}
	matching := subjectsOf(subjects, className)
	if len(matching) > 0 {
		return client.Students(ctx, matching[0])
	}

	classes, err := client.Classes(ctx)
	if err != nil {
		return nil, err
	}
	for _, c := range classes {
		if strings.EqualFold(c.Name, strings.TrimSpace(className)) {
			return client.StudentsByClass(ctx, c)
		}
	}
	return nil, fmt.Errorf("class %q not found", className)
}

func studentRows(students []*classeviva.Student, now time.Time) []table.Row {
	rows := make([]table.Row, len(students))
	for i, s := range students {
		rows[i] = table.Row{i + 1, s.Name, s.AgeAt(now), s.Birthday.Format(time.DateOnly)}
	}
	return rows
}

var studentsCmd = &cobra.Command{
	Use:   "students <class>",
	Short: "Lists the students of a class with their age, the class name is the one shown on the register (e.g. 1A).",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		client := openClient(cmd.Context())

		students, err := rosterOf(cmd.Context(), client, args[0])
		if err != nil {
			serviceutil.Fatal("failed to get students", err)
		}

		t := tableutil.New()
		t.AppendHeader(table.Row{"#", "Name", "Age", "Birthday"})
		t.AppendRows(studentRows(students, clock.Now()))
		t.Render()
	},
}
