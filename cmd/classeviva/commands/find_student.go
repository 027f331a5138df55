package commands

import (
	"fmt"

	"classeviva-tools/internal/classeviva"
	"classeviva-tools/lib/textutil"
	"classeviva-tools/lib/util/serviceutil"
	"classeviva-tools/lib/util/tableutil"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

const (
	suggestion_threshold = 0.85
	suggestion_limit     = 5
)

func init() {
	rootCmd.AddCommand(findStudentCmd)
}

type studentHit struct {
	Class   string
	Student *classeviva.Student
}

// searchRosters returns the students whose name contains query, and every
// name seen so that near misses can be suggested.
func searchRosters(rosters map[string][]*classeviva.Student, order []string, query string) ([]studentHit, []string) {
	var hits []studentHit
	var names []string
	for _, class := range order {
		for _, s := range rosters[class] {
			names = append(names, s.Name)
			if textutil.ContainsName(s.Name, query) {
				hits = append(hits, studentHit{Class: class, Student: s})
			}
		}
	}
	return hits, names
}

var findStudentCmd = &cobra.Command{
	Use:   "find-student <name>",
	Short: "Looks for a student among the classes you coordinate, a part of the name is enough.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		client := openClient(ctx)

		classes, err := client.Classes(ctx)
		if err != nil {
			serviceutil.Fatal("failed to get coordinated classes", err)
		}

		rosters := map[string][]*classeviva.Student{}
		order := []string{}
		for _, c := range classes {
			students, err := client.StudentsByClass(ctx, c)
			if err != nil {
				serviceutil.Fatal(fmt.Sprintf("failed to get the students of %s", c.Name), err)
			}
			rosters[c.Name] = students
			order = append(order, c.Name)
		}

		hits, names := searchRosters(rosters, order, args[0])
		if len(hits) == 0 {
			fmt.Printf("No student matches %q.\n", args[0])
			suggestions := textutil.MostSimilar(args[0], names, suggestion_threshold, suggestion_limit)
			for _, s := range suggestions {
				fmt.Printf("  did you mean %s? (%.2f)\n", s.Value, s.Similarity)
			}
			return
		}

		t := tableutil.New()
		t.AppendHeader(table.Row{"Class", "Student"})
		for _, h := range hits {
			t.AppendRow(table.Row{h.Class, h.Student})
		}
		t.Render()
	},
}
