package commands

import (
	"context"
	"fmt"
	"strings"
	"time"

	"classeviva-tools/internal/aggregate"
	"classeviva-tools/internal/classeviva"
	"classeviva-tools/lib/gradestore"
	"classeviva-tools/lib/textutil"
	"classeviva-tools/lib/util/serviceutil"
	"classeviva-tools/lib/util/tableutil"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var storeGrades *bool

func init() {
	storeGrades = gradesCmd.Flags().Bool("store", false, "Save the averages into the grade store as a new run.")
	rootCmd.AddCommand(gradesCmd)
	rootCmd.AddCommand(historyCmd)
}

func findClass(classes []classeviva.Class, name string) (classeviva.Class, bool) {
	for _, c := range classes {
		if strings.EqualFold(c.Name, strings.TrimSpace(name)) {
			return c, true
		}
	}
	return classeviva.Class{}, false
}

// snapshotOf turns the averages page into the records kept by the store.
func snapshotOf(class, term string, at time.Time, grades []classeviva.StudentGrades) gradestore.Snapshot {
	snapshot := gradestore.Snapshot{
		Class:    class,
		Term:     term,
		Time:     at,
		Students: make([]gradestore.StudentRecord, len(grades)),
	}
	for i, sg := range grades {
		record := gradestore.StudentRecord{Student: textutil.NormalizeName(sg.Student.Name)}
		avg, ok := aggregate.Average(sg)
		if ok {
			record.Average = &avg
		}
		record.VeryBad, _ = aggregate.BadGrades(sg, aggregate.VeryBad)
		record.Insufficient, _ = aggregate.BadGrades(sg, aggregate.Insufficient)
		snapshot.Students[i] = record
	}
	return snapshot
}

func formatAverage(avg *float64) string {
	if avg == nil {
		return ""
	}
	return fmt.Sprintf("%.1f", *avg)
}

func formatBad(count int, subjects []string) string {
	if count == 0 {
		return ""
	}
	return fmt.Sprintf("%d (%s)", count, strings.Join(subjects, ", "))
}

func gradeRows(grades []classeviva.StudentGrades) []table.Row {
	rows := make([]table.Row, len(grades))
	for i, sg := range grades {
		var avg *float64
		value, ok := aggregate.Average(sg)
		if ok {
			avg = &value
		}
		rows[i] = table.Row{
			i + 1,
			strings.ToUpper(sg.Student.Name),
			formatAverage(avg),
			formatBad(aggregate.BadGrades(sg, aggregate.VeryBad)),
			formatBad(aggregate.BadGrades(sg, aggregate.Insufficient)),
		}
	}
	return rows
}

func openStore() (gradestore.Store, func() error) {
	db, err := cfg.GradeStore.OpenDB()
	if err != nil {
		serviceutil.Fatal("failed to open grade store", err)
	}
	return gradestore.NewStore(db), db.Close
}

func classGrades(ctx context.Context, client *classeviva.Client, className, term string) []classeviva.StudentGrades {
	classes, err := client.Classes(ctx)
	if err != nil {
		serviceutil.Fatal("failed to get coordinated classes", err)
	}
	class, ok := findClass(classes, className)
	if !ok {
		serviceutil.Fatal(fmt.Sprintf("class %q is not among the coordinated classes", className), nil)
	}
	grades, err := client.AverageGrades(ctx, class, term)
	if err != nil {
		serviceutil.Fatal("failed to get average grades", err)
	}
	return grades
}

var gradesCmd = &cobra.Command{
	Use:   "grades <class> <term> [--store]",
	Short: "Shows the average grade and the failing subjects of every student of a coordinated class.",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		client := openClient(ctx)
		grades := classGrades(ctx, client, args[0], args[1])

		t := tableutil.New()
		t.AppendHeader(table.Row{"#", "Student", "Average", "Very bad (< 5)", "Insufficient (< 6)"})
		t.AppendRows(gradeRows(grades))
		t.Render()

		if !*storeGrades {
			return
		}
		store, closeStore := openStore()
		defer closeStore()
		runId, err := store.Push(ctx, snapshotOf(strings.ToUpper(args[0]), args[1], clock.Now(), grades))
		if err != nil {
			serviceutil.Fatal("failed to store grades", err)
		}
		fmt.Println("Saved as run", runId)
	},
}

var historyCmd = &cobra.Command{
	Use:   "history <class> <student>",
	Short: "Shows how the average of a student changed across the stored runs.",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		store, closeStore := openStore()
		defer closeStore()

		points, err := store.History(cmd.Context(), strings.ToUpper(args[0]), textutil.NormalizeName(args[1]))
		if err != nil {
			serviceutil.Fatal("failed to read history", err)
		}
		if len(points) == 0 {
			fmt.Println("No stored runs for", args[1])
			return
		}

		t := tableutil.New()
		t.AppendHeader(table.Row{"Time", "Term", "Average", "Very bad", "Insufficient"})
		for _, p := range points {
			t.AppendRow(table.Row{
				p.Time.In(clock.Location()).Format(time.DateTime),
				p.Term,
				formatAverage(p.Average),
				p.VeryBad,
				p.Insufficient,
			})
		}
		t.Render()
	},
}
