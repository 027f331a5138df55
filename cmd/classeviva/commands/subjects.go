package commands

import (
	"strings"

	"classeviva-tools/internal/classeviva"
	"classeviva-tools/lib/util/serviceutil"
	"classeviva-tools/lib/util/tableutil"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(subjectsCmd)
}

// subjectsOf keeps the subjects taught on the named class, the comparison
// ignores case and surrounding spaces.
func subjectsOf(subjects []classeviva.Subject, className string) []classeviva.Subject {
	className = strings.TrimSpace(className)
	var out []classeviva.Subject
	for _, s := range subjects {
		if strings.EqualFold(s.ClassName, className) {
			out = append(out, s)
		}
	}
	return out
}

var subjectsCmd = &cobra.Command{
	Use:   "subjects",
	Short: "Lists the subjects you teach, one per class.",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		client := openClient(cmd.Context())

		subjects, err := client.Subjects(cmd.Context())
		if err != nil {
			serviceutil.Fatal("failed to get subjects", err)
		}

		t := tableutil.New()
		t.AppendHeader(table.Row{"Class", "Description", "Subject", "Code"})
		for _, s := range subjects {
			t.AppendRow(table.Row{
				s.ClassName,
				s.ClassDescription,
				classeviva.SubjectAlias(s.Name),
				s.ClassCode(client.Options().Markup.ClassCodeParam),
			})
		}
		t.Render()
	},
}
