package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"classeviva-tools/internal/aggregate"
	"classeviva-tools/internal/classeviva"
	"classeviva-tools/internal/components/telemetry"
	"classeviva-tools/lib/util/serviceutil"
	"classeviva-tools/lib/util/tableutil"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

const report_competence_subject = "competence.subject"

func init() {
	rootCmd.AddCommand(competenceCmd)
}

func renderDistribution(out io.Writer, subject classeviva.Subject, dist aggregate.Distribution) {
	fmt.Fprintf(out, "%s - %s\n", subject.ClassName, classeviva.SubjectAlias(subject.Name))

	t := tableutil.NewTo(out)
	t.AppendHeader(table.Row{"Level", "Students", "%"})
	for _, l := range dist.Levels {
		t.AppendRow(table.Row{l.Name, l.Count, l.Percentage})
	}
	t.AppendFooter(table.Row{"Total", dist.Total, 100})
	t.Render()

	names := make([]string, len(dist.Missing))
	for i, s := range dist.Missing {
		names[i] = s.Name
	}
	fmt.Fprintf(out, "Missing students (%d): %s\n\n", len(names), strings.Join(names, ", "))
}

// competenceSource is the part of the client a competence report reads.
type competenceSource interface {
	Students(ctx context.Context, subject classeviva.Subject) ([]*classeviva.Student, error)
	DiscoverTerms(ctx context.Context, subject classeviva.Subject) (classeviva.TermUrls, error)
	Tests(ctx context.Context, terms classeviva.TermUrls, term int, students []*classeviva.Student) ([]classeviva.StudentScores, error)
}

func subjectCompetence(ctx context.Context, source competenceSource, subject classeviva.Subject, term, test int) (aggregate.Distribution, error) {
	students, err := source.Students(ctx, subject)
	if err != nil {
		return aggregate.Distribution{}, err
	}
	terms, err := source.DiscoverTerms(ctx, subject)
	if err != nil {
		return aggregate.Distribution{}, err
	}
	scores, err := source.Tests(ctx, terms, term, students)
	if err != nil {
		return aggregate.Distribution{}, err
	}
	return aggregate.ComputeCompetenceLevels(aggregate.DefaultCompetenceLevels(), scores, test)
}

// skippable errors concern one subject's pages, the session is still good.
func skippable(err error) bool {
	var extractionErr *classeviva.ExtractionError
	var dataErr *classeviva.DataError
	return errors.As(err, &extractionErr) || errors.As(err, &dataErr)
}

// competenceReport renders the distribution of every subject in order. A
// subject whose pages cannot be read is reported and skipped, any other
// failure stops the report.
func competenceReport(
	ctx context.Context,
	out io.Writer,
	tel telemetry.API,
	source competenceSource,
	subjects []classeviva.Subject,
	term, test int,
) error {
	for _, subject := range subjects {
		dist, err := subjectCompetence(ctx, source, subject, term, test)
		switch {
		case err == nil:
			renderDistribution(out, subject, dist)
		case errors.Is(err, aggregate.ErrNoData):
			fmt.Fprintf(out, "%s: no scores for test %d\n\n", subject, test)
		case skippable(err):
			tel.ReportWarning(report_competence_subject, subject.String(), err)
		default:
			return fmt.Errorf("%s: %w", subject, err)
		}
	}
	return nil
}

var competenceCmd = &cobra.Command{
	Use:   "competence <term> <test>",
	Short: "Computes the competence levels reached on a test for every subject you teach, both indices start from 0.",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		term, err := strconv.Atoi(args[0])
		if err != nil || term < 0 {
			serviceutil.Fatal("the term must be a non-negative index", err)
		}
		test, err := strconv.Atoi(args[1])
		if err != nil || test < 0 {
			serviceutil.Fatal("the test must be a non-negative index", err)
		}

		ctx := cmd.Context()
		client := openClient(ctx)
		subjects, err := client.Subjects(ctx)
		if err != nil {
			serviceutil.Fatal("failed to get subjects", err)
		}

		err = competenceReport(ctx, os.Stdout, tel, client, subjects, term, test)
		if err != nil {
			serviceutil.Fatal("failed to compute competence levels", err)
		}
	},
}
