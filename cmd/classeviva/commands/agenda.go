package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
	"time"

	"classeviva-tools/internal/classeviva"
	"classeviva-tools/lib/mailer"
	"classeviva-tools/lib/util/serviceutil"

	"github.com/spf13/cobra"
)

var (
	agendaDays   *int
	agendaDryRun *bool
)

func init() {
	agendaDays = agendaCmd.Flags().Int("days", 0, "How many days ahead to look, the config value (or 7) when 0.")
	agendaDryRun = agendaCmd.Flags().Bool("dry-run", false, "Print the digest instead of sending it.")
	rootCmd.AddCommand(agendaCmd)
}

// agendaQueries builds one query per distinct class code, the classes of
// your subjects first and then the extra ones in code order.
func agendaQueries(subjects []classeviva.Subject, codeParam string, extra map[string]string, start, end time.Time, author string) []classeviva.AgendaQuery {
	var queries []classeviva.AgendaQuery
	seen := map[string]bool{}
	add := func(code, group string) {
		if code == "" || seen[code] {
			return
		}
		seen[code] = true
		queries = append(queries, classeviva.AgendaQuery{
			ClassCode: code,
			GroupCode: group,
			Start:     start,
			End:       end,
			AuthorId:  author,
			Location:  start.Location(),
		})
	}

	for _, s := range subjects {
		code := s.ClassCode(codeParam)
		add(code, extra[code])
	}
	codes := make([]string, 0, len(extra))
	for code := range extra {
		codes = append(codes, code)
	}
	slices.Sort(codes)
	for _, code := range codes {
		add(code, extra[code])
	}
	return queries
}

func agendaDigest(items []classeviva.AgendaItem, start, end time.Time) mailer.Message {
	classeviva.SortAgenda(items)
	parts := make([]string, len(items))
	for i, item := range items {
		parts[i] = item.String()
	}
	return mailer.Message{
		Subject: fmt.Sprintf("Agenda dal %s al %s", start.Format(time.DateOnly), end.Format(time.DateOnly)),
		Body:    strings.Join(parts, "\n\n"),
	}
}

// deliverAgenda sends the digest, or prints it when there is nobody to send
// it to or dryRun is set.
func deliverAgenda(ctx context.Context, out io.Writer, sender mailer.Sender, msg mailer.Message, dryRun bool) error {
	if dryRun || len(msg.To) == 0 {
		fmt.Fprintf(out, "%s\n\n%s\n", msg.Subject, msg.Body)
		return nil
	}
	return sender.Send(ctx, msg)
}

var agendaCmd = &cobra.Command{
	Use:   "agenda [--days <n>] [--dry-run]",
	Short: "Collects the upcoming agenda events of your classes and emails them as a digest.",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		days := cfg.Agenda.Days
		if *agendaDays > 0 {
			days = *agendaDays
		}
		start := clock.Now()
		end := start.AddDate(0, 0, days)

		client := openClient(ctx)
		subjects, err := client.Subjects(ctx)
		if err != nil {
			serviceutil.Fatal("failed to get subjects", err)
		}

		var items []classeviva.AgendaItem
		queries := agendaQueries(
			subjects,
			client.Options().Markup.ClassCodeParam,
			cfg.Agenda.ExtraClasses,
			start, end,
			cfg.Agenda.AuthorId,
		)
		for _, q := range queries {
			found, err := client.Agenda(ctx, q)
			if err != nil {
				serviceutil.Fatal(fmt.Sprintf("failed to get the agenda of class %s", q.ClassCode), err)
			}
			items = append(items, found...)
		}

		msg := agendaDigest(items, start, end)
		msg.To = cfg.Agenda.To
		err = deliverAgenda(ctx, os.Stdout, mailer.NewSmtpSender(cfg.Email), msg, *agendaDryRun)
		if err != nil {
			serviceutil.Fatal("failed to send the agenda", err)
		}
		if !*agendaDryRun && len(msg.To) > 0 {
			fmt.Printf("Sent %d events to %s\n", len(items), strings.Join(msg.To, ", "))
		}
	},
}
