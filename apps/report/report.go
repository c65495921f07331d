package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/semillerodigital/dashboard/core/classroom"
)

// ANSI colours of the status tags
var colors = map[string]string{
	"gray":   "\033[90m",
	"yellow": "\033[33m",
	"green":  "\033[32m",
	"blue":   "\033[34m",
	"orange": "\033[38;5;208m",
}

const colorReset = "\033[0m"

func (cli *commandLine) paint(tag, s string) string {
	code, ok := colors[tag]
	if !cli.color || !ok {
		return s
	}
	return code + s + colorReset
}

func (cli *commandLine) courses(creds classroom.Credentials, teacher string) error {
	courses, err := cli.svc.CoordinatorCourses(context.Background(), creds)
	if err != nil {
		return err
	}
	courses = classroom.FilterByTeacher(courses, teacher)

	w := tabwriter.NewWriter(cli.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tCURSO\tSECCIÓN\tPROFESORES")
	for _, c := range courses {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", c.ID, c.Name, c.DisplaySection(), c.DisplayTeachers())
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "\n%d cursos\n", len(courses))
	return nil
}

func (cli *commandLine) courseWork(creds classroom.Credentials, courseID, courseWorkID string) error {
	report, err := cli.svc.CourseWorkReport(context.Background(), creds, courseID, courseWorkID)
	if err != nil {
		return err
	}

	fmt.Fprintf(cli.out, "%s (%s)\n", report.Work.Title, report.Course.Name)
	fmt.Fprintf(cli.out, "Fecha límite: %s\n", classroom.FormatDeadline(report.Work.DueDate))
	s := report.Summary
	fmt.Fprintf(cli.out, "Total: %d  Entregados: %d  Tarde: %d  Pendientes: %d\n\n", s.Total, s.Submitted, s.Late, s.Pending)

	// colour codes would skew tabwriter's widths; the status column goes last.
	w := tabwriter.NewWriter(cli.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ESTUDIANTE\tEMAIL\tFECHA DE ENTREGA\tCALIFICACIÓN\tESTADO")
	for _, row := range report.Rows {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			row.Profile.DisplayName(),
			row.Profile.DisplayEmail(),
			row.SubmittedAt,
			row.Grade,
			cli.paint(row.Status.ColorTag, row.Status.Label),
		)
	}
	return w.Flush()
}
