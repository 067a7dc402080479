package main

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	"github.com/trezcool/portal/core/importer"
)

func (cli *commandLine) importSheet(ctx context.Context, path, sheet string) (importer.Report, error) {
	rows, err := readSheetFunc(path, sheet)
	if err != nil {
		return importer.Report{}, errors.Wrap(err, "reading sheet")
	}
	return cli.importer.Import(ctx, rows)
}

func printReport(rep importer.Report) {
	fmt.Printf("rows: %d (skipped: %d)\n", rep.Rows, rep.Skipped)
	fmt.Printf("students: %d created, %d existing\n", rep.StudentsCreated, rep.StudentsExisting)
	fmt.Printf("courses: %d created, %d existing\n", rep.CoursesCreated, rep.CoursesExisting)
	fmt.Printf("enrollments: %d\n", rep.Enrollments)
	fmt.Printf("payments: %d created\n", rep.PaymentsCreated)
}
