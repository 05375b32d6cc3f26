package main

import (
	"context"
	"fmt"
	"net/mail"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/absensi/core"
	"github.com/trezcool/absensi/core/attendance"
)

// recap emails the weekly or monthly attendance recap around date (today if empty) to the
// comma separated recipients of to.
func (cli *commandLine) recap(period, date, to string) error {
	p, err := attendance.ParsePeriod(period)
	if err != nil {
		return err
	}

	ref := cli.conf.Today()
	if date != "" {
		if ref, err = core.ParseDate(date); err != nil {
			return err
		}
	}

	recipients, err := mail.ParseAddressList(to)
	if err != nil {
		return errors.Wrap(err, "parsing recipients")
	}

	rep, err := cli.attendanceSvc.PeriodReport(context.Background(), p, ref)
	if err != nil {
		return errors.Wrap(err, "building recap")
	}

	msg := recapMessage(rep, recipients)
	cli.emailSvc.SendMessages(msg)
	if svc, ok := cli.emailSvc.(interface{ Wait() }); ok {
		svc.Wait()
	}

	totals := rep.Totals()
	fmt.Fprintf(cli.out, "%s recap %s - %s: %d teachers, hadir %d, tidak hadir %d, %d warnings\n",
		p, rep.From, rep.To, len(rep.Rows), totals.Hadir, totals.TidakHadir, len(rep.Warnings))
	fmt.Fprintf(cli.out, "sent to %d recipient(s)\n", len(recipients))
	return nil
}

func recapMessage(rep attendance.Report, recipients []*mail.Address) *core.EmailMessage {
	to := make([]mail.Address, 0, len(recipients))
	for _, addr := range recipients {
		to = append(to, *addr)
	}
	return &core.EmailMessage{
		To:           to,
		Subject:      fmt.Sprintf("Rekap kehadiran guru %s s.d. %s", formatDate(rep.From), formatDate(rep.To)),
		TemplateName: "attendance_recap",
		TemplateData: rep,
	}
}

// formatDate renders a YYYY-MM-DD date as DD/MM/YYYY.
func formatDate(s string) string {
	d, err := time.Parse(core.DateLayout, s)
	if err != nil {
		return s
	}
	return d.Format("02/01/2006")
}
