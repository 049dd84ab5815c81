package report

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"

	"gopkg.in/gomail.v2"

	"geoattend/internal/attendance"
)

// Sender delivers mail; *gomail.Dialer satisfies it.
type Sender interface {
	DialAndSend(m ...*gomail.Message) error
}

// Digest mails a daily attendance summary to admins.
type Digest struct {
	reports    *Service
	sender     Sender
	from       string
	recipients []string
}

// NewDigest constructs a Digest.
func NewDigest(reports *Service, sender Sender, from string, recipients []string) *Digest {
	return &Digest{reports: reports, sender: sender, from: from, recipients: recipients}
}

var digestTemplate = template.Must(template.New("digest").Parse(`<h2>Attendance {{.Summary.WorkDate}}</h2>
<table border="1" cellpadding="4" cellspacing="0">
<tr><th>Employees</th><th>Present</th><th>Late</th><th>Absent</th><th>Checked out</th><th>Not checked out</th></tr>
<tr><td>{{.Summary.Employees}}</td><td>{{.Summary.Present}}</td><td>{{.Summary.Late}}</td><td>{{.Summary.Absent}}</td><td>{{.Summary.CheckedOut}}</td><td>{{.Summary.Open}}</td></tr>
</table>
{{if .Late}}<h3>Late</h3><ul>{{range .Late}}<li>{{.UserName}} ({{.UserEmail}})</li>{{end}}</ul>{{end}}
{{if .Open}}<h3>Not checked out</h3><ul>{{range .Open}}<li>{{.UserName}} ({{.UserEmail}})</li>{{end}}</ul>{{end}}
`))

type digestData struct {
	Summary Summary
	Late    []Row
	Open    []Row
}

// Send mails the summary of the single date r.From.
func (d *Digest) Send(ctx context.Context, r Range) error {
	if len(d.recipients) == 0 {
		return errors.New("report: digest has no recipients")
	}
	day := Range{From: r.From, To: r.From}

	summaries, err := d.reports.DailySummary(ctx, day)
	if err != nil {
		return err
	}
	if len(summaries) == 0 {
		return fmt.Errorf("report: no summary for %s", day.From.Format(attendance.DateLayout))
	}
	rows, err := d.reports.Records(ctx, day, "")
	if err != nil {
		return err
	}

	body, err := renderDigest(summaries[0], rows)
	if err != nil {
		return err
	}

	m := gomail.NewMessage()
	m.SetHeader("From", d.from)
	m.SetHeader("To", d.recipients...)
	m.SetHeader("Subject", "Attendance summary "+summaries[0].WorkDate)
	m.SetBody("text/html", body)

	if err := d.sender.DialAndSend(m); err != nil {
		return fmt.Errorf("report: send digest: %w", err)
	}
	return nil
}

func renderDigest(summary Summary, rows []Row) (string, error) {
	data := digestData{Summary: summary}
	for _, row := range rows {
		if row.Status == attendance.StatusLate {
			data.Late = append(data.Late, row)
		}
		if row.CheckOutTime == nil {
			data.Open = append(data.Open, row)
		}
	}
	var buf bytes.Buffer
	if err := digestTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("report: render digest: %w", err)
	}
	return buf.String(), nil
}
