package app

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/nhle/winterbreak/internal/credential"
	"github.com/nhle/winterbreak/internal/datekey"
	"github.com/nhle/winterbreak/internal/habit"
	"github.com/nhle/winterbreak/internal/report"
)

// Digest collects the report for date. Habits and progress are only known
// for today.
func (a *App) Digest(ctx context.Context, date string) (report.Digest, error) {
	key, ok := datekey.Normalize(date)
	if !ok {
		return report.Digest{}, fmt.Errorf("invalid date %q", date)
	}
	d := report.Digest{
		Student:   a.Dashboard().Student.Name,
		Date:      key,
		Events:    a.schedule.GetByDate(key),
		Interests: a.Interests(),
		Photos:    a.album.ListByDate(ctx, key),
	}
	if c, ok := a.LastChoice(); ok {
		d.Choice = &c
	}
	if key == a.Today() {
		habits := a.habits.Habits()
		for _, k := range a.habits.Keys() {
			info := habit.Describe(k)
			line := report.HabitLine{Name: info.Name, Icon: info.Icon, Streak: a.habits.Streak(k)}
			if h, ok := habits[k]; ok && h != nil {
				line.Done = h.Completed
			}
			d.Habits = append(d.Habits, line)
		}
		d.Progress = a.habits.Progress()
	}
	return d, nil
}

// WriteReport writes the report for date as a mail message.
func (a *App) WriteReport(ctx context.Context, w io.Writer, date string) error {
	d, err := a.Digest(ctx, date)
	if err != nil {
		return err
	}
	return report.WriteMessage(w, a.envelope(), d)
}

// SendReport appends the report for date to the configured mailbox.
func (a *App) SendReport(ctx context.Context, date string) error {
	rc := a.cfg.Report
	if !rc.Enabled() {
		return fmt.Errorf("no report mailbox configured")
	}
	password, err := a.keyLookup(credential.IMAPPassword)
	if err != nil {
		return fmt.Errorf("reading mailbox password: %w", err)
	}

	var buf bytes.Buffer
	if err := a.WriteReport(ctx, &buf, date); err != nil {
		return err
	}
	if err := report.NewMailbox(rc, password).Append(ctx, buf.Bytes(), a.now()); err != nil {
		return err
	}
	a.log.Info("report delivered", "date_key", date, "mailbox", rc.Mailbox, "bytes", buf.Len())
	return nil
}

func (a *App) envelope() report.Envelope {
	return report.Envelope{From: a.cfg.Report.From, To: a.cfg.Report.To, Date: a.now()}
}
