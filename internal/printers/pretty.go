// Package printers renders winterbreak state for the command line.
package printers

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/gosuri/uitable"

	"github.com/nhle/winterbreak/internal/model"
	"github.com/nhle/winterbreak/internal/photos"
	"github.com/nhle/winterbreak/internal/report"
	wsync "github.com/nhle/winterbreak/internal/sync"
)

// PrettyPrint writes colored output to W. A nil W writes to color.Output.
type PrettyPrint struct {
	W      io.Writer
	ShowID bool
}

func (pp *PrettyPrint) out() io.Writer {
	if pp.W == nil {
		return color.Output
	}
	return pp.W
}

func (pp *PrettyPrint) NewLine() {
	_, _ = fmt.Fprintln(pp.out())
}

func (pp *PrettyPrint) Title(title string) {
	t := color.New(color.Bold, color.Underline)
	_, _ = t.Fprintln(pp.out(), title)
}

func (pp *PrettyPrint) TitleWithCount(title string, count int) {
	t := color.New(color.Bold, color.Underline)
	c := color.New(color.Faint)

	_, _ = t.Fprint(pp.out(), title)
	_, _ = c.Fprintf(pp.out(), " - %d", count)
	switch count {
	case 1:
		_, _ = c.Fprintln(pp.out(), " entry")
	default:
		_, _ = c.Fprintln(pp.out(), " entries")
	}
}

func (pp *PrettyPrint) none() {
	f := color.New(color.Faint, color.Italic)
	_, _ = f.Fprint(pp.out(), " none\n\n")
}

// Schedule prints one day's events with their subtasks.
func (pp *PrettyPrint) Schedule(date string, events []model.ScheduleEvent) {
	pp.TitleWithCount(date, len(events))
	if len(events) == 0 {
		pp.none()
		return
	}

	done := color.New(color.FgGreen)
	current := color.New(color.FgHiYellow, color.Bold)
	plain := color.New()
	faint := color.New(color.Faint)
	id := color.New(color.FgHiYellow, color.Italic, color.Faint)

	tbl := uitable.New()
	tbl.Separator = "  "
	for _, e := range events {
		mark, c := "○", plain
		switch e.Status {
		case model.StatusCompleted:
			mark, c = "✔", done
		case model.StatusCurrent:
			mark, c = "▶", current
		}
		row := []any{
			c.Sprint(mark),
			fmt.Sprintf("%02d:%02d-%02d:%02d", e.StartHour, e.StartMin, e.EndHour, e.EndMin),
			e.Icon + " " + c.Sprint(e.Title),
		}
		if pp.ShowID {
			row = append([]any{id.Sprint(eventID(e))}, row...)
		}
		tbl.AddRow(row...)

		for _, st := range e.Subtasks {
			box := "☐"
			if st.Done {
				box = "☑"
			}
			sub := []any{"", "", faint.Sprintf("  %s %s", box, st.Text)}
			if pp.ShowID {
				sub = append([]any{""}, sub...)
			}
			tbl.AddRow(sub...)
		}
	}
	_, _ = fmt.Fprintln(pp.out(), tbl)
	pp.NewLine()
}

func eventID(e model.ScheduleEvent) string {
	if e.RemoteID != "" {
		return e.RemoteID
	}
	return fmt.Sprintf("local-%d", e.LocalID)
}

// Habits prints today's habit checklist.
func (pp *PrettyPrint) Habits(habits []report.HabitLine, progress model.DailyProgress) {
	pp.Title("Habits")
	if len(habits) == 0 {
		pp.none()
		return
	}

	done := color.New(color.FgGreen)
	faint := color.New(color.Faint)

	tbl := uitable.New()
	tbl.Separator = "  "
	for _, h := range habits {
		mark := faint.Sprint("○")
		if h.Done {
			mark = done.Sprint("✔")
		}
		streak := ""
		if h.Streak > 1 {
			streak = faint.Sprintf("%d day streak", h.Streak)
		}
		tbl.AddRow(mark, h.Icon+" "+h.Name, streak)
	}
	_, _ = fmt.Fprintln(pp.out(), tbl)
	_, _ = faint.Fprintf(pp.out(), "math %d%%  english %d%%  habits %d%%\n\n",
		progress.Math, progress.English, progress.Habits)
}

// Queue prints the offline write queue.
func (pp *PrettyPrint) Queue(entries []model.QueueEntry) {
	pp.TitleWithCount("Queued writes", len(entries))
	if len(entries) == 0 {
		pp.none()
		return
	}

	y := color.New(color.FgHiYellow, color.Italic, color.Faint)
	faint := color.New(color.Faint)

	tbl := uitable.New()
	tbl.Separator = "  "
	tbl.MaxColWidth = 60
	for _, e := range entries {
		tbl.AddRow(y.Sprint(e.ID), string(e.Type), faint.Sprintf("attempts %d", e.Attempts), string(e.Payload))
	}
	_, _ = fmt.Fprintln(pp.out(), tbl)
	pp.NewLine()
}

// Photos prints the album, newest first.
func (pp *PrettyPrint) Photos(entries []photos.Entry) {
	pp.TitleWithCount("Photos", len(entries))
	if len(entries) == 0 {
		pp.none()
		return
	}

	y := color.New(color.FgHiYellow, color.Italic, color.Faint)
	cloud := color.New(color.FgCyan)
	faint := color.New(color.Faint)

	tbl := uitable.New()
	tbl.Separator = "  "
	for _, e := range entries {
		state := faint.Sprint("local")
		if e.Synced() {
			state = cloud.Sprint("synced")
		}
		tbl.AddRow(y.Sprint(e.ID), e.Date, mediaType(e.Data), state)
	}
	_, _ = fmt.Fprintln(pp.out(), tbl)
	pp.NewLine()
}

func mediaType(data string) string {
	if mime, _, err := photos.DecodeDataURL(data); err == nil {
		return mime
	}
	return "unknown"
}

// Flush prints the outcome of a queue flush.
func (pp *PrettyPrint) Flush(res wsync.FlushResult, pushed int) {
	c := color.New(color.FgGreen)
	if res.Retained > 0 || res.Dropped > 0 {
		c = color.New(color.FgYellow)
	}
	_, _ = c.Fprintf(pp.out(), "replayed %d, retained %d, dropped %d, pushed %d\n",
		res.Replayed, res.Retained, res.Dropped, pushed)
}

// Status prints a one-line result, red when err is set.
func (pp *PrettyPrint) Status(msg string, err error) {
	if err != nil {
		r := color.New(color.FgRed)
		_, _ = r.Fprintf(pp.out(), "%s: %v\n", msg, err)
		return
	}
	_, _ = fmt.Fprintln(pp.out(), strings.TrimSpace(msg))
}
