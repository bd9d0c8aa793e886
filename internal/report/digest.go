// Package report builds the daily progress report and delivers it as a
// mail message.
package report

import (
	"fmt"
	"slices"
	"strings"

	"github.com/nhle/winterbreak/internal/model"
	"github.com/nhle/winterbreak/internal/photos"
)

// HabitLine is one habit as of the report date.
type HabitLine struct {
	Name   string
	Icon   string
	Done   bool
	Streak int
}

// Digest is the content of one daily report.
type Digest struct {
	Student   string
	Date      string
	Events    []model.ScheduleEvent
	Habits    []HabitLine
	Progress  model.DailyProgress
	Interests model.Interests
	Choice    *model.Choice
	Photos    []photos.Entry
}

// Subject returns the mail subject line.
func (d Digest) Subject() string {
	done := 0
	for _, e := range d.Events {
		if e.Status == model.StatusCompleted {
			done++
		}
	}
	return fmt.Sprintf("%s's day %s: %d/%d done", d.Student, d.Date, done, len(d.Events))
}

// Text renders the report as plain text.
func (d Digest) Text() string {
	var b strings.Builder

	fmt.Fprintf(&b, "Winter break report for %s, %s\n\n", d.Student, d.Date)

	b.WriteString("Schedule\n")
	if len(d.Events) == 0 {
		b.WriteString("  nothing planned\n")
	}
	for _, e := range d.Events {
		mark := " "
		if e.Status == model.StatusCompleted {
			mark = "x"
		}
		fmt.Fprintf(&b, "  [%s] %02d:%02d-%02d:%02d %s %s\n",
			mark, e.StartHour, e.StartMin, e.EndHour, e.EndMin, e.Icon, e.Title)
		for _, st := range e.Subtasks {
			sub := " "
			if st.Done {
				sub = "x"
			}
			fmt.Fprintf(&b, "        [%s] %s\n", sub, st.Text)
		}
	}

	b.WriteString("\nHabits\n")
	for _, h := range d.Habits {
		mark := " "
		if h.Done {
			mark = "x"
		}
		fmt.Fprintf(&b, "  [%s] %s %s", mark, h.Icon, h.Name)
		if h.Streak > 1 {
			fmt.Fprintf(&b, " (%d day streak)", h.Streak)
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "\nProgress\n  math %d%%  english %d%%  habits %d%%\n",
		d.Progress.Math, d.Progress.English, d.Progress.Habits)

	if len(d.Interests) > 0 {
		b.WriteString("\nInterests\n")
		names := make([]string, 0, len(d.Interests))
		for k := range d.Interests {
			names = append(names, k)
		}
		slices.Sort(names)
		for _, k := range names {
			fmt.Fprintf(&b, "  %-10s %d\n", k, d.Interests[k])
		}
	}

	if d.Choice != nil {
		fmt.Fprintf(&b, "\nLatest choice: %s (%s) on %s\n", d.Choice.Title, d.Choice.Type, d.Choice.Date)
	}
	if n := len(d.Photos); n > 0 {
		fmt.Fprintf(&b, "\n%d photo(s) attached.\n", n)
	}
	return b.String()
}
