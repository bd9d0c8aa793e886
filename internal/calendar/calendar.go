// Package calendar converts schedule events to and from iCalendar.
package calendar

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	"github.com/nhle/winterbreak/internal/datekey"
	"github.com/nhle/winterbreak/internal/model"
)

const productID = "-//winterbreak//schedule//EN"

// uidSuffix scopes local ids so they do not collide with other calendars.
const uidSuffix = "@winterbreak"

const iconProperty = ical.ComponentProperty("X-WINTERBREAK-ICON")

// Export writes every event in byDate as a VEVENT. Times are interpreted in
// loc. Dates are written in ascending order.
func Export(w io.Writer, byDate map[string][]model.ScheduleEvent, loc *time.Location) error {
	if loc == nil {
		loc = time.Local
	}

	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(productID)
	cal.SetXWRCalName("Winter break")

	keys := make([]string, 0, len(byDate))
	for k := range byDate {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	stamp := time.Now().UTC()
	for _, k := range keys {
		day, err := time.ParseInLocation(datekey.Layout, k, loc)
		if err != nil {
			return fmt.Errorf("exporting %s: %w", k, err)
		}
		for _, e := range byDate[k] {
			ev := cal.AddEvent(uid(e))
			ev.SetDtStampTime(stamp)
			ev.SetStartAt(day.Add(time.Duration(e.StartMinutes()) * time.Minute))
			ev.SetEndAt(day.Add(time.Duration(e.EndMinutes()) * time.Minute))
			ev.SetSummary(strings.TrimSpace(e.Icon + " " + e.Title))
			if desc := description(e); desc != "" {
				ev.SetDescription(desc)
			}
			if e.Status == model.StatusCompleted {
				ev.SetStatus(ical.ObjectStatusCompleted)
			} else {
				ev.SetStatus(ical.ObjectStatusConfirmed)
			}
			if e.Icon != "" {
				ev.SetProperty(iconProperty, e.Icon)
			}
			if e.Color != "" {
				ev.SetColor(e.Color)
			}
		}
	}

	if err := cal.SerializeTo(w); err != nil {
		return fmt.Errorf("writing calendar: %w", err)
	}
	return nil
}

func uid(e model.ScheduleEvent) string {
	return e.Ref() + uidSuffix
}

func description(e model.ScheduleEvent) string {
	var b strings.Builder
	b.WriteString(e.Subtitle)
	for _, st := range e.Subtasks {
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		mark := "[ ]"
		if st.Done {
			mark = "[x]"
		}
		b.WriteString(mark + " " + st.Text)
	}
	return b.String()
}

// Import reads VEVENTs from r and converts each timed event to a pending
// schedule event in loc. All-day events and events spanning midnight are
// skipped and logged.
func Import(r io.Reader, loc *time.Location, log *slog.Logger) ([]model.ScheduleEvent, error) {
	if loc == nil {
		loc = time.Local
	}
	if log == nil {
		log = slog.Default()
	}

	body, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading calendar: %w", err)
	}
	if len(body) == 0 {
		return nil, errors.New("empty calendar")
	}

	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parsing calendar: %w", err)
	}

	var out []model.ScheduleEvent
	for _, ve := range cal.Events() {
		e, err := fromVEvent(ve, loc)
		if err != nil {
			log.Warn("skipping calendar event", "uid", ve.Id(), "err", err)
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func fromVEvent(ve *ical.VEvent, loc *time.Location) (model.ScheduleEvent, error) {
	if p := ve.GetProperty(ical.ComponentPropertyDtStart); p != nil && !strings.Contains(p.Value, "T") {
		return model.ScheduleEvent{}, errors.New("all-day event")
	}

	start, err := ve.GetStartAt()
	if err != nil {
		return model.ScheduleEvent{}, fmt.Errorf("DTSTART: %w", err)
	}
	end, err := ve.GetEndAt()
	if err != nil {
		end = start
	}
	start, end = start.In(loc), end.In(loc)

	if datekey.FromTime(start) != datekey.FromTime(end) {
		return model.ScheduleEvent{}, errors.New("event spans midnight")
	}

	e := model.ScheduleEvent{
		Date:      datekey.FromTime(start),
		StartHour: start.Hour(),
		StartMin:  start.Minute(),
		EndHour:   end.Hour(),
		EndMin:    end.Minute(),
		Icon:      model.DefaultEventIcon,
		Color:     model.DefaultEventColor,
		Status:    model.StatusPending,
		Kind:      "imported",
	}
	if p := ve.GetProperty(iconProperty); p != nil && p.Value != "" {
		e.Icon = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertyColor); p != nil && p.Value != "" {
		e.Color = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertySummary); p != nil {
		e.Title = strings.TrimSpace(strings.TrimPrefix(p.Value, e.Icon))
	}
	if p := ve.GetProperty(ical.ComponentPropertyDescription); p != nil {
		e.Subtitle = firstLine(p.Value)
	}
	if p := ve.GetProperty(ical.ComponentPropertyStatus); p != nil && strings.EqualFold(p.Value, string(ical.ObjectStatusCompleted)) {
		e.Status = model.StatusCompleted
	}
	if err := e.Validate(); err != nil {
		return model.ScheduleEvent{}, err
	}
	return e, nil
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
