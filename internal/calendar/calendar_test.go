package calendar

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/nhle/winterbreak/internal/model"
	"github.com/nhle/winterbreak/tests/testutil"
)

func TestExportImportRoundTrip(t *testing.T) {
	loc := time.UTC
	byDate := map[string][]model.ScheduleEvent{
		"2026-01-21": {
			{
				LocalID: 1, Date: "2026-01-21",
				StartHour: 9, StartMin: 0, EndHour: 10, EndMin: 30,
				Title: "Math", Subtitle: "Fractions", Icon: "🔢", Color: "#AABBCC",
				Status:   model.StatusCompleted,
				Subtasks: []model.Subtask{{ID: 1, Text: "page 12", Done: true}},
			},
		},
		"2026-01-20": {
			{
				LocalID: 2, RemoteID: "6f1c2d3e-0000-4000-8000-000000000001", Date: "2026-01-20",
				StartHour: 14, EndHour: 15, Title: "Swim", Icon: "🏊", Color: "#0000FF",
				Status: model.StatusPending,
			},
		},
	}

	var buf bytes.Buffer
	if err := Export(&buf, byDate, loc); err != nil {
		t.Fatalf("Export: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "UID:1@winterbreak") {
		t.Errorf("missing local uid in:\n%s", out)
	}
	if !strings.Contains(out, "UID:6f1c2d3e-0000-4000-8000-000000000001@winterbreak") {
		t.Errorf("missing remote uid in:\n%s", out)
	}
	if strings.Index(out, "Swim") > strings.Index(out, "Math") {
		t.Errorf("events not written in date order")
	}

	got, err := Import(&buf, loc, testutil.DiscardLogger())
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Import returned %d events, want 2", len(got))
	}

	swim, math := got[0], got[1]
	if swim.Date != "2026-01-20" || swim.StartHour != 14 || swim.EndHour != 15 {
		t.Errorf("swim = %+v", swim)
	}
	if swim.Title != "Swim" || swim.Icon != "🏊" || swim.Color != "#0000FF" {
		t.Errorf("swim presentation = %q %q %q", swim.Title, swim.Icon, swim.Color)
	}
	if swim.Status != model.StatusPending {
		t.Errorf("swim status = %q", swim.Status)
	}
	if math.Status != model.StatusCompleted || math.EndMin != 30 || math.Subtitle != "Fractions" {
		t.Errorf("math = %+v", math)
	}
	if math.LocalID != 0 || math.RemoteID != "" {
		t.Errorf("imported events must not carry ids: %+v", math)
	}
	if math.Kind != "imported" {
		t.Errorf("kind = %q", math.Kind)
	}
}

func TestImportSkipsUnsupportedEvents(t *testing.T) {
	src := strings.Join([]string{
		"BEGIN:VCALENDAR",
		"VERSION:2.0",
		"PRODID:-//test//EN",
		"BEGIN:VEVENT",
		"UID:allday",
		"DTSTART;VALUE=DATE:20260120",
		"DTEND;VALUE=DATE:20260121",
		"SUMMARY:Holiday",
		"END:VEVENT",
		"BEGIN:VEVENT",
		"UID:overnight",
		"DTSTART:20260120T230000Z",
		"DTEND:20260121T010000Z",
		"SUMMARY:Sleepover",
		"END:VEVENT",
		"BEGIN:VEVENT",
		"UID:ok",
		"DTSTART:20260120T080000Z",
		"DTEND:20260120T083000Z",
		"SUMMARY:Breakfast",
		"END:VEVENT",
		"END:VCALENDAR",
		"",
	}, "\r\n")

	got, err := Import(strings.NewReader(src), time.UTC, testutil.DiscardLogger())
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if len(got) != 1 || got[0].Title != "Breakfast" {
		t.Fatalf("Import = %+v, want only Breakfast", got)
	}
	if got[0].Icon != model.DefaultEventIcon || got[0].Color != model.DefaultEventColor {
		t.Errorf("defaults not applied: %+v", got[0])
	}
}

func TestImportEmpty(t *testing.T) {
	if _, err := Import(strings.NewReader(""), time.UTC, nil); err == nil {
		t.Fatal("expected error for empty input")
	}
}
