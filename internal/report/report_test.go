package report

import (
	"bytes"
	"encoding/base64"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/emersion/go-message/mail"

	"github.com/nhle/winterbreak/internal/model"
	"github.com/nhle/winterbreak/internal/photos"
)

func sampleDigest() Digest {
	png := "\x89PNG\x0D\x0A\x1A\x0A\x00\x00\x00\x0DIHDR"
	return Digest{
		Student: "Mia",
		Date:    "2026-01-06",
		Events: []model.ScheduleEvent{
			{Title: "Skating", Icon: "⛸", StartHour: 10, EndHour: 11, Status: model.StatusCompleted,
				Subtasks: []model.Subtask{{ID: 1, Text: "Find gloves", Done: true}}},
			{Title: "Library", Icon: "📚", StartHour: 13, EndHour: 14, Status: model.StatusPending},
		},
		Habits: []HabitLine{
			{Name: "Reading", Icon: "📖", Done: true, Streak: 3},
			{Name: "Exercise", Icon: "🏃"},
		},
		Progress:  model.DailyProgress{Math: 50, English: 20, Habits: 50},
		Interests: model.Interests{"art": 30},
		Choice:    &model.Choice{Date: "2026-01-06", Type: "movie", Title: "Frozen"},
		Photos: []photos.Entry{
			{Photo: model.Photo{ID: "a", Date: "2026-01-06",
				Data: "data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte(png))}},
			{Photo: model.Photo{ID: "b", Date: "2026-01-06", Data: "not a data url"}},
		},
	}
}

func TestDigestText(t *testing.T) {
	d := sampleDigest()

	if got := d.Subject(); got != "Mia's day 2026-01-06: 1/2 done" {
		t.Errorf("Subject = %q", got)
	}

	text := d.Text()
	for _, want := range []string{
		"[x] 10:00-11:00 ⛸ Skating",
		"[ ] 13:00-14:00 📚 Library",
		"[x] Find gloves",
		"Reading (3 day streak)",
		"math 50%  english 20%  habits 50%",
		"Latest choice: Frozen (movie)",
		"2 photo(s) attached.",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("text missing %q\n%s", want, text)
		}
	}
}

func TestWriteMessage(t *testing.T) {
	var buf bytes.Buffer
	env := Envelope{
		From: "Mia <mia@example.org>",
		To:   []string{"mom@example.org", "Dad <dad@example.org>"},
		Date: time.Date(2026, 1, 6, 20, 0, 0, 0, time.UTC),
	}
	if err := WriteMessage(&buf, env, sampleDigest()); err != nil {
		t.Fatalf("WriteMessage: %v", err)
	}

	mr, err := mail.CreateReader(&buf)
	if err != nil {
		t.Fatalf("CreateReader: %v", err)
	}
	defer mr.Close()

	if subject, _ := mr.Header.Subject(); !strings.HasPrefix(subject, "Mia's day") {
		t.Errorf("subject = %q", subject)
	}
	to, _ := mr.Header.AddressList("To")
	if len(to) != 2 || to[1].Address != "dad@example.org" {
		t.Errorf("to = %v", to)
	}

	var body string
	var files []string
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("NextPart: %v", err)
		}
		switch h := part.Header.(type) {
		case *mail.InlineHeader:
			b, _ := io.ReadAll(part.Body)
			body = string(b)
		case *mail.AttachmentHeader:
			name, _ := h.Filename()
			files = append(files, name)
		}
	}

	if !strings.Contains(body, "Skating") {
		t.Errorf("body = %q", body)
	}
	if len(files) != 1 || files[0] != "2026-01-06-1.png" {
		t.Errorf("attachments = %v", files)
	}
}

func TestWriteMessageRejectsBadAddress(t *testing.T) {
	err := WriteMessage(io.Discard, Envelope{From: "not an address"}, Digest{Student: "Mia"})
	if err == nil {
		t.Error("expected error for malformed from")
	}
}
