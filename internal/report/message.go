package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/emersion/go-message/mail"

	"github.com/nhle/winterbreak/internal/photos"
)

// Envelope addresses a report.
type Envelope struct {
	From string
	To   []string
	Date time.Time
}

// WriteMessage writes d as an RFC 5322 message: a text/plain body followed
// by one attachment per photo. Photos that are not data URLs are skipped.
func WriteMessage(w io.Writer, env Envelope, d Digest) error {
	var h mail.Header
	h.SetDate(env.Date)
	h.SetSubject(d.Subject())

	if env.From != "" {
		from, err := mail.ParseAddress(env.From)
		if err != nil {
			return fmt.Errorf("parsing from address %q: %w", env.From, err)
		}
		h.SetAddressList("From", []*mail.Address{from})
	}
	if len(env.To) > 0 {
		to, err := mail.ParseAddressList(strings.Join(env.To, ", "))
		if err != nil {
			return fmt.Errorf("parsing recipients: %w", err)
		}
		h.SetAddressList("To", to)
	}
	if err := h.GenerateMessageID(); err != nil {
		return fmt.Errorf("generating message id: %w", err)
	}

	mw, err := mail.CreateWriter(w, h)
	if err != nil {
		return fmt.Errorf("creating message: %w", err)
	}

	tw, err := mw.CreateInline()
	if err != nil {
		return fmt.Errorf("creating body: %w", err)
	}
	var th mail.InlineHeader
	th.SetContentType("text/plain", map[string]string{"charset": "utf-8"})
	pw, err := tw.CreatePart(th)
	if err != nil {
		return fmt.Errorf("creating text part: %w", err)
	}
	if _, err := io.WriteString(pw, d.Text()); err != nil {
		return err
	}
	pw.Close()
	tw.Close()

	for i, p := range d.Photos {
		mime, raw, err := photos.DecodeDataURL(p.Data)
		if err != nil {
			continue
		}
		var ah mail.AttachmentHeader
		ah.SetContentType(mime, nil)
		ah.SetFilename(attachmentName(d.Date, i, mime))
		aw, err := mw.CreateAttachment(ah)
		if err != nil {
			return fmt.Errorf("creating attachment: %w", err)
		}
		if _, err := aw.Write(raw); err != nil {
			return err
		}
		aw.Close()
	}

	return mw.Close()
}

func attachmentName(date string, i int, mime string) string {
	ext := strings.TrimPrefix(mime, "image/")
	if ext == "jpeg" {
		ext = "jpg"
	}
	return fmt.Sprintf("%s-%d.%s", date, i+1, ext)
}
