package report

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"

	"github.com/nhle/winterbreak/internal/model"
)

// ErrAuth is returned when the IMAP server rejects the credentials.
var ErrAuth = errors.New("mailbox authentication failed")

// Mailbox appends reports to an IMAP folder, usually Drafts, so they can
// be reviewed and sent from any mail client.
type Mailbox struct {
	host     string
	port     string
	username string
	password string
	tls      bool
	folder   string
}

// NewMailbox creates a mailbox from the report settings.
func NewMailbox(cfg model.ReportConfig, password string) *Mailbox {
	return &Mailbox{
		host:     cfg.IMAPHost,
		port:     cfg.IMAPPort,
		username: cfg.Username,
		password: password,
		tls:      cfg.TLS,
		folder:   cfg.Mailbox,
	}
}

// Connect dials the server and logs in. The caller must log out.
func (m *Mailbox) Connect(_ context.Context) (*imapclient.Client, error) {
	addr := m.host + ":" + m.port

	var client *imapclient.Client
	var err error
	if m.tls {
		client, err = imapclient.DialTLS(addr, nil)
	} else {
		client, err = imapclient.DialStartTLS(addr, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("connecting to IMAP %s: %w", addr, err)
	}

	if err := client.Login(m.username, m.password).Wait(); err != nil {
		_ = client.Logout().Wait()
		return nil, fmt.Errorf("%w for %s: %v", ErrAuth, m.username, err)
	}
	return client, nil
}

// Check logs in and selects the target folder.
func (m *Mailbox) Check(ctx context.Context) error {
	client, err := m.Connect(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = client.Logout().Wait() }()

	if _, err := client.Select(m.folder, nil).Wait(); err != nil {
		return fmt.Errorf("selecting %s: %w", m.folder, err)
	}
	return nil
}

// Append stores raw as a new message in the target folder.
func (m *Mailbox) Append(ctx context.Context, raw []byte, at time.Time) error {
	client, err := m.Connect(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = client.Logout().Wait() }()

	cmd := client.Append(m.folder, int64(len(raw)), &imap.AppendOptions{
		Flags: []imap.Flag{imap.FlagDraft},
		Time:  at,
	})
	if _, err := cmd.Write(raw); err != nil {
		_ = cmd.Close()
		return fmt.Errorf("writing message: %w", err)
	}
	if err := cmd.Close(); err != nil {
		return fmt.Errorf("appending to %s: %w", m.folder, err)
	}
	if _, err := cmd.Wait(); err != nil {
		return fmt.Errorf("appending to %s: %w", m.folder, err)
	}
	return nil
}
