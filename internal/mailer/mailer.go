// Package mailer delivers band invitation emails through Resend.
//
// Delivery is best-effort and optional: with no API key configured New
// returns a disabled mailer whose SendInvite is a no-op, and callers treat
// send failures as log-only.
package mailer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/resend/resend-go/v3"

	"github.com/bandly/bandly/internal/models"
)

// Config holds mailer configuration.
type Config struct {
	APIKey      string
	FromAddress string
	// InviteURL is the frontend page where invitees review their invitations.
	InviteURL string
}

// Mailer sends invitation emails.
type Mailer struct {
	client    *resend.Client
	from      string
	inviteURL string
	logger    *slog.Logger
}

// New creates a mailer. With an empty API key the mailer is disabled.
func New(cfg *Config, logger *slog.Logger) *Mailer {
	if logger == nil {
		logger = slog.Default()
	}

	m := &Mailer{
		from:      cfg.FromAddress,
		inviteURL: cfg.InviteURL,
		logger:    logger,
	}

	if cfg.APIKey == "" {
		logger.Warn("RESEND_API_KEY not set, invitation emails disabled")
		return m
	}

	m.client = resend.NewClient(cfg.APIKey)
	return m
}

// Enabled reports whether emails will actually be sent.
func (m *Mailer) Enabled() bool {
	return m.client != nil
}

// SendInvite sends an invitation email to the invitee.
func (m *Mailer) SendInvite(ctx context.Context, invite *models.Invite) error {
	if m.client == nil {
		return nil
	}

	subject := fmt.Sprintf("%s invited you to join %s on Bandly", invite.InviterName, invite.BandName)
	html := fmt.Sprintf(
		`<p>%s invited you to join the band <strong>%s</strong> on Bandly.</p>`+
			`<p><a href="%s">Review your invitations</a></p>`+
			`<p>This invitation expires on %s.</p>`,
		invite.InviterName,
		invite.BandName,
		m.inviteURL,
		invite.ExpiresAt.Format("2 January 2006"),
	)

	params := &resend.SendEmailRequest{
		From:    m.from,
		To:      []string{invite.InviteeEmail},
		Subject: subject,
		Html:    html,
	}

	sendCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	sent, err := m.client.Emails.SendWithContext(sendCtx, params)
	if err != nil {
		return fmt.Errorf("sending invite email: %w", err)
	}

	m.logger.Info("invite email sent",
		"invite_id", invite.ID, "email_id", sent.Id)
	return nil
}
