package utils

import (
	"fmt"
	"strings"

	"planvite/config"
	"planvite/models"

	"github.com/getsentry/sentry-go"
	"github.com/sirupsen/logrus"
	"gopkg.in/gomail.v2"
)

// InviteMailer delivers invitation and member-invite emails over the
// configured SMTP relay.
type InviteMailer struct {
	fromEmail string
	fromName  string
	baseURL   string
}

func NewInviteMailer() *InviteMailer {
	return &InviteMailer{
		fromEmail: config.AppConfig.FromEmail,
		fromName:  config.AppConfig.FromName,
		baseURL:   config.AppConfig.BaseURL,
	}
}

// SendInvitation renders the template for one guest and sends it. The
// subject and both bodies support {{first_name}}, {{last_name}},
// {{event_name}} and {{rsvp_link}} placeholders.
func (m *InviteMailer) SendInvitation(inv *models.Invitation, guest *models.Guest, event *models.Event, tmpl *models.InvitationTemplate, rsvpToken string) error {
	repl := m.replacer(guest, event, rsvpToken)

	msg := gomail.NewMessage()
	msg.SetAddressHeader("From", m.fromEmail, m.fromName)
	msg.SetHeader("To", inv.Recipient)
	msg.SetHeader("Subject", repl.Replace(tmpl.Subject))
	if tmpl.TextContent != "" {
		msg.SetBody("text/plain", repl.Replace(tmpl.TextContent))
		if tmpl.HTMLContent != "" {
			msg.AddAlternative("text/html", repl.Replace(tmpl.HTMLContent))
		}
	} else {
		msg.SetBody("text/html", repl.Replace(tmpl.HTMLContent))
	}

	if err := m.dial().DialAndSend(msg); err != nil {
		logrus.WithFields(logrus.Fields{
			"invitation_id": inv.ID,
			"event_id":      inv.EventID,
			"recipient":     inv.Recipient,
		}).WithError(err).Error("failed to send invitation")
		sentry.CaptureException(err)
		return fmt.Errorf("failed to send invitation: %w", err)
	}
	return nil
}

// SendMemberInvite emails an organization join link.
func (m *InviteMailer) SendMemberInvite(email, orgName, role, token string) error {
	link := fmt.Sprintf("%s/invites/accept?token=%s", m.baseURL, token)

	msg := gomail.NewMessage()
	msg.SetAddressHeader("From", m.fromEmail, m.fromName)
	msg.SetHeader("To", email)
	msg.SetHeader("Subject", fmt.Sprintf("You've been invited to join %s", orgName))
	msg.SetBody("text/html", fmt.Sprintf(`
		<html>
		<body>
			<h2>Join %s on Planvite</h2>
			<p>You have been invited as a %s. Click below to accept:</p>
			<p><a href="%s">Accept invitation</a></p>
			<p>This invitation expires in 7 days.</p>
		</body>
		</html>
	`, orgName, role, link))

	if err := m.dial().DialAndSend(msg); err != nil {
		logrus.WithFields(logrus.Fields{
			"recipient": email,
			"org":       orgName,
		}).WithError(err).Error("failed to send member invite")
		sentry.CaptureException(err)
		return fmt.Errorf("failed to send member invite: %w", err)
	}
	return nil
}

func (m *InviteMailer) dial() *gomail.Dialer {
	return gomail.NewDialer(
		config.AppConfig.SMTPHost,
		config.AppConfig.SMTPPort,
		config.AppConfig.SMTPUsername,
		config.AppConfig.SMTPPassword,
	)
}

func (m *InviteMailer) replacer(guest *models.Guest, event *models.Event, rsvpToken string) *strings.Replacer {
	firstName := ""
	if guest.FirstName != nil {
		firstName = *guest.FirstName
	}
	rsvpLink := fmt.Sprintf("%s/rsvp/%s", m.baseURL, rsvpToken)
	return strings.NewReplacer(
		"{{first_name}}", firstName,
		"{{last_name}}", guest.LastName,
		"{{event_name}}", event.Name,
		"{{rsvp_link}}", rsvpLink,
	)
}
