package notify

import (
	"context"
	"fmt"
	netmail "net/mail"
	"strings"
	"time"

	"github.com/wneessen/go-mail"

	"github.com/Sam-Sparxz/Portfolio/src/api/config"
	"github.com/Sam-Sparxz/Portfolio/src/api/types"
)

// DefaultDialTimeout bounds connecting to and talking with the relay.
const DefaultDialTimeout = 15 * time.Second

// Mailer emails a plain-text summary of each message through an SMTP relay.
type Mailer struct {
	smtp    config.SMTP
	to      []string
	timeout time.Duration
}

func NewMailer(smtp config.SMTP, notifyTo string) *Mailer {
	var to []string
	for _, addr := range strings.Split(notifyTo, ",") {
		if addr = strings.TrimSpace(addr); addr != "" {
			to = append(to, addr)
		}
	}
	return &Mailer{smtp: smtp, to: to, timeout: DefaultDialTimeout}
}

func (m *Mailer) Name() string { return "email" }

// Enabled is false when the relay, the recipient or a parseable From address
// is missing. A disabled mailer silently drops every notification.
func (m *Mailer) Enabled() bool {
	if strings.TrimSpace(m.smtp.Host) == "" || len(m.to) == 0 {
		return false
	}
	if _, err := netmail.ParseAddress(m.smtp.From); err != nil {
		return false
	}
	return true
}

func (m *Mailer) Notify(ctx context.Context, msg types.ContactMessage) error {
	if !m.Enabled() {
		return nil
	}

	out, err := m.message(Summarize(msg))
	if err != nil {
		return err
	}
	client, err := m.client()
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}
	if err := client.DialAndSendWithContext(ctx, out); err != nil {
		return fmt.Errorf("smtp send via %s:%d: %w", m.smtp.Host, m.smtp.Port, err)
	}
	return nil
}

func (m *Mailer) message(s Summary) (*mail.Msg, error) {
	out := mail.NewMsg()
	if err := out.From(m.smtp.From); err != nil {
		return nil, fmt.Errorf("from address: %w", err)
	}
	if err := out.To(m.to...); err != nil {
		return nil, fmt.Errorf("recipient: %w", err)
	}
	// a bad submitter address only costs the Reply-To header
	_ = out.ReplyTo(s.Email)
	out.Subject(s.MailSubject())
	out.SetDate()
	out.SetBodyString(mail.TypeTextPlain, s.Text())
	body, err := s.HTML()
	if err != nil {
		return nil, err
	}
	out.AddAlternativeString(mail.TypeTextHTML, body)
	return out, nil
}

// client builds a relay client. UseTLS upgrades a plain connection with
// mandatory STARTTLS; otherwise TLS starts with the connection.
func (m *Mailer) client() (*mail.Client, error) {
	opts := []mail.Option{
		mail.WithPort(m.smtp.Port),
		mail.WithTimeout(m.timeout),
	}
	if m.smtp.UseTLS {
		opts = append(opts, mail.WithTLSPolicy(mail.TLSMandatory))
	} else {
		opts = append(opts, mail.WithSSL())
	}
	if m.smtp.User != "" && m.smtp.Password != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(m.smtp.User),
			mail.WithPassword(m.smtp.Password),
		)
	}
	return mail.NewClient(m.smtp.Host, opts...)
}
