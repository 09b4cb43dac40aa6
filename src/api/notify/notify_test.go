package notify

import (
	"bytes"
	"context"
	"errors"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/Sam-Sparxz/Portfolio/src/api/config"
	"github.com/Sam-Sparxz/Portfolio/src/api/types"
)

func sampleMessage() types.ContactMessage {
	return types.ContactMessage{
		ID:        7,
		Name:      "Ada Lovelace",
		Email:     "ada@example.com",
		Subject:   "Analytical engine",
		Message:   "I have some notes on Bernoulli numbers.",
		CreatedAt: "2026-02-22T10:00:00.000000+00:00",
	}
}

type fakeChannel struct {
	name    string
	enabled bool
	err     error
	panics  bool
	calls   int
	ctxErr  error
}

func (f *fakeChannel) Name() string  { return f.name }
func (f *fakeChannel) Enabled() bool { return f.enabled }
func (f *fakeChannel) Notify(ctx context.Context, msg types.ContactMessage) error {
	f.calls++
	f.ctxErr = ctx.Err()
	if f.panics {
		panic("relay exploded")
	}
	return f.err
}

// ---------------------------------------------------------------------------
// Summary
// ---------------------------------------------------------------------------

func TestSummarizeKeepsText(t *testing.T) {
	msg := sampleMessage()
	msg.Name = "Ada <Countess> & Co"
	msg.Subject = "Generics <T> question"
	msg.Message = "Reach me at <ada@example.com> please.\nAlso is x<y and y>z valid?"

	s := Summarize(msg)
	if s.Name != msg.Name || s.Subject != msg.Subject || s.Message != msg.Message {
		t.Errorf("summary changed the submission: %+v", s)
	}
	if !strings.Contains(s.Text(), "Message:\n"+msg.Message) {
		t.Errorf("body does not carry the message as written:\n%s", s.Text())
	}
	if !strings.Contains(s.Text(), "Subject: Generics <T> question") {
		t.Errorf("body lost subject text:\n%s", s.Text())
	}
}

func TestSummarizeSingleLineHeaders(t *testing.T) {
	msg := sampleMessage()
	msg.Subject = "Hello\r\nBcc: victim@example.com"
	msg.Name = "Ada\nLovelace"

	s := Summarize(msg)
	if strings.ContainsAny(s.Subject+s.Name+s.MailSubject(), "\r\n") {
		t.Errorf("header fields must be single line: %q / %q", s.Subject, s.Name)
	}
	if s.Subject != "Hello Bcc: victim@example.com" {
		t.Errorf("Subject = %q", s.Subject)
	}
}

func TestSummaryHTMLEscapes(t *testing.T) {
	msg := sampleMessage()
	msg.Subject = "Generics <T> question"
	msg.Message = "<script>alert(1)</script> is x<y?"

	out, err := Summarize(msg).HTML()
	if err != nil {
		t.Fatalf("HTML: %v", err)
	}
	if strings.Contains(out, "<script>") {
		t.Errorf("markup rendered: %s", out)
	}
	for _, want := range []string{"Generics &lt;T&gt; question", "&lt;script&gt;alert(1)&lt;/script&gt; is x&lt;y?", "<pre>"} {
		if !strings.Contains(out, want) {
			t.Errorf("html missing %q:\n%s", want, out)
		}
	}
}

func TestSummaryText(t *testing.T) {
	s := Summarize(sampleMessage())
	if s.MailSubject() != "New Portfolio Message: Analytical engine" {
		t.Errorf("MailSubject = %q", s.MailSubject())
	}
	body := s.Text()
	for _, want := range []string{
		"New contact message received.",
		"Name: Ada Lovelace",
		"Email: ada@example.com",
		"Subject: Analytical engine",
		"Created (UTC): 2026-02-22T10:00:00.000000+00:00",
		"Message:\nI have some notes on Bernoulli numbers.",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("body missing %q:\n%s", want, body)
		}
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("héllo", 10); got != "héllo" {
		t.Errorf("short string changed: %q", got)
	}
	if got := truncate("héllo wörld", 5); got != "héll…" {
		t.Errorf("truncate = %q", got)
	}
}

// ---------------------------------------------------------------------------
// Mailer
// ---------------------------------------------------------------------------

func TestMailerEnabled(t *testing.T) {
	base := config.SMTP{Host: "smtp.example.com", Port: 587, From: "site@example.com", UseTLS: true}
	cases := []struct {
		name string
		smtp config.SMTP
		to   string
		want bool
	}{
		{"configured", base, "me@example.com", true},
		{"no host", config.SMTP{Port: 587, From: "site@example.com"}, "me@example.com", false},
		{"no recipient", base, " , ", false},
		{"no from", config.SMTP{Host: "smtp.example.com", Port: 587}, "me@example.com", false},
		{"bad from", config.SMTP{Host: "smtp.example.com", Port: 587, From: "not an address"}, "me@example.com", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := NewMailer(tc.smtp, tc.to).Enabled(); got != tc.want {
				t.Errorf("Enabled() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestMailerDisabledIsNoop(t *testing.T) {
	m := NewMailer(config.SMTP{}, "")
	if err := m.Notify(context.Background(), sampleMessage()); err != nil {
		t.Errorf("disabled mailer should not error, got %v", err)
	}
}

func TestMailerMessage(t *testing.T) {
	m := NewMailer(config.SMTP{Host: "smtp.example.com", Port: 587, From: "site@example.com"}, "me@example.com, other@example.com")
	out, err := m.message(Summarize(sampleMessage()))
	if err != nil {
		t.Fatalf("message: %v", err)
	}
	rcpts, err := out.GetRecipients()
	if err != nil {
		t.Fatalf("recipients: %v", err)
	}
	if len(rcpts) != 2 {
		t.Errorf("expected 2 recipients, got %v", rcpts)
	}

	var buf bytes.Buffer
	if _, err := out.WriteTo(&buf); err != nil {
		t.Fatalf("write: %v", err)
	}
	raw := buf.String()
	for _, want := range []string{"New Portfolio Message: Analytical engine", "ada@example.com", "site@example.com", "text/plain", "text/html"} {
		if !strings.Contains(raw, want) {
			t.Errorf("rendered mail missing %q", want)
		}
	}
}

// closedPort returns a local address nothing listens on.
func closedPort(t *testing.T) (string, int) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := ln.Addr().(*net.TCPAddr)
	_ = ln.Close()
	return "127.0.0.1", addr.Port
}

func TestMailerUnreachableRelay(t *testing.T) {
	for _, useTLS := range []bool{true, false} {
		host, port := closedPort(t)
		m := NewMailer(config.SMTP{
			Host: host, Port: port, From: "site@example.com",
			User: "site@example.com", Password: "pw", UseTLS: useTLS,
		}, "me@example.com")
		m.timeout = 2 * time.Second

		start := time.Now()
		err := m.Notify(context.Background(), sampleMessage())
		if err == nil {
			t.Fatalf("useTLS=%v: expected error from closed relay", useTLS)
		}
		if time.Since(start) > 10*time.Second {
			t.Errorf("useTLS=%v: send did not respect timeout", useTLS)
		}
	}
}

// ---------------------------------------------------------------------------
// Discord
// ---------------------------------------------------------------------------

func TestParseWebhookURL(t *testing.T) {
	id, token, err := parseWebhookURL("https://discord.com/api/webhooks/123456/abc-DEF_ghi")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if id != "123456" || token != "abc-DEF_ghi" {
		t.Errorf("got id=%q token=%q", id, token)
	}

	if _, _, err := parseWebhookURL("https://discord.com/api/v10/webhooks/1/t"); err != nil {
		t.Errorf("versioned url rejected: %v", err)
	}
	for _, bad := range []string{"", "http://discord.com/api/webhooks/1/t", "https://discord.com/api/webhooks/1", "https://discord.com/channels/1/2"} {
		if _, _, err := parseWebhookURL(bad); err == nil {
			t.Errorf("expected error for %q", bad)
		}
	}
}

func TestNewDiscordWebhookRejectsBadURL(t *testing.T) {
	if _, err := NewDiscordWebhook("https://example.com/hook", time.Second); err == nil {
		t.Error("expected error")
	}
	d, err := NewDiscordWebhook("https://discord.com/api/webhooks/1/t", time.Second)
	if err != nil {
		t.Fatalf("NewDiscordWebhook: %v", err)
	}
	if d.Name() != "discord" {
		t.Errorf("Name = %q", d.Name())
	}
}

func TestWebhookParams(t *testing.T) {
	msg := sampleMessage()
	msg.Message = "@everyone look " + strings.Repeat("x", 5000)
	p := webhookParams(Summarize(msg))

	if p.AllowedMentions == nil || len(p.AllowedMentions.Parse) != 0 {
		t.Errorf("mentions must be suppressed: %+v", p.AllowedMentions)
	}
	if len(p.Embeds) != 1 {
		t.Fatalf("expected one embed, got %d", len(p.Embeds))
	}
	e := p.Embeds[0]
	if n := len([]rune(e.Description)); n > discordDescriptionMax {
		t.Errorf("description too long: %d", n)
	}
	if len(e.Fields) != 3 || e.Fields[1].Value != "ada@example.com" {
		t.Errorf("unexpected fields: %+v", e.Fields)
	}
}

// ---------------------------------------------------------------------------
// Dispatcher
// ---------------------------------------------------------------------------

func TestDispatcherSkipsDisabledChannels(t *testing.T) {
	on := &fakeChannel{name: "on", enabled: true}
	off := &fakeChannel{name: "off", enabled: false}
	d := NewDispatcher(time.Second, on, off)

	if got := d.Channels(); len(got) != 1 || got[0] != "on" {
		t.Fatalf("Channels() = %v", got)
	}
	if err := d.Notify(context.Background(), sampleMessage()); err != nil {
		t.Fatalf("Notify: %v", err)
	}
	if on.calls != 1 || off.calls != 0 {
		t.Errorf("calls on=%d off=%d", on.calls, off.calls)
	}
}

func TestDispatcherCollectsFailures(t *testing.T) {
	relayErr := errors.New("535 auth failed")
	bad := &fakeChannel{name: "email", enabled: true, err: relayErr}
	boom := &fakeChannel{name: "discord", enabled: true, panics: true}
	good := &fakeChannel{name: "other", enabled: true}
	d := NewDispatcher(time.Second, bad, boom, good)

	err := d.Notify(context.Background(), sampleMessage())
	if !errors.Is(err, relayErr) {
		t.Errorf("expected relay error in %v", err)
	}
	if err == nil || !strings.Contains(err.Error(), "panic: relay exploded") {
		t.Errorf("expected recovered panic in %v", err)
	}
	if good.calls != 1 {
		t.Error("later channels must still run after failures")
	}
}

func TestDispatcherDetachesFromCallerCancel(t *testing.T) {
	ch := &fakeChannel{name: "email", enabled: true}
	d := NewDispatcher(time.Second, ch)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := d.Notify(ctx, sampleMessage()); err != nil {
		t.Fatalf("Notify: %v", err)
	}
	if ch.ctxErr != nil {
		t.Errorf("channel saw cancelled context: %v", ch.ctxErr)
	}
}

func TestEmptyDispatcher(t *testing.T) {
	d := NewDispatcher(time.Second, NewMailer(config.SMTP{}, ""))
	if len(d.Channels()) != 0 {
		t.Fatalf("unconfigured mailer should be dropped: %v", d.Channels())
	}
	if err := d.Notify(context.Background(), sampleMessage()); err != nil {
		t.Errorf("empty dispatcher returned %v", err)
	}
}
