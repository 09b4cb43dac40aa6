package notify

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"github.com/Sam-Sparxz/Portfolio/src/api/types"
)

// htmlPolicy keeps only the layout tags htmlBody emits.
var htmlPolicy = func() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowElements("h2", "p", "strong", "pre", "br")
	return p
}()

var htmlBody = template.Must(template.New("mail").Parse(`<h2>New contact message received.</h2>
<p><strong>Name:</strong> {{.Name}}<br><strong>Email:</strong> {{.Email}}<br><strong>Subject:</strong> {{.Subject}}<br><strong>Created (UTC):</strong> {{.CreatedAt}}</p>
<p><strong>Message:</strong></p>
<pre>{{.Message}}</pre>
`))

// Summary is the notification view of a stored message. Fields that end up
// in headers or single-line slots are collapsed onto one line; the message is
// kept as written.
type Summary struct {
	ID        uint64
	Name      string
	Email     string
	Subject   string
	Message   string
	CreatedAt string
}

func Summarize(msg types.ContactMessage) Summary {
	return Summary{
		ID:        msg.ID,
		Name:      oneLine(msg.Name),
		Email:     oneLine(msg.Email),
		Subject:   oneLine(msg.Subject),
		Message:   msg.Message,
		CreatedAt: msg.CreatedAt,
	}
}

func (s Summary) MailSubject() string {
	return "New Portfolio Message: " + s.Subject
}

// Text renders the plain-text mail body.
func (s Summary) Text() string {
	return strings.Join([]string{
		"New contact message received.",
		"",
		"Name: " + s.Name,
		"Email: " + s.Email,
		"Subject: " + s.Subject,
		"Created (UTC): " + s.CreatedAt,
		"",
		"Message:",
		s.Message,
	}, "\n")
}

// HTML renders the text/html alternative. User text is escaped by the
// template; the policy pass drops anything beyond the template's own tags.
func (s Summary) HTML() (string, error) {
	var buf bytes.Buffer
	if err := htmlBody.Execute(&buf, s); err != nil {
		return "", fmt.Errorf("render html body: %w", err)
	}
	return htmlPolicy.Sanitize(buf.String()), nil
}

// oneLine collapses runs of whitespace, newlines included, into single spaces.
func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-1]) + "…"
}
