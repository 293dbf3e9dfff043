package mailer

import (
	"bytes"
	"fmt"
	"html"
	"html/template"
	"strings"
	"time"
)

// Submission is the template input for one accepted form submission. Field
// values arrive entity-escaped from the sanitizer, so the HTML templates
// interpolate them verbatim and the plain-text bodies decode them first;
// either way each value is escaped exactly once.
type Submission struct {
	ID         string
	Form       string
	ClientIP   string
	ReceivedAt time.Time
	Name       string
	Email      string
	Fields     []Field
}

// Field is one labeled value shown in the admin notification.
type Field struct {
	Label string
	Value string
}

type adminView struct {
	Form       string
	ID         string
	ClientIP   string
	ReceivedAt time.Time
	Fields     []struct {
		Label string
		Value template.HTML
	}
}

var adminHTML = template.Must(template.New("admin").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #222;">
  <h2>New {{.Form}} submission</h2>
  <table cellpadding="6" cellspacing="0" border="0">
    {{- range .Fields}}
    <tr>
      <td style="font-weight: bold; vertical-align: top;">{{.Label}}</td>
      <td>{{.Value}}</td>
    </tr>
    {{- end}}
  </table>
  <hr>
  <p style="color: #777; font-size: 12px;">
    Submission {{.ID}} from {{.ClientIP}} at {{.ReceivedAt.Format "Jan 2, 2006 3:04 PM MST"}}
  </p>
</body>
</html>
`))

var replyHTML = template.Must(template.New("reply").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #222;">
  <p>Dear {{.Name}},</p>
  <p>{{.Body}}</p>
  <p>Warm regards,<br>Himalayan Sherpa Club of Sonoma</p>
</body>
</html>
`))

var replyBodies = map[string]string{
	"contact": "Thank you for reaching out to the Himalayan Sherpa Club of Sonoma. " +
		"We have received your message and a member of our team will get back to you soon.",
	"membership": "Thank you for your interest in joining the Himalayan Sherpa Club of Sonoma. " +
		"We have received your application and will be in touch with the next steps shortly.",
}

// AdminNotification renders the message sent to the club administrator.
func AdminNotification(from, adminEmail string, sub Submission) (*Message, error) {
	view := adminView{
		Form:       sub.Form,
		ID:         sub.ID,
		ClientIP:   sub.ClientIP,
		ReceivedAt: sub.ReceivedAt,
	}
	for _, f := range sub.Fields {
		view.Fields = append(view.Fields, struct {
			Label string
			Value template.HTML
		}{Label: f.Label, Value: template.HTML(f.Value)})
	}

	var body bytes.Buffer
	if err := adminHTML.Execute(&body, view); err != nil {
		return nil, fmt.Errorf("rendering admin notification: %w", err)
	}

	var text strings.Builder
	fmt.Fprintf(&text, "New %s submission\n\n", sub.Form)
	for _, f := range sub.Fields {
		fmt.Fprintf(&text, "%s: %s\n", f.Label, html.UnescapeString(f.Value))
	}
	fmt.Fprintf(&text, "\nSubmission %s from %s at %s\n",
		sub.ID, sub.ClientIP, sub.ReceivedAt.Format(time.RFC1123))

	return &Message{
		From:    from,
		To:      []string{adminEmail},
		ReplyTo: sub.Email,
		Subject: fmt.Sprintf("[hscsonoma.org] New %s submission from %s", sub.Form, html.UnescapeString(sub.Name)),
		Text:    text.String(),
		HTML:    body.String(),
	}, nil
}

// AutoReply renders the acknowledgment sent back to the submitter.
func AutoReply(from string, sub Submission) (*Message, error) {
	replyBody, ok := replyBodies[sub.Form]
	if !ok {
		return nil, fmt.Errorf("no auto-reply body for form %q", sub.Form)
	}

	var body bytes.Buffer
	err := replyHTML.Execute(&body, struct {
		Name template.HTML
		Body string
	}{Name: template.HTML(sub.Name), Body: replyBody})
	if err != nil {
		return nil, fmt.Errorf("rendering auto-reply: %w", err)
	}

	text := fmt.Sprintf("Dear %s,\n\n%s\n\nWarm regards,\nHimalayan Sherpa Club of Sonoma\n",
		html.UnescapeString(sub.Name), replyBody)

	return &Message{
		From:    from,
		To:      []string{sub.Email},
		Subject: "We received your message",
		Text:    text,
		HTML:    body.String(),
	}, nil
}
