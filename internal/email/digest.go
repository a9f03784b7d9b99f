package email

import (
	"bytes"
	"fmt"
	htmltemplate "html/template"
	"strings"
	texttemplate "text/template"

	"github.com/vendorconnect/jobs/internal/model"
)

const digestTimeLayout = "2 Jan 2006 15:04"

// Digest is the data behind one unread-notifications email.
type Digest struct {
	RecipientName string
	Notifications []*model.Notification
	// Total counts every notification the digest covers, including those
	// past the preview.
	Total  int
	AppURL string
}

type digestItem struct {
	Icon     string
	Title    string
	Message  string
	Priority string
	Color    string
	When     string
}

type digestView struct {
	RecipientName string
	Items         []digestItem
	Total         int
	More          int
	AppURL        string
}

// DigestRenderer turns a Digest into a Message.
type DigestRenderer struct {
	html         *htmltemplate.Template
	text         *texttemplate.Template
	previewLimit int
}

func NewDigestRenderer(previewLimit int) (*DigestRenderer, error) {
	if previewLimit < 1 {
		previewLimit = 10
	}
	html, err := htmltemplate.New("digest.html").Parse(digestHTML)
	if err != nil {
		return nil, fmt.Errorf("failed to parse digest html template: %w", err)
	}
	text, err := texttemplate.New("digest.txt").Parse(digestText)
	if err != nil {
		return nil, fmt.Errorf("failed to parse digest text template: %w", err)
	}
	return &DigestRenderer{html: html, text: text, previewLimit: previewLimit}, nil
}

func (r *DigestRenderer) Render(to string, d *Digest) (*Message, error) {
	view := r.view(d)

	var htmlBuf, textBuf bytes.Buffer
	if err := r.html.Execute(&htmlBuf, view); err != nil {
		return nil, fmt.Errorf("failed to render digest html: %w", err)
	}
	if err := r.text.Execute(&textBuf, view); err != nil {
		return nil, fmt.Errorf("failed to render digest text: %w", err)
	}

	return &Message{
		To:       to,
		ToName:   d.RecipientName,
		Subject:  DigestSubject(view.Total),
		TextBody: textBuf.String(),
		HTMLBody: htmlBuf.String(),
	}, nil
}

func (r *DigestRenderer) view(d *Digest) digestView {
	total := d.Total
	if total < len(d.Notifications) {
		total = len(d.Notifications)
	}
	preview := d.Notifications
	if len(preview) > r.previewLimit {
		preview = preview[:r.previewLimit]
	}

	items := make([]digestItem, 0, len(preview))
	for _, n := range preview {
		items = append(items, digestItem{
			Icon:     TypeIcon(n.Type),
			Title:    n.Title,
			Message:  n.Message,
			Priority: strings.ToUpper(string(n.Priority)),
			Color:    PriorityColor(n.Priority),
			When:     n.CreatedAt.Format(digestTimeLayout),
		})
	}

	name := d.RecipientName
	if name == "" {
		name = "there"
	}
	return digestView{
		RecipientName: name,
		Items:         items,
		Total:         total,
		More:          total - len(items),
		AppURL:        strings.TrimRight(d.AppURL, "/"),
	}
}

func DigestSubject(count int) string {
	if count == 1 {
		return "You have 1 unread notification"
	}
	return fmt.Sprintf("You have %d unread notifications", count)
}

func PriorityColor(p model.NotificationPriority) string {
	switch p {
	case model.PriorityUrgent:
		return "#dc3545"
	case model.PriorityHigh:
		return "#fd7e14"
	case model.PriorityLow:
		return "#6c757d"
	}
	return "#0d6efd"
}

func TypeIcon(t model.NotificationType) string {
	switch t {
	case model.NotificationTaskAssigned:
		return "📋"
	case model.NotificationTaskCompleted:
		return "✅"
	case model.NotificationTaskDueSoon:
		return "⏰"
	case model.NotificationTaskOverdue:
		return "⚠️"
	case model.NotificationDeliverableAdded:
		return "📦"
	case model.NotificationCommentAdded:
		return "💬"
	case model.NotificationProjectUpdated:
		return "📁"
	case model.NotificationClientUpdated:
		return "👤"
	}
	return "🔔"
}

const digestHTML = `<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>Unread notifications</title></head>
<body style="font-family: Arial, sans-serif; color: #212529; background: #f8f9fa; padding: 24px;">
  <div style="max-width: 600px; margin: 0 auto; background: #ffffff; padding: 24px; border-radius: 6px;">
    <h2 style="margin-top: 0;">Hi {{.RecipientName}},</h2>
    <p>You have {{.Total}} unread notification{{if ne .Total 1}}s{{end}} in VendorConnect.</p>
    {{range .Items}}
    <div style="border-left: 4px solid {{.Color}}; padding: 8px 12px; margin: 12px 0;">
      <div style="font-weight: bold;">{{.Icon}} {{.Title}}
        <span style="color: {{.Color}}; font-size: 11px; margin-left: 6px;">{{.Priority}}</span>
      </div>
      <div>{{.Message}}</div>
      <div style="color: #6c757d; font-size: 12px;">{{.When}}</div>
    </div>
    {{end}}
    {{if gt .More 0}}<p>and {{.More}} more</p>{{end}}
    {{if .AppURL}}<p><a href="{{.AppURL}}/notifications" style="color: #0d6efd;">View all notifications</a></p>{{end}}
  </div>
</body>
</html>
`

const digestText = `Hi {{.RecipientName}},

You have {{.Total}} unread notification{{if ne .Total 1}}s{{end}} in VendorConnect.
{{range .Items}}
{{.Icon}} [{{.Priority}}] {{.Title}}
{{.Message}}
{{.When}}
{{end}}{{if gt .More 0}}
and {{.More}} more
{{end}}{{if .AppURL}}
View all notifications: {{.AppURL}}/notifications
{{end}}`
