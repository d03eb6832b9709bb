package notifications

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/url"
	"strings"
	texttemplate "text/template"
	"time"

	"github.com/charlesng35/releasetrack/internal/models"
	"github.com/charlesng35/releasetrack/pkg/markdown"
)

//go:embed templates/*.html templates/*.tmpl
var templateFS embed.FS

const timestampLayout = "2006-01-02 15:04 MST"

// RenderInput carries the values embedded in a notification email.
type RenderInput struct {
	Kind     models.NotificationKind
	Ticket   models.Ticket
	Actor    string
	OldValue string
	NewValue string
	// Comment is the markdown body for comment and mention emails.
	Comment string
}

// Rendered is a ready-to-send email body.
type Rendered struct {
	Subject string
	HTML    string
	Text    string
}

// RendererOptions configures NewRenderer.
type RendererOptions struct {
	// AppURL is the base URL used for "view ticket" links. Empty disables links.
	AppURL   string
	Markdown markdown.Renderer
	Now      func() time.Time
}

// Renderer produces subject, HTML and plain-text bodies from the embedded templates.
type Renderer struct {
	html     *template.Template
	text     *texttemplate.Template
	markdown markdown.Renderer
	appURL   string
	now      func() time.Time
}

type templateData struct {
	Subject     string
	Heading     string
	TicketID    string
	TicketTitle string
	Actor       string
	OldValue    string
	NewValue    string
	Comment     string
	CommentHTML template.HTML
	TicketURL   string
	GeneratedAt string
}

// NewRenderer parses the embedded templates.
func NewRenderer(opts RendererOptions) (*Renderer, error) {
	htmlTemplates, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("renderer: parse html templates: %w", err)
	}
	textTemplates, err := texttemplate.ParseFS(templateFS, "templates/*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("renderer: parse text templates: %w", err)
	}

	md := opts.Markdown
	if md == nil {
		md = markdown.NewRenderer()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	return &Renderer{
		html:     htmlTemplates,
		text:     textTemplates,
		markdown: md,
		appURL:   strings.TrimRight(strings.TrimSpace(opts.AppURL), "/"),
		now:      now,
	}, nil
}

// Render builds the email for input.Kind.
func (r *Renderer) Render(input RenderInput) (Rendered, error) {
	name, err := templateName(input.Kind)
	if err != nil {
		return Rendered{}, err
	}

	data := templateData{
		Subject:     subjectFor(input),
		Heading:     headingFor(input),
		TicketID:    input.Ticket.ID,
		TicketTitle: fallback(input.Ticket.Title, "(untitled)"),
		Actor:       fallback(input.Actor, "Someone"),
		OldValue:    fallback(input.OldValue, "None"),
		NewValue:    fallback(input.NewValue, "None"),
		Comment:     strings.TrimSpace(input.Comment),
		TicketURL:   r.ticketURL(input.Ticket.ID),
		GeneratedAt: r.now().UTC().Format(timestampLayout),
	}
	if data.Comment != "" {
		data.CommentHTML = r.commentHTML(data.Comment)
	}

	var htmlBody bytes.Buffer
	if err := r.html.ExecuteTemplate(&htmlBody, name, data); err != nil {
		return Rendered{}, fmt.Errorf("renderer: execute %s: %w", name, err)
	}
	var textBody bytes.Buffer
	if err := r.text.ExecuteTemplate(&textBody, "text", data); err != nil {
		return Rendered{}, fmt.Errorf("renderer: execute text: %w", err)
	}

	return Rendered{
		Subject: data.Subject,
		HTML:    htmlBody.String(),
		Text:    strings.TrimSpace(textBody.String()) + "\n",
	}, nil
}

func (r *Renderer) commentHTML(content string) template.HTML {
	rendered, err := r.markdown.ToHTMLSanitized(content)
	if err != nil {
		// Fall back to escaped plain text.
		return template.HTML("<p>" + template.HTMLEscapeString(content) + "</p>")
	}
	return template.HTML(rendered)
}

func (r *Renderer) ticketURL(ticketID string) string {
	if r.appURL == "" || strings.TrimSpace(ticketID) == "" {
		return ""
	}
	return r.appURL + "/tickets/" + url.PathEscape(ticketID)
}

func templateName(kind models.NotificationKind) (string, error) {
	switch kind {
	case models.KindStatusChange, models.KindAssigneeChange, models.KindComment, models.KindMention:
		return string(kind) + ".html", nil
	default:
		return "", fmt.Errorf("renderer: unknown notification kind %q", kind)
	}
}

func subjectFor(input RenderInput) string {
	title := fallback(input.Ticket.Title, input.Ticket.ID)
	switch input.Kind {
	case models.KindStatusChange:
		return fmt.Sprintf("[ReleaseTrack] %s: status changed to %s", title, fallback(input.NewValue, "None"))
	case models.KindAssigneeChange:
		return fmt.Sprintf("[ReleaseTrack] %s: assigned to %s", title, fallback(input.NewValue, "nobody"))
	case models.KindMention:
		return fmt.Sprintf("[ReleaseTrack] %s mentioned you on %s", fallback(input.Actor, "Someone"), title)
	default:
		return fmt.Sprintf("[ReleaseTrack] New comment on %s", title)
	}
}

func headingFor(input RenderInput) string {
	switch input.Kind {
	case models.KindStatusChange:
		return "Ticket status updated"
	case models.KindAssigneeChange:
		return "Ticket reassigned"
	case models.KindMention:
		return "You were mentioned"
	default:
		return "New comment"
	}
}

func fallback(value, def string) string {
	if trimmed := strings.TrimSpace(value); trimmed != "" {
		return trimmed
	}
	return def
}
