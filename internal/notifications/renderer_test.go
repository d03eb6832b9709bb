package notifications

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/charlesng35/releasetrack/internal/models"
)

func newTestRenderer(t *testing.T, appURL string) *Renderer {
	t.Helper()
	renderer, err := NewRenderer(RendererOptions{AppURL: appURL, Now: fixedNow})
	require.NoError(t, err)
	return renderer
}

func TestRendererStatusChange(t *testing.T) {
	renderer := newTestRenderer(t, "https://releasetrack.example.com/")

	out, err := renderer.Render(RenderInput{
		Kind:     models.KindStatusChange,
		Ticket:   models.Ticket{BaseModel: models.BaseModel{ID: "T1"}, Title: "Login broken"},
		Actor:    "Ana Tester",
		OldValue: "Open",
		NewValue: "Released",
	})
	require.NoError(t, err)
	require.Equal(t, "[ReleaseTrack] Login broken: status changed to Released", out.Subject)
	require.Contains(t, out.HTML, "T1")
	require.Contains(t, out.HTML, "Login broken")
	require.Contains(t, out.HTML, "Open")
	require.Contains(t, out.HTML, "Released")
	require.Contains(t, out.HTML, "Ana Tester")
	require.Contains(t, out.HTML, "https://releasetrack.example.com/tickets/T1")
	require.Contains(t, out.HTML, "2024-05-01 12:00 UTC")
	require.Contains(t, out.Text, "Previous: Open")
	require.Contains(t, out.Text, "New: Released")
}

func TestRendererIsDeterministic(t *testing.T) {
	renderer := newTestRenderer(t, "")
	input := RenderInput{
		Kind:     models.KindAssigneeChange,
		Ticket:   models.Ticket{BaseModel: models.BaseModel{ID: "T1"}, Title: "Export"},
		Actor:    "Ana",
		OldValue: "Ben",
		NewValue: "Cy",
	}

	first, err := renderer.Render(input)
	require.NoError(t, err)
	second, err := renderer.Render(input)
	require.NoError(t, err)
	require.Equal(t, first, second)
	require.NotContains(t, first.HTML, "View ticket")
}

func TestRendererEscapesTicketFields(t *testing.T) {
	renderer := newTestRenderer(t, "")

	out, err := renderer.Render(RenderInput{
		Kind:     models.KindStatusChange,
		Ticket:   models.Ticket{BaseModel: models.BaseModel{ID: "T1"}, Title: "<script>alert(1)</script>"},
		NewValue: "Released",
	})
	require.NoError(t, err)
	require.NotContains(t, out.HTML, "<script>alert(1)</script>")
	require.Contains(t, out.HTML, "&lt;script&gt;")
}

func TestRendererCommentRendersMarkdown(t *testing.T) {
	renderer := newTestRenderer(t, "")

	out, err := renderer.Render(RenderInput{
		Kind:    models.KindMention,
		Ticket:  models.Ticket{BaseModel: models.BaseModel{ID: "T1"}, Title: "Export"},
		Actor:   "Ana",
		Comment: "Please check **this** <img src=x onerror=alert(1)>",
	})
	require.NoError(t, err)
	require.Equal(t, "[ReleaseTrack] Ana mentioned you on Export", out.Subject)
	require.Contains(t, out.HTML, "<strong>this</strong>")
	require.NotContains(t, out.HTML, "onerror")
	require.Contains(t, out.Text, "Please check **this**")
}

func TestRendererPlaceholders(t *testing.T) {
	renderer := newTestRenderer(t, "")

	out, err := renderer.Render(RenderInput{
		Kind:   models.KindComment,
		Ticket: models.Ticket{BaseModel: models.BaseModel{ID: "T9"}},
	})
	require.NoError(t, err)
	require.Equal(t, "[ReleaseTrack] New comment on T9", out.Subject)
	require.Contains(t, out.HTML, "Someone")
	require.Contains(t, out.HTML, "(untitled)")
}

func TestRendererRejectsUnknownKind(t *testing.T) {
	renderer := newTestRenderer(t, "")

	_, err := renderer.Render(RenderInput{Kind: "digest"})
	require.Error(t, err)
}
