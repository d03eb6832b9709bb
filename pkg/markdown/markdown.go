package markdown

import (
	"bytes"
	"fmt"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

// Renderer converts user-authored markdown (ticket comments) into HTML that is safe
// to embed in outbound email.
type Renderer interface {
	ToHTML(markdown string) (string, error)
	Sanitize(htmlContent string) string
	ToHTMLSanitized(markdown string) (string, error)
}

type renderer struct {
	md     goldmark.Markdown
	policy *bluemonday.Policy
}

// NewRenderer returns a GFM renderer paired with a UGC sanitisation policy.
func NewRenderer() Renderer {
	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			extension.Strikethrough,
			extension.Linkify,
		),
		goldmark.WithRendererOptions(
			html.WithHardWraps(),
			html.WithXHTML(),
		),
	)

	policy := bluemonday.UGCPolicy()
	policy.AllowAttrs("class").Matching(bluemonday.SpaceSeparatedTokens).OnElements("code", "pre")
	policy.RequireNoFollowOnLinks(true)

	return &renderer{md: md, policy: policy}
}

func (r *renderer) ToHTML(markdown string) (string, error) {
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(markdown), &buf); err != nil {
		return "", fmt.Errorf("markdown: convert: %w", err)
	}
	return buf.String(), nil
}

func (r *renderer) Sanitize(htmlContent string) string {
	return r.policy.Sanitize(htmlContent)
}

func (r *renderer) ToHTMLSanitized(markdown string) (string, error) {
	out, err := r.ToHTML(markdown)
	if err != nil {
		return "", err
	}
	return r.Sanitize(out), nil
}
