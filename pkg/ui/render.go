package ui

import (
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/go-go-golems/docchat/pkg/conversation"
	"github.com/muesli/reflow/wordwrap"
	"github.com/rs/zerolog/log"
)

// renderer turns message contents into terminal text. Markdown goes through
// glamour, everything else is word wrapped.
type renderer struct {
	style string
	width int
	term  *glamour.TermRenderer
}

func newRenderer(style string) *renderer {
	if style == "" {
		style = "dark"
	}
	return &renderer{style: style}
}

func (r *renderer) setWidth(width int) {
	if width < 10 {
		width = 10
	}
	if width == r.width && r.term != nil {
		return
	}
	r.width = width
	term, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(r.style),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		log.Warn().Err(err).Msg("could not create markdown renderer")
		r.term = nil
		return
	}
	r.term = term
}

func (r *renderer) plain(content string) string {
	return wordwrap.String(content, r.width)
}

func (r *renderer) render(content string) string {
	if r.term == nil || !conversation.ContainsMarkdown(content) {
		return r.plain(content)
	}
	out, err := r.term.Render(content)
	if err != nil {
		log.Debug().Err(err).Msg("markdown rendering failed, falling back to plain text")
		return r.plain(content)
	}
	return strings.Trim(out, "\n")
}
