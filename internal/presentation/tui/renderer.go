// Package tui renders pages for the terminal runner.
package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/muesli/termenv"
)

// Renderer writes pages to a terminal, markdown bodies through glamour,
// styling through termenv.
type Renderer struct {
	out      io.Writer
	output   *termenv.Output
	markdown *glamour.TermRenderer
}

// NewRenderer creates a renderer on the given writer.
func NewRenderer(out io.Writer) *Renderer {
	md, _ := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
	)
	return &Renderer{
		out:      out,
		output:   termenv.NewOutput(out),
		markdown: md,
	}
}

// PageView is what the runner passes in per page.
type PageView struct {
	Title       string
	Subtitle    string
	Body        string
	Path        []int
	CanForward  bool
	CanBackward bool
}

// Page renders one page with a status line underneath.
func (r *Renderer) Page(view PageView) {
	fmt.Fprintln(r.out)
	fmt.Fprintln(r.out, r.output.String(view.Title).Bold())
	if view.Subtitle != "" {
		fmt.Fprintln(r.out, r.output.String(view.Subtitle).Faint())
	}
	if view.Body != "" {
		rendered, err := r.markdown.Render(view.Body)
		if err != nil {
			rendered = view.Body
		}
		fmt.Fprint(r.out, rendered)
	}
	fmt.Fprintln(r.out, r.output.String(r.statusLine(view)).Faint())
}

// Blocked renders a gate refusal as corrective feedback.
func (r *Renderer) Blocked(reason string, hints []string) {
	fmt.Fprintln(r.out, r.output.String("✗ "+reason).Foreground(termenv.ANSIRed))
	for _, hint := range hints {
		fmt.Fprintln(r.out, r.output.String("  - "+hint).Foreground(termenv.ANSIYellow))
	}
}

func (r *Renderer) statusLine(view PageView) string {
	pos := make([]string, len(view.Path))
	for i, p := range view.Path {
		pos[i] = fmt.Sprintf("%d", p+1)
	}
	status := "position " + strings.Join(pos, ".")
	if view.CanBackward {
		status += "  [back available]"
	}
	if view.CanForward {
		status += "  [next available]"
	}
	return status
}
