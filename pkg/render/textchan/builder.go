// Package textchan renders captured content for a line-oriented text
// display. Markdown goes through glamour, layout and error styling
// through lipgloss, and plain text becomes coalescing chunks so bulk
// line output stays one accumulating block.
package textchan

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/aretw0/facet/pkg/block"
	"github.com/aretw0/facet/pkg/render"
	"github.com/aretw0/facet/pkg/view"
)

const defaultWidth = 80

var (
	errStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	traceStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// Builder implements the channel construction primitives over styled
// terminal text. Artifacts are strings, except plain text which is
// emitted as view.TextChunk for coalescing.
type Builder struct {
	markdown *glamour.TermRenderer
	width    int
	notify   func()
}

// Option configures a Builder.
type Option func(*Builder)

// WithWidth sets the wrap width for markdown and tables.
func WithWidth(w int) Option {
	return func(b *Builder) {
		if w > 0 {
			b.width = w
		}
	}
}

// WithNotify installs a callback fired when a live container changes
// after its first render. The hosting channel uses it to refresh.
func WithNotify(fn func()) Option {
	return func(b *Builder) { b.notify = fn }
}

// New creates a text-channel builder.
func New(opts ...Option) (*Builder, error) {
	b := &Builder{width: defaultWidth}
	for _, opt := range opts {
		opt(b)
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(b.width),
	)
	if err != nil {
		return nil, fmt.Errorf("textchan: init markdown renderer: %w", err)
	}
	b.markdown = r
	return b, nil
}

// DetectWidth returns the terminal width of f, or the default when f is
// not a terminal.
func DetectWidth(f *os.File) int {
	if !term.IsTerminal(int(f.Fd())) {
		return defaultWidth
	}
	w, _, err := term.GetSize(int(f.Fd()))
	if err != nil || w <= 0 {
		return defaultWidth
	}
	return w
}

func (b *Builder) Markup(s string) (render.Artifact, error) {
	out, err := b.markdown.Render(s)
	if err != nil {
		return nil, fmt.Errorf("textchan: render markdown: %w", err)
	}
	return strings.Trim(out, "\n"), nil
}

func (b *Builder) Plain(s string) (render.Artifact, error) {
	return view.TextChunk(s), nil
}

func (b *Builder) Block(ctx context.Context, r *render.Resolver, blk block.Block) (render.Artifact, error) {
	switch x := blk.(type) {
	case *block.Text:
		return view.TextChunk(x.Content), nil

	case *block.Markdown:
		return b.Markup(x.Content)

	case *block.Error:
		out := errStyle.Render("✗ " + x.Message)
		if x.Trace != "" {
			out += "\n" + traceStyle.Render(x.Trace)
		}
		return out, nil

	case *block.Group:
		arts, err := r.ResolveAll(ctx, x, x.Items)
		if err != nil {
			return nil, err
		}
		return b.Group(arts), nil

	case *block.Row:
		arts, err := r.ResolveAll(ctx, x, x.Items)
		if err != nil {
			return nil, err
		}
		parts := make([]string, len(arts))
		for i, a := range arts {
			parts[i] = Stringify(a)
		}
		return lipgloss.JoinHorizontal(lipgloss.Top, joinWithGaps(parts)...), nil

	case *block.Table:
		return b.Markup(tableMarkdown(x))

	default:
		return view.TextChunk(fmt.Sprint(blk)), nil
	}
}

func (b *Builder) Group(items []render.Artifact) render.Artifact {
	parts := make([]string, 0, len(items))
	for _, it := range items {
		parts = append(parts, Stringify(it))
	}
	return strings.Join(parts, "\n")
}

func (b *Builder) Container(region int64) render.Container {
	return &Container{notify: b.notify}
}

// Container is the text channel's live artifact group. The display holds
// a reference and re-reads it on refresh; mutations only grow or swap
// the child list.
type Container struct {
	mu       sync.Mutex
	children []render.Artifact
	rendered bool
	notify   func()
}

func (c *Container) Artifact() render.Artifact { return c }

func (c *Container) Append(child render.Artifact) {
	c.mu.Lock()
	c.children = append(c.children, child)
	fire := c.rendered
	c.mu.Unlock()
	if fire && c.notify != nil {
		c.notify()
	}
}

func (c *Container) Replace(children []render.Artifact) {
	c.mu.Lock()
	c.children = children
	fire := c.rendered
	c.rendered = true
	c.mu.Unlock()
	if fire && c.notify != nil {
		c.notify()
	}
}

func (c *Container) String() string {
	c.mu.Lock()
	children := make([]render.Artifact, len(c.children))
	copy(children, c.children)
	c.mu.Unlock()
	parts := make([]string, 0, len(children))
	for _, child := range children {
		parts = append(parts, Stringify(child))
	}
	return strings.Join(parts, "\n")
}

// Stringify flattens any text-channel artifact to display text.
func Stringify(artifact render.Artifact) string {
	switch v := artifact.(type) {
	case nil:
		return ""
	case string:
		return v
	case view.TextChunk:
		return string(v)
	case *view.TextBlock:
		return v.String()
	case fmt.Stringer:
		return v.String()
	case []render.Artifact:
		parts := make([]string, 0, len(v))
		for _, it := range v {
			parts = append(parts, Stringify(it))
		}
		return strings.Join(parts, "\n")
	default:
		return fmt.Sprint(v)
	}
}

// tableMarkdown serializes a table as a markdown table for glamour.
func tableMarkdown(t *block.Table) string {
	var sb strings.Builder
	sb.WriteString("| " + strings.Join(t.Columns, " | ") + " |\n")
	sb.WriteString("|" + strings.Repeat(" --- |", len(t.Columns)) + "\n")
	for _, row := range t.Rows {
		cells := make([]string, len(row))
		for i, cell := range row {
			cells[i] = fmt.Sprint(cell)
		}
		sb.WriteString("| " + strings.Join(cells, " | ") + " |\n")
	}
	return sb.String()
}

func joinWithGaps(parts []string) []string {
	out := make([]string, 0, len(parts)*2)
	for i, p := range parts {
		if i > 0 {
			out = append(out, "  ")
		}
		out = append(out, p)
	}
	return out
}
