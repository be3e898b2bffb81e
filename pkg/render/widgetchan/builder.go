package widgetchan

import (
	"context"
	"fmt"

	"github.com/charmbracelet/glamour"

	"github.com/aretw0/facet/pkg/block"
	"github.com/aretw0/facet/pkg/ports"
	"github.com/aretw0/facet/pkg/render"
)

// Builder implements the channel construction primitives over retained
// widget nodes. Every artifact it produces is a *Node; container
// mutations are marshaled through the display surface.
type Builder struct {
	surface  ports.Surface
	markdown *glamour.TermRenderer
	notify   func()
}

// Option configures a Builder.
type Option func(*Builder)

// WithNotify installs a callback fired after a live container changes.
func WithNotify(fn func()) Option {
	return func(b *Builder) { b.notify = fn }
}

// New creates a widget-channel builder bound to a display surface.
func New(surface ports.Surface, width int, opts ...Option) (*Builder, error) {
	if width <= 0 {
		width = 80
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return nil, fmt.Errorf("widgetchan: init markdown renderer: %w", err)
	}
	b := &Builder{surface: surface, markdown: r}
	for _, opt := range opts {
		opt(b)
	}
	return b, nil
}

func (b *Builder) Markup(s string) (render.Artifact, error) {
	out, err := b.markdown.Render(s)
	if err != nil {
		return nil, fmt.Errorf("widgetchan: render markdown: %w", err)
	}
	return &Node{Kind: KindMarkup, text: trimNewlines(out)}, nil
}

func (b *Builder) Plain(s string) (render.Artifact, error) {
	return &Node{Kind: KindText, text: s}, nil
}

func (b *Builder) Block(ctx context.Context, r *render.Resolver, blk block.Block) (render.Artifact, error) {
	switch x := blk.(type) {
	case *block.Text:
		return &Node{Kind: KindText, text: x.Content}, nil

	case *block.Markdown:
		return b.Markup(x.Content)

	case *block.Error:
		return &Node{Kind: KindError, text: x.Message, trace: x.Trace}, nil

	case *block.Group:
		arts, err := r.ResolveAll(ctx, x, x.Items)
		if err != nil {
			return nil, err
		}
		return &Node{Kind: KindGroup, children: asNodes(arts)}, nil

	case *block.Row:
		arts, err := r.ResolveAll(ctx, x, x.Items)
		if err != nil {
			return nil, err
		}
		return &Node{Kind: KindRow, children: asNodes(arts)}, nil

	case *block.Table:
		cells := make([][]string, len(x.Rows))
		for i, row := range x.Rows {
			cells[i] = make([]string, len(row))
			for j, cell := range row {
				cells[i][j] = fmt.Sprint(cell)
			}
		}
		return &Node{Kind: KindTable, columns: x.Columns, cells: cells}, nil

	default:
		return &Node{Kind: KindText, text: fmt.Sprint(blk)}, nil
	}
}

func (b *Builder) Group(items []render.Artifact) render.Artifact {
	return &Node{Kind: KindGroup, children: asNodes(items)}
}

func (b *Builder) Container(region int64) render.Container {
	return &container{
		node:    &Node{Kind: KindContainer},
		surface: b.surface,
		notify:  b.notify,
	}
}

// container marshals node mutations through the display surface, then
// fires the change callback so the display re-renders.
type container struct {
	node    *Node
	surface ports.Surface
	notify  func()
}

func (c *container) Artifact() render.Artifact { return c.node }

func (c *container) Append(child render.Artifact) {
	c.surface.Update(func() {
		c.node.addChild(asNode(child))
	})
	if c.notify != nil {
		c.notify()
	}
}

func (c *container) Replace(children []render.Artifact) {
	c.surface.Update(func() {
		c.node.setChildren(asNodes(children))
	})
	if c.notify != nil {
		c.notify()
	}
}

func asNode(artifact render.Artifact) *Node {
	if n, ok := artifact.(*Node); ok {
		return n
	}
	return &Node{Kind: KindText, text: fmt.Sprint(artifact)}
}

func asNodes(artifacts []render.Artifact) []*Node {
	out := make([]*Node, 0, len(artifacts))
	for _, a := range artifacts {
		out = append(out, asNode(a))
	}
	return out
}

func trimNewlines(s string) string {
	for len(s) > 0 && s[0] == '\n' {
		s = s[1:]
	}
	for len(s) > 0 && s[len(s)-1] == '\n' {
		s = s[:len(s)-1]
	}
	return s
}
