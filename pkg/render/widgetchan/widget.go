// Package widgetchan renders captured content into a retained widget
// tree. Nodes stay alive after resolution so streaming producers and
// dynamic regions can mutate them in place; every mutation goes through
// the display surface's Update to stay on the UI goroutine.
package widgetchan

import (
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

// Kind discriminates widget node types.
type Kind int

const (
	KindText Kind = iota
	KindMarkup
	KindError
	KindGroup
	KindRow
	KindTable
	KindContainer
)

var (
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	traceStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	headStyle  = lipgloss.NewStyle().Bold(true).Underline(true)
	cellStyle  = lipgloss.NewStyle().PaddingRight(2)
)

// Node is one retained widget. Leaf kinds carry Text (markup nodes hold
// pre-rendered terminal text); composite kinds carry children. Container
// nodes are mutable after resolution, everything else is written once.
type Node struct {
	Kind Kind

	mu       sync.Mutex
	text     string
	trace    string
	columns  []string
	cells    [][]string
	children []*Node
}

// Text returns the node's display text.
func (n *Node) Text() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.text
}

// Children returns a snapshot of the node's children.
func (n *Node) Children() []*Node {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]*Node, len(n.children))
	copy(out, n.children)
	return out
}

func (n *Node) setChildren(children []*Node) {
	n.mu.Lock()
	n.children = children
	n.mu.Unlock()
}

func (n *Node) addChild(child *Node) {
	n.mu.Lock()
	n.children = append(n.children, child)
	n.mu.Unlock()
}

// View renders the widget subtree to terminal text.
func (n *Node) View() string {
	switch n.Kind {
	case KindText, KindMarkup:
		return n.Text()

	case KindError:
		n.mu.Lock()
		text, trace := n.text, n.trace
		n.mu.Unlock()
		out := errorStyle.Render("✗ " + text)
		if trace != "" {
			out += "\n" + traceStyle.Render(trace)
		}
		return out

	case KindRow:
		parts := viewChildren(n.Children())
		spaced := make([]string, 0, len(parts)*2)
		for i, p := range parts {
			if i > 0 {
				spaced = append(spaced, "  ")
			}
			spaced = append(spaced, p)
		}
		return lipgloss.JoinHorizontal(lipgloss.Top, spaced...)

	case KindTable:
		return n.viewTable()

	default: // KindGroup, KindContainer
		parts := viewChildren(n.Children())
		if len(parts) == 0 {
			return ""
		}
		return lipgloss.JoinVertical(lipgloss.Left, parts...)
	}
}

func (n *Node) viewTable() string {
	n.mu.Lock()
	columns := n.columns
	cells := n.cells
	n.mu.Unlock()

	widths := make([]int, len(columns))
	for i, col := range columns {
		widths[i] = lipgloss.Width(col)
	}
	for _, row := range cells {
		for i, cell := range row {
			if i < len(widths) && lipgloss.Width(cell) > widths[i] {
				widths[i] = lipgloss.Width(cell)
			}
		}
	}

	var sb strings.Builder
	for i, col := range columns {
		sb.WriteString(cellStyle.Render(headStyle.Render(pad(col, widths[i]))))
	}
	for _, row := range cells {
		sb.WriteByte('\n')
		for i, cell := range row {
			w := 0
			if i < len(widths) {
				w = widths[i]
			}
			sb.WriteString(cellStyle.Render(pad(cell, w)))
		}
	}
	return sb.String()
}

func pad(s string, width int) string {
	if gap := width - lipgloss.Width(s); gap > 0 {
		return s + strings.Repeat(" ", gap)
	}
	return s
}

func viewChildren(children []*Node) []string {
	parts := make([]string, 0, len(children))
	for _, c := range children {
		parts = append(parts, c.View())
	}
	return parts
}
