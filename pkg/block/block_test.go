package block

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCoerce_TotalFunction(t *testing.T) {
	cases := []struct {
		name string
		in   any
		want string // concrete type name
	}{
		{"nil becomes empty text", nil, "*block.Text"},
		{"string becomes markdown", "# hi", "*block.Markdown"},
		{"int becomes text", 42, "*block.Text"},
		{"struct becomes text", struct{ A int }{1}, "*block.Text"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Coerce(tc.in)
			require.NotNil(t, got)
			assert.Equal(t, tc.want, typeName(got))
		})
	}
}

func typeName(b Block) string {
	switch b.(type) {
	case *Text:
		return "*block.Text"
	case *Markdown:
		return "*block.Markdown"
	default:
		return "other"
	}
}

func TestCoerce_BlockIsFixedPoint(t *testing.T) {
	b := &Text{Content: "x"}
	once := Coerce(b)
	twice := Coerce(once)
	assert.Same(t, b, once)
	assert.Same(t, once, twice)
}

func TestCoerce_NilYieldsEmptyText(t *testing.T) {
	b := Coerce(nil)
	txt, ok := b.(*Text)
	require.True(t, ok)
	assert.Equal(t, "", txt.Content)
}

func TestAdopt_ParentLinkSetOnce(t *testing.T) {
	parent1 := &Group{}
	parent2 := &Group{}
	child := &Text{Content: "c"}

	Adopt(parent1, child)
	Adopt(parent2, child)

	// First attachment wins; re-attachment is ignored.
	assert.Same(t, Block(parent1), child.Parent())
	require.Len(t, parent1.Children(), 1)
}

func TestAdopt_ChildrenKeepOrder(t *testing.T) {
	parent := &Group{}
	a := &Text{Content: "a"}
	b := &Text{Content: "b"}
	Adopt(parent, a)
	Adopt(parent, b)

	kids := parent.Children()
	require.Len(t, kids, 2)
	assert.Same(t, Block(a), kids[0])
	assert.Same(t, Block(b), kids[1])
}

func TestDynamic_RegionIdentityIsStable(t *testing.T) {
	d1 := NewDynamic(nil)
	d2 := NewDynamic(nil)
	assert.NotEqual(t, d1.Region(), d2.Region())
	assert.Equal(t, d1.Region(), d1.Region())
}

func TestSerialize_Shapes(t *testing.T) {
	got := Serialize(&Group{Items: []any{"# title", &Text{Content: "plain"}}})
	assert.Equal(t, "group", got["type"])
	items := got["items"].([]any)
	require.Len(t, items, 2)
	assert.Equal(t, "markdown", items[0].(map[string]any)["type"])
	assert.Equal(t, "text", items[1].(map[string]any)["type"])

	tbl := Serialize(&Table{Columns: []string{"a"}, Rows: [][]any{{1}}})
	assert.Equal(t, "table", tbl["type"])
}
