package block

import "fmt"

// Serialize converts a block tree to a JSON-friendly map for structured
// clients (the HTTP surface). Unknown block types serialize as their
// string form.
func Serialize(b Block) map[string]any {
	switch x := b.(type) {
	case *Text:
		return map[string]any{"type": "text", "content": x.Content}
	case *Markdown:
		return map[string]any{"type": "markdown", "content": x.Content}
	case *Error:
		out := map[string]any{"type": "error", "message": x.Message}
		if x.Trace != "" {
			out["trace"] = x.Trace
		}
		return out
	case *Group:
		return map[string]any{"type": "group", "items": serializeItems(x.Items)}
	case *Row:
		return map[string]any{"type": "row", "items": serializeItems(x.Items)}
	case *Table:
		rows := make([][]any, len(x.Rows))
		for i, r := range x.Rows {
			row := make([]any, len(r))
			for j, c := range r {
				row[j] = fmt.Sprint(c)
			}
			rows[i] = row
		}
		return map[string]any{"type": "table", "columns": x.Columns, "rows": rows}
	case *Dynamic:
		return map[string]any{"type": "dynamic", "region": x.Region()}
	default:
		return map[string]any{"type": "text", "content": fmt.Sprint(b)}
	}
}

func serializeItems(items []any) []any {
	out := make([]any, 0, len(items))
	for _, it := range items {
		out = append(out, Serialize(Coerce(it)))
	}
	return out
}
