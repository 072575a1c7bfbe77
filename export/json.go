package export

import (
	"encoding/json"
	"io"
)

// WriteJSON writes {"<name>": [row, ...], ...} with two-space indentation.
func WriteJSON(w io.Writer, tables []Table) error {
	out := make(map[string][]map[string]interface{}, len(tables))
	for _, t := range tables {
		out[t.Name] = t.Rows
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
