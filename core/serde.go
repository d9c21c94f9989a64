package core

import (
	"encoding/json"
	"fmt"

	"github.com/bndr/gotabulate"
)

var entryHeaders = []string{"component", "method", "return type"}

// Render prints the registered methods to invoke as a grid table.
func (r *Registry) Render() string {
	return RenderEntries(r.List())
}

// RenderEntries prints entries as a grid table.
func RenderEntries(entries []Entry) string {
	if len(entries) == 0 {
		return "<no methods to invoke>"
	}
	rows := make([][]any, 0, len(entries))
	for _, entry := range entries {
		rows = append(rows, []any{entry.Component, entry.Method, entry.ReturnType().Name()})
	}
	t := gotabulate.Create(rows)
	t.SetHeaders(entryHeaders)
	t.SetAlign("left")
	return t.Render("grid")
}

// String implements fmt.Stringer.
func (e Entry) String() string {
	return fmt.Sprintf("(%s, %s, %s)", e.Component, e.Method, e.ReturnType())
}

// PrettyTable prints the result as a two column grid table.
func (res *Result) PrettyTable() string {
	if res == nil {
		return "<>"
	}
	rows := [][]any{
		{"invocation_id", res.InvocationID.String()},
		{"component", res.Component},
		{"method", res.Method},
		{"return_type", res.ReturnType.Name()},
		{"value", fmt.Sprintf("%v", res.Value)},
		{"duration", res.Duration.String()},
	}
	t := gotabulate.Create(rows)
	t.SetHeaders([]string{"attr", "value"})
	t.SetAlign("left")
	t.SetWrapStrings(true)
	t.SetMaxCellSize(85)
	return t.Render("grid")
}

// PrettyJson prints the result as JSON, optionally indented
func (res *Result) PrettyJson(indent ...string) string {
	var b []byte
	var err error
	if len(indent) > 0 {
		b, err = json.MarshalIndent(res, "", indent[0])
	} else {
		b, err = json.Marshal(res)
	}
	if err != nil {
		return fmt.Sprintf("failed to marshal JSON: %v", err)
	}
	return string(b)
}
