package models

import (
	"sort"
	"strings"
)

// Note is a disclosure note attached to the financial statements
type Note struct {
	ID    string `json:"id" yaml:"id"`
	Title string `json:"title,omitempty" yaml:"title,omitempty"`
	Text  string `json:"text" yaml:"text"`
}

// Notes is an ordered note snapshot
type Notes []Note

// NotesFromMap converts a note_id -> note mapping into a slice ordered by note id,
// so every engine walks notes in the same order
func NotesFromMap(m map[string]Note) Notes {
	out := make(Notes, 0, len(m))
	for id, n := range m {
		if n.ID == "" {
			n.ID = id
		}
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ID < out[j].ID
	})
	return out
}

// TextPrefix returns at most limit bytes of the note text.
// The cut never splits a UTF-8 sequence.
func (n Note) TextPrefix(limit int) string {
	if limit <= 0 || len(n.Text) <= limit {
		return n.Text
	}
	cut := limit
	for cut > 0 && !isRuneStart(n.Text[cut]) {
		cut--
	}
	return n.Text[:cut]
}

// LowerPrefix returns the lower-cased note text capped at limit bytes
func (n Note) LowerPrefix(limit int) string {
	return strings.ToLower(n.TextPrefix(limit))
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}
