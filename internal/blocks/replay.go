package blocks

import (
	"encoding/json"
	"sort"
)

// ParagraphRecord is a paragraph together with the headers active when it
// occurred.
type ParagraphRecord struct {
	Index   int            `json:"index"`
	Text    string         `json:"paragraph"`
	Headers map[int]string `json:"headers"`
}

// Levels returns the header levels of the record in ascending order.
func (p ParagraphRecord) Levels() []int {
	levels := make([]int, 0, len(p.Headers))
	for l := range p.Headers {
		levels = append(levels, l)
	}
	sort.Ints(levels)
	return levels
}

// MarshalJSON flattens headers into header_N keys next to index and text.
func (p ParagraphRecord) MarshalJSON() ([]byte, error) {
	out := map[string]interface{}{
		"index":     p.Index,
		"paragraph": p.Text,
	}
	for level, text := range p.Headers {
		out[HeaderKey(level)] = text
	}
	return json.Marshal(out)
}

// Replay walks blocks in order and returns one record per paragraph.
//
// A header at level L becomes the active header for L and clears every
// active header deeper than L; headers at levels up to L stay active.
// Paragraph indexes count paragraphs only, starting at 0. Levels are taken
// as given, so a header_0 clears every numbered level above it.
func Replay(blocks []Block) []ParagraphRecord {
	records := make([]ParagraphRecord, 0, len(blocks))
	current := make(map[int]string)
	index := 0

	for _, b := range blocks {
		switch b.Kind {
		case KindHeader:
			level := b.Level
			current[level] = b.Text
			for l := range current {
				if l > level {
					delete(current, l)
				}
			}
		case KindParagraph:
			snapshot := make(map[int]string, len(current))
			for l, text := range current {
				snapshot[l] = text
			}
			records = append(records, ParagraphRecord{
				Index:   index,
				Text:    b.Text,
				Headers: snapshot,
			})
			index++
		}
	}
	return records
}

// HeaderAt returns the header at level recorded for the paragraph with the
// given index. It reports false when the index is unknown or the level was
// not active for that paragraph.
func HeaderAt(index int, records []ParagraphRecord, level int) (string, bool) {
	for _, r := range records {
		if r.Index == index {
			text, ok := r.Headers[level]
			return text, ok
		}
	}
	return "", false
}
