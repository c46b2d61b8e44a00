// Package nest folds enriched annotation rows into the entity, language and
// header document consumed by the extension.
package nest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/salmonumbrella/wikigap-cli/internal/jsonv"
)

// DefaultHeader groups entries whose row has no level-1 header.
const DefaultHeader = "General description"

// Pair holds an original text and its translation.
type Pair struct {
	Original   jsonv.Value `json:"original"`
	Translated jsonv.Value `json:"translated"`
}

// Fact is the fact part of an entry.
type Fact struct {
	Original            jsonv.Value `json:"original"`
	Translated          jsonv.Value `json:"translated"`
	FactAlignedSentence jsonv.Value `json:"fact_aligned_sentence"`
	WikiLink            string      `json:"wiki_link"`
}

// Entry is one fact with its header context.
type Entry struct {
	Header2                 Pair        `json:"header_2"`
	Header1                 Pair        `json:"header_1"`
	Fact                    Fact        `json:"fact"`
	SrcContext              jsonv.Value `json:"src_context"`
	TgtFactAlignedSentences jsonv.Value `json:"tgt_fact_aligned_sentences"`
}

// Section is the list of entries grouped under one level-1 header.
type Section struct {
	Header  string
	Entries []Entry
}

// Language holds the sections of one entity in one language, in the order
// their headers were first seen.
type Language struct {
	Code     string
	Sections []*Section

	index map[string]int
}

// Section returns the section for header, if present.
func (l *Language) Section(header string) (*Section, bool) {
	i, ok := l.index[header]
	if !ok {
		return nil, false
	}
	return l.Sections[i], true
}

func (l *Language) section(header string) *Section {
	if s, ok := l.Section(header); ok {
		return s
	}
	if l.index == nil {
		l.index = make(map[string]int)
	}
	l.index[header] = len(l.Sections)
	s := &Section{Header: header}
	l.Sections = append(l.Sections, s)
	return s
}

// Entity holds every language of one entity.
type Entity struct {
	Name      string
	Languages []*Language

	index map[string]int
}

// Language returns the language with code, if present.
func (e *Entity) Language(code string) (*Language, bool) {
	i, ok := e.index[code]
	if !ok {
		return nil, false
	}
	return e.Languages[i], true
}

func (e *Entity) language(code string) *Language {
	if l, ok := e.Language(code); ok {
		return l
	}
	if e.index == nil {
		e.index = make(map[string]int)
	}
	e.index[code] = len(e.Languages)
	l := &Language{Code: code}
	e.Languages = append(e.Languages, l)
	return l
}

// Document is the nested output document. Every level keeps insertion
// order.
type Document struct {
	Entities []*Entity

	index map[string]int
}

// NewDocument returns an empty document.
func NewDocument() *Document {
	return &Document{index: make(map[string]int)}
}

// Entity returns the entity with name, if present.
func (d *Document) Entity(name string) (*Entity, bool) {
	i, ok := d.index[name]
	if !ok {
		return nil, false
	}
	return d.Entities[i], true
}

func (d *Document) entity(name string) *Entity {
	if e, ok := d.Entity(name); ok {
		return e
	}
	if d.index == nil {
		d.index = make(map[string]int)
	}
	d.index[name] = len(d.Entities)
	e := &Entity{Name: name}
	d.Entities = append(d.Entities, e)
	return e
}

// Append adds entry under entity, lang and header, creating the levels as
// needed.
func (d *Document) Append(entity, lang, header string, entry Entry) {
	s := d.entity(entity).language(lang).section(header)
	s.Entries = append(s.Entries, entry)
}

// Len returns the total number of entries.
func (d *Document) Len() int {
	n := 0
	for _, e := range d.Entities {
		for _, l := range e.Languages {
			for _, s := range l.Sections {
				n += len(s.Entries)
			}
		}
	}
	return n
}

// MarshalJSON implements json.Marshaler.
func (d *Document) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range d.Entities {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := jsonv.AppendString(&buf, e.Name); err != nil {
			return nil, err
		}
		buf.WriteString(`:{"languages":{`)
		for j, l := range e.Languages {
			if j > 0 {
				buf.WriteByte(',')
			}
			if err := jsonv.AppendString(&buf, l.Code); err != nil {
				return nil, err
			}
			buf.WriteString(`:{"headers":{`)
			for k, s := range l.Sections {
				if k > 0 {
					buf.WriteByte(',')
				}
				if err := jsonv.AppendString(&buf, s.Header); err != nil {
					return nil, err
				}
				buf.WriteString(`:{"entries":`)
				entries := s.Entries
				if entries == nil {
					entries = []Entry{}
				}
				data, err := marshalNoEscape(entries)
				if err != nil {
					return nil, err
				}
				buf.Write(data)
				buf.WriteByte('}')
			}
			buf.WriteString("}}")
		}
		buf.WriteString("}}")
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON implements json.Unmarshaler, keeping document order.
func (d *Document) UnmarshalJSON(data []byte) error {
	root, err := jsonv.Parse(data)
	if err != nil {
		return err
	}
	if root.Kind() != jsonv.KindObject {
		return fmt.Errorf("document: expected object, got %s", root.Kind())
	}
	out := NewDocument()
	for _, em := range root.Members() {
		entity := out.entity(em.Key)
		langs, _ := em.Value.Get("languages")
		for _, lm := range langs.Members() {
			lang := entity.language(lm.Key)
			headers, _ := lm.Value.Get("headers")
			for _, hm := range headers.Members() {
				section := lang.section(hm.Key)
				entries, _ := hm.Value.Get("entries")
				for i, ev := range entries.Elems() {
					raw, err := ev.MarshalJSON()
					if err != nil {
						return err
					}
					var entry Entry
					if err := json.Unmarshal(raw, &entry); err != nil {
						return fmt.Errorf("document: %s/%s/%s entry %d: %w", em.Key, lm.Key, hm.Key, i, err)
					}
					section.Entries = append(section.Entries, entry)
				}
			}
		}
	}
	*d = *out
	return nil
}

func marshalNoEscape(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// Encode writes doc as UTF-8 JSON indented by four spaces. Non-ASCII and
// HTML characters are written as is.
func Encode(w io.Writer, doc *Document) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	return enc.Encode(doc)
}

// Decode reads a document written by Encode.
func Decode(r io.Reader) (*Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	doc := NewDocument()
	if err := doc.UnmarshalJSON(data); err != nil {
		return nil, err
	}
	return doc, nil
}
