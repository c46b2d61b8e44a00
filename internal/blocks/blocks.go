// Package blocks replays article content blocks to recover the section
// headers that apply to each paragraph.
package blocks

import (
	"strconv"
	"strings"
)

// Kind distinguishes headers from paragraphs.
type Kind int

const (
	KindHeader Kind = iota
	KindParagraph
)

func (k Kind) String() string {
	if k == KindHeader {
		return "header"
	}
	return "paragraph"
}

// Block is one event of an article's linear content.
type Block struct {
	Kind  Kind   `json:"-"`
	Level int    `json:"level,omitempty"`
	Text  string `json:"text"`
}

// Header returns a header block at level.
func Header(level int, text string) Block {
	return Block{Kind: KindHeader, Level: level, Text: text}
}

// Paragraph returns a paragraph block.
func Paragraph(text string) Block {
	return Block{Kind: KindParagraph, Text: text}
}

// LevelKey returns the level encoded in a block key such as "header_2".
// Keys without a numeric suffix ("header", "header_x") are level 1.
func LevelKey(key string) int {
	_, suffix, ok := strings.Cut(key, "_")
	if !ok {
		return 1
	}
	if i := strings.IndexByte(suffix, '_'); i >= 0 {
		suffix = suffix[:i]
	}
	if suffix == "" {
		return 1
	}
	for _, r := range suffix {
		if r < '0' || r > '9' {
			return 1
		}
	}
	level, err := strconv.Atoi(suffix)
	if err != nil {
		return 1
	}
	return level
}

// HeaderKey returns the column name for a header level, e.g. "header_1".
func HeaderKey(level int) string {
	return "header_" + strconv.Itoa(level)
}
