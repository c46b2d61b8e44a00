package cmd

import (
	"strings"

	"github.com/salmonumbrella/wikigap-cli/internal/blocks"
)

// outlineNode is a header with the headers and paragraphs nested below it,
// or a paragraph leaf.
type outlineNode struct {
	Kind     string         `json:"kind"`
	Level    int            `json:"level,omitempty"`
	Text     string         `json:"text"`
	Children []*outlineNode `json:"children,omitempty"`
}

// buildOutline nests a flat block list by header level. A header closes every
// open header at its level or deeper; a paragraph attaches to the innermost
// open header. Paragraphs before the first header stay at the top level.
func buildOutline(list []blocks.Block) []*outlineNode {
	var roots []*outlineNode
	var stack []*outlineNode

	attach := func(node *outlineNode) {
		if len(stack) == 0 {
			roots = append(roots, node)
			return
		}
		parent := stack[len(stack)-1]
		parent.Children = append(parent.Children, node)
	}

	for _, b := range list {
		if b.Kind == blocks.KindParagraph {
			attach(&outlineNode{Kind: b.Kind.String(), Text: b.Text})
			continue
		}

		level := b.Level
		if level <= 0 {
			level = 1
		}
		node := &outlineNode{Kind: b.Kind.String(), Level: level, Text: b.Text}
		for len(stack) > 0 && stack[len(stack)-1].Level >= level {
			stack = stack[:len(stack)-1]
		}
		attach(node)
		stack = append(stack, node)
	}
	return roots
}

// renderOutline writes nodes as an indented list, marking headers with '#'.
func renderOutline(sb *strings.Builder, nodes []*outlineNode, depth int) {
	indent := strings.Repeat("  ", depth)
	for _, n := range nodes {
		sb.WriteString(indent)
		if n.Kind == blocks.KindHeader.String() {
			sb.WriteString(strings.Repeat("#", n.Level))
			sb.WriteString(" ")
		} else {
			sb.WriteString("- ")
		}
		sb.WriteString(n.Text)
		sb.WriteString("\n")
		renderOutline(sb, n.Children, depth+1)
	}
}
