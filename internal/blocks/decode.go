package blocks

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
	"golang.org/x/text/unicode/norm"

	"github.com/salmonumbrella/wikigap-cli/internal/jsonv"
)

// DecodeJSON reads a pre-scraped block list: an array of objects, each with
// either a "header..." key or a "paragraph" key. Other objects are ignored.
func DecodeJSON(r io.Reader) ([]Block, error) {
	doc, err := jsonv.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("decode blocks: %w", err)
	}
	if doc.Kind() != jsonv.KindArray {
		return nil, fmt.Errorf("decode blocks: expected array, got %s", doc.Kind())
	}

	out := make([]Block, 0, doc.Len())
	for _, item := range doc.Elems() {
		if b, ok := blockFromItem(item); ok {
			out = append(out, b)
		}
	}
	return out, nil
}

func blockFromItem(item jsonv.Value) (Block, bool) {
	for _, m := range item.Members() {
		if strings.HasPrefix(m.Key, "header") {
			return Header(LevelKey(m.Key), m.Value.String()), true
		}
	}
	if p, ok := item.Get("paragraph"); ok {
		return Paragraph(p.String()), true
	}
	return Block{}, false
}

// EncodeJSON writes blocks in the pre-scraped list format.
func EncodeJSON(blocks []Block) jsonv.Value {
	items := make([]jsonv.Value, 0, len(blocks))
	for _, b := range blocks {
		key := "paragraph"
		if b.Kind == KindHeader {
			key = HeaderKey(b.Level)
		}
		items = append(items, jsonv.Object(jsonv.M(key, jsonv.String(b.Text))))
	}
	return jsonv.Array(items...)
}

// skippedClasses mark article chrome that never holds prose.
var skippedClasses = []string{
	"mw-editsection",
	"reference",
	"reflist",
	"navbox",
	"infobox",
	"hatnote",
}

// DecodeHTML extracts headers and paragraphs from a saved article page.
// The h1 page title is dropped and section headings shift up one level, so
// an h2 section becomes header level 1.
func DecodeHTML(r io.Reader) ([]Block, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	var out []Block
	collectHTMLBlocks(doc, &out)
	return out, nil
}

func collectHTMLBlocks(n *html.Node, out *[]Block) {
	if n.Type == html.ElementNode {
		if skipElement(n) {
			return
		}
		switch n.DataAtom {
		case atom.H1:
			return
		case atom.H2, atom.H3, atom.H4, atom.H5, atom.H6:
			if text := nodeText(n); text != "" {
				level := int(n.Data[1]-'0') - 1
				*out = append(*out, Header(level, text))
			}
			return
		case atom.P:
			if text := nodeText(n); text != "" {
				*out = append(*out, Paragraph(text))
			}
			return
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectHTMLBlocks(c, out)
	}
}

func skipElement(n *html.Node) bool {
	switch n.DataAtom {
	case atom.Script, atom.Style, atom.Noscript, atom.Nav, atom.Footer, atom.Table, atom.Sup:
		return true
	}
	for _, a := range n.Attr {
		if a.Key != "class" {
			continue
		}
		for _, cls := range strings.Fields(a.Val) {
			for _, skip := range skippedClasses {
				if cls == skip {
					return true
				}
			}
		}
	}
	return false
}

// nodeText returns the visible text below n, NFC normalised with runs of
// whitespace collapsed.
func nodeText(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
			return
		}
		if n.Type == html.ElementNode && skipElement(n) {
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return CleanText(sb.String())
}

// CleanText NFC-normalises s and collapses whitespace.
func CleanText(s string) string {
	return strings.Join(strings.Fields(norm.NFC.String(s)), " ")
}
