package nest

import "github.com/salmonumbrella/wikigap-cli/internal/jsonv"

// FactRow is one flattened entry of a document.
type FactRow struct {
	Entity              string      `json:"entity"`
	Lang                string      `json:"lang"`
	Header              string      `json:"header"`
	Original            jsonv.Value `json:"original"`
	Translated          jsonv.Value `json:"translated"`
	FactAlignedSentence jsonv.Value `json:"fact_aligned_sentence"`
	SrcContext          jsonv.Value `json:"src_context"`
}

// Facts flattens the entries of entity (or of every entity when entity is
// empty) in document order.
func (d *Document) Facts(entity string) []FactRow {
	var out []FactRow
	for _, e := range d.Entities {
		if entity != "" && e.Name != entity {
			continue
		}
		for _, l := range e.Languages {
			for _, s := range l.Sections {
				for _, entry := range s.Entries {
					out = append(out, FactRow{
						Entity:              e.Name,
						Lang:                l.Code,
						Header:              s.Header,
						Original:            entry.Fact.Original,
						Translated:          entry.Fact.Translated,
						FactAlignedSentence: entry.Fact.FactAlignedSentence,
						SrcContext:          entry.SrcContext,
					})
				}
			}
		}
	}
	return out
}
