// Package annotation turns annotation export documents into aligned row
// tables.
package annotation

// Field names read from annotation exports.
const (
	FieldFact                    = "fact"
	FieldFactAlignedSentence     = "fact_aligned_sentence"
	FieldSrcContext              = "src_context"
	FieldPersonName              = "person_name"
	FieldTgtContexts             = "tgt_contexts"
	FieldTgtFactAlignedSentences = "tgt_fact_aligned_sentences"
	FieldIntersectionLabel       = "intersection_label"
	FieldLanguage                = "language"
	FieldParagraphIndex          = "paragraph_index"
)

// Columns attached to rows after extraction.
const (
	FieldSourceFile        = "source_file"
	FieldHeader1           = "header_1"
	FieldHeader2           = "header_2"
	FieldHeader1Translated = "header_1_translated"
	FieldHeader2Translated = "header_2_translated"
	FieldFactTranslated    = "fact_translated"
)

// FieldSet is a set of field names.
type FieldSet map[string]struct{}

// NewFieldSet returns a set holding names.
func NewFieldSet(names ...string) FieldSet {
	s := make(FieldSet, len(names))
	for _, n := range names {
		s[n] = struct{}{}
	}
	return s
}

// DefaultFields returns the fields read from every annotation export.
func DefaultFields() FieldSet {
	return NewFieldSet(
		FieldFact,
		FieldFactAlignedSentence,
		FieldSrcContext,
		FieldPersonName,
		FieldTgtContexts,
		FieldTgtFactAlignedSentences,
		FieldIntersectionLabel,
		FieldLanguage,
		FieldParagraphIndex,
	)
}

// Has reports whether name is in the set.
func (s FieldSet) Has(name string) bool {
	_, ok := s[name]
	return ok
}
