package annotation

import "github.com/salmonumbrella/wikigap-cli/internal/jsonv"

// Extracted holds the value lists found for each target field.
type Extracted struct {
	order  []string
	values map[string][]jsonv.Value
}

// Names returns the extracted field names in first-seen order.
func (e Extracted) Names() []string { return e.order }

// Values returns the value list recorded for name.
func (e Extracted) Values(name string) ([]jsonv.Value, bool) {
	v, ok := e.values[name]
	return v, ok
}

// Len returns the number of extracted fields.
func (e Extracted) Len() int { return len(e.order) }

// MaxLen returns the length of the longest value list, 0 when empty.
func (e Extracted) MaxLen() int {
	max := 0
	for _, vals := range e.values {
		if len(vals) > max {
			max = len(vals)
		}
	}
	return max
}

func (e *Extracted) set(name string, vals []jsonv.Value) {
	if e.values == nil {
		e.values = make(map[string][]jsonv.Value)
	}
	if _, ok := e.values[name]; !ok {
		e.order = append(e.order, name)
	}
	e.values[name] = vals
}

// Extract walks tree and records, for every object whose "name" member is
// one of targets and which has a "values" member, the values under that
// name.
//
// When several objects carry the same name the one visited last (in
// document order) replaces the earlier ones. Names that never appear are
// absent from the result.
func Extract(tree jsonv.Value, targets FieldSet) Extracted {
	var ex Extracted
	jsonv.Walk(tree, jsonv.VisitorFunc(func(node jsonv.Value) {
		if node.Kind() != jsonv.KindObject {
			return
		}
		nameVal, ok := node.Get("name")
		if !ok {
			return
		}
		name, ok := nameVal.AsString()
		if !ok || !targets.Has(name) {
			return
		}
		values, ok := node.Get("values")
		if !ok {
			return
		}
		ex.set(name, valueList(values))
	}))
	return ex
}

// valueList turns a "values" payload into a column. Arrays are used as is;
// null is an empty column and any other payload a single cell.
func valueList(v jsonv.Value) []jsonv.Value {
	switch v.Kind() {
	case jsonv.KindArray:
		out := make([]jsonv.Value, len(v.Elems()))
		copy(out, v.Elems())
		return out
	case jsonv.KindNull:
		return []jsonv.Value{}
	default:
		return []jsonv.Value{v}
	}
}
