package annotation

import "github.com/salmonumbrella/wikigap-cli/internal/jsonv"

// CellShape classifies the payload of a table cell.
type CellShape int

const (
	// ShapeScalar is any non-container value.
	ShapeScalar CellShape = iota
	// ShapeFlatList is a plain array.
	ShapeFlatList
	// ShapeWrapped is an object, normally {"values": [...]}.
	ShapeWrapped
	// ShapeDoubleWrapped is {"values": [{"values": [...]}, ...]}.
	ShapeDoubleWrapped
)

func (s CellShape) String() string {
	switch s {
	case ShapeFlatList:
		return "flat_list"
	case ShapeWrapped:
		return "wrapped"
	case ShapeDoubleWrapped:
		return "double_wrapped"
	default:
		return "scalar"
	}
}

// ShapeOf reports the shape of cell.
func ShapeOf(cell jsonv.Value) CellShape {
	switch cell.Kind() {
	case jsonv.KindArray:
		return ShapeFlatList
	case jsonv.KindObject:
		inner, ok := cell.Get("values")
		if !ok || inner.Kind() != jsonv.KindArray || inner.Len() == 0 {
			return ShapeWrapped
		}
		for _, item := range inner.Elems() {
			if nested, ok := item.Get("values"); !ok || nested.Kind() != jsonv.KindArray {
				return ShapeWrapped
			}
		}
		return ShapeDoubleWrapped
	default:
		return ShapeScalar
	}
}

// columnRole selects the unwrapping applied to a column.
type columnRole int

const (
	rolePlain columnRole = iota
	// roleSourceContext cells are unwrapped one level.
	roleSourceContext
	// roleTargetContexts cells are flattened across two levels.
	roleTargetContexts
)

func roleOf(column string) columnRole {
	switch column {
	case FieldSrcContext:
		return roleSourceContext
	case FieldTgtContexts, FieldTgtFactAlignedSentences:
		return roleTargetContexts
	default:
		return rolePlain
	}
}

// normalizeCell unwraps cell according to the column role and its shape.
func normalizeCell(role columnRole, cell jsonv.Value) jsonv.Value {
	shape := ShapeOf(cell)
	switch role {
	case roleSourceContext:
		switch shape {
		case ShapeWrapped, ShapeDoubleWrapped:
			if inner, ok := cell.Get("values"); ok {
				return inner
			}
		}
		return cell
	case roleTargetContexts:
		switch shape {
		case ShapeWrapped, ShapeDoubleWrapped:
			return flattenWrapped(cell)
		}
		return cell
	default:
		return cell
	}
}

// flattenWrapped concatenates the inner "values" lists of a wrapped cell.
// Items without a values list contribute nothing.
func flattenWrapped(cell jsonv.Value) jsonv.Value {
	inner, _ := cell.Get("values")
	flat := []jsonv.Value{}
	for _, item := range inner.Elems() {
		nested, ok := item.Get("values")
		if !ok {
			continue
		}
		flat = append(flat, nested.Elems()...)
	}
	return jsonv.Array(flat...)
}
