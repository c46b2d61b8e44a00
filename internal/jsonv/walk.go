package jsonv

// Visitor is called for every node of a tree.
type Visitor interface {
	Visit(v Value)
}

// VisitorFunc adapts a function to a Visitor.
type VisitorFunc func(v Value)

// Visit calls f(v).
func (f VisitorFunc) Visit(v Value) { f(v) }

// Walk visits v and then, depth first, every element or member value below
// it. Array elements and object members are visited in order.
func Walk(v Value, visitor Visitor) {
	visitor.Visit(v)
	switch v.kind {
	case KindArray:
		for _, e := range v.arr {
			Walk(e, visitor)
		}
	case KindObject:
		for _, m := range v.obj {
			Walk(m.Value, visitor)
		}
	}
}
