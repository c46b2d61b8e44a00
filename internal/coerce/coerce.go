// Package coerce normalises the many shapes a context cell arrives in
// (arrays, stringified lists, bare scalars, missing values) into a JSON array
// or null.
package coerce

import (
	"strings"

	"github.com/salmonumbrella/wikigap-cli/internal/jsonv"
)

// List returns v as an array, or null when v carries no value.
//
// Arrays are returned unchanged. Null and NaN become null. A string is parsed
// as a literal list ("['a', 'b']"); a parsed list becomes an array of its
// items, a parsed scalar becomes a one-item array of its text, and a string
// that does not parse becomes a one-item array holding the raw string. Any
// other value becomes a one-item array of its text.
func List(v jsonv.Value) jsonv.Value {
	switch v.Kind() {
	case jsonv.KindArray:
		return v
	case jsonv.KindNull:
		return jsonv.Null()
	case jsonv.KindNumber:
		if v.IsNaN() {
			return jsonv.Null()
		}
	case jsonv.KindString:
		raw, _ := v.AsString()
		return fromString(raw)
	}
	return jsonv.Strings(Text(v))
}

func fromString(raw string) jsonv.Value {
	parsed, err := parseLiteral(raw)
	if err != nil {
		return jsonv.Strings(raw)
	}
	if parsed.kind == litList {
		return parsed.toValue()
	}
	return jsonv.Strings(parsed.text())
}

// Text renders v in the literal form used by the annotation exports: strings
// verbatim, True/False/None for the JSON literals and bracketed, quoted
// elements for containers.
func Text(v jsonv.Value) string {
	return fromValue(v).text()
}

func fromValue(v jsonv.Value) lit {
	switch v.Kind() {
	case jsonv.KindBool:
		b, _ := v.AsBool()
		return lit{kind: litBool, b: b}
	case jsonv.KindNumber:
		if v.IsNaN() {
			return lit{kind: litFloat, num: "nan"}
		}
		n, _ := v.AsNumber()
		s := string(n)
		if strings.ContainsAny(s, ".eE") {
			if f, ok := v.AsFloat(); ok {
				return lit{kind: litFloat, num: reprFloat(f)}
			}
		}
		return lit{kind: litInt, num: s}
	case jsonv.KindString:
		s, _ := v.AsString()
		return lit{kind: litStr, str: s}
	case jsonv.KindArray:
		out := lit{kind: litList}
		for _, e := range v.Elems() {
			out.elems = append(out.elems, fromValue(e))
		}
		return out
	case jsonv.KindObject:
		out := lit{kind: litDict}
		for _, m := range v.Members() {
			out.keys = append(out.keys, lit{kind: litStr, str: m.Key})
			out.elems = append(out.elems, fromValue(m.Value))
		}
		return out
	default:
		return lit{kind: litNone}
	}
}
