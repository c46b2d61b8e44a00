package output

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/salmonumbrella/wikigap-cli/internal/jsonv"
)

// ApplyAgentOptions applies --result-limit, --result-sort-by and
// --result-desc to list output. Sort paths are dot separated and match json
// names, ignoring case, '_' and '-'.
func ApplyAgentOptions(ctx context.Context, data interface{}) interface{} {
	if data == nil {
		return data
	}

	limit := LimitFromContext(ctx)
	sortBy, desc := SortFromContext(ctx)
	if limit == 0 && sortBy == "" {
		return data
	}

	if jv, ok := data.(jsonv.Value); ok {
		if jv.Kind() != jsonv.KindArray {
			return data
		}
		return applyToValues(jv.Elems(), limit, sortBy, desc)
	}

	v := reflect.ValueOf(data)
	if v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return data
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Slice && v.Kind() != reflect.Array {
		return data
	}

	if updated := applyToSlice(v, limit, sortBy, desc); updated.IsValid() {
		return updated.Interface()
	}
	return data
}

func applyToValues(elems []jsonv.Value, limit int, sortBy string, desc bool) jsonv.Value {
	items := make([]interface{}, len(elems))
	for i, e := range elems {
		items[i] = e
	}
	sorted := applyToSlice(reflect.ValueOf(items), limit, sortBy, desc)
	out := make([]jsonv.Value, sorted.Len())
	for i := range out {
		out[i] = sorted.Index(i).Interface().(jsonv.Value)
	}
	return jsonv.Array(out...)
}

// applyToSlice copies, sorts, and limits a slice value. Items missing the
// sort key go last.
func applyToSlice(v reflect.Value, limit int, sortBy string, desc bool) reflect.Value {
	length := v.Len()
	if length == 0 {
		return v
	}

	sliceType := v.Type()
	if v.Kind() == reflect.Array {
		sliceType = reflect.SliceOf(v.Type().Elem())
	}
	copySlice := reflect.MakeSlice(sliceType, length, length)
	reflect.Copy(copySlice, v)

	if sortBy != "" {
		sortPath := strings.Split(sortBy, ".")
		keys := make([]interface{}, length)
		found := make([]bool, length)
		for i := 0; i < length; i++ {
			keys[i], found[i] = extractSortableValue(copySlice.Index(i), sortPath)
		}
		perm := make([]int, length)
		for i := range perm {
			perm[i] = i
		}
		sort.SliceStable(perm, func(i, j int) bool {
			a, b := perm[i], perm[j]
			if !found[a] || !found[b] {
				return found[a] && !found[b]
			}
			cmp := compareValues(keys[a], keys[b])
			if desc {
				return cmp > 0
			}
			return cmp < 0
		})
		sorted := reflect.MakeSlice(sliceType, length, length)
		for i, p := range perm {
			sorted.Index(i).Set(copySlice.Index(p))
		}
		copySlice = sorted
	}

	if limit > 0 && limit < copySlice.Len() {
		return copySlice.Slice(0, limit)
	}

	return copySlice
}

func extractSortableValue(v reflect.Value, path []string) (interface{}, bool) {
	if !v.IsValid() || len(path) == 0 {
		return nil, false
	}

	for v.Kind() == reflect.Ptr || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return nil, false
		}
		v = v.Elem()
	}

	if jv, ok := v.Interface().(jsonv.Value); ok {
		return valueAt(jv, path)
	}

	switch v.Kind() {
	case reflect.Map:
		if v.Type().Key().Kind() != reflect.String {
			return nil, false
		}
		key, ok := findMapKey(v, path[0])
		if !ok {
			return nil, false
		}
		val := v.MapIndex(key)
		if len(path) == 1 {
			return leaf(val)
		}
		return extractSortableValue(val, path[1:])
	case reflect.Struct:
		field, ok := findStructField(v, path[0])
		if !ok {
			return nil, false
		}
		if len(path) == 1 {
			return leaf(field)
		}
		return extractSortableValue(field, path[1:])
	}

	return nil, false
}

func leaf(v reflect.Value) (interface{}, bool) {
	if jv, ok := v.Interface().(jsonv.Value); ok {
		if jv.IsMissing() {
			return nil, false
		}
		return jv, true
	}
	return v.Interface(), true
}

func valueAt(v jsonv.Value, path []string) (interface{}, bool) {
	for _, name := range path {
		if v.Kind() != jsonv.KindObject {
			return nil, false
		}
		var next jsonv.Value
		found := false
		for _, m := range v.Members() {
			if normalizeName(m.Key) == normalizeName(name) {
				next, found = m.Value, true
				break
			}
		}
		if !found {
			return nil, false
		}
		v = next
	}
	if v.IsMissing() {
		return nil, false
	}
	return v, true
}

func findMapKey(v reflect.Value, name string) (reflect.Value, bool) {
	norm := normalizeName(name)
	for _, key := range v.MapKeys() {
		if normalizeName(key.String()) == norm {
			return key, true
		}
	}
	return reflect.Value{}, false
}

func findStructField(v reflect.Value, name string) (reflect.Value, bool) {
	norm := normalizeName(name)
	t := v.Type()
	for i := 0; i < v.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		if normalizeName(fieldLabel(f)) == norm {
			return v.Field(i), true
		}
	}
	return reflect.Value{}, false
}

func normalizeName(s string) string {
	return strings.ToLower(strings.ReplaceAll(strings.ReplaceAll(s, "_", ""), "-", ""))
}

// sortKey reduces a value to a float64 or a string.
func sortKey(v interface{}) (float64, string, bool) {
	switch x := v.(type) {
	case jsonv.Value:
		if f, ok := x.AsFloat(); ok {
			return f, "", true
		}
		return 0, x.String(), false
	case json.Number:
		if f, err := x.Float64(); err == nil {
			return f, "", true
		}
		return 0, string(x), false
	case int:
		return float64(x), "", true
	case int64:
		return float64(x), "", true
	case float64:
		return x, "", true
	case time.Time:
		return float64(x.UnixNano()), "", true
	case string:
		return 0, x, false
	default:
		return 0, fmt.Sprint(v), false
	}
}

// compareValues orders numbers before text and numbers numerically.
func compareValues(a, b interface{}) int {
	af, as, anum := sortKey(a)
	bf, bs, bnum := sortKey(b)
	switch {
	case anum && bnum:
		switch {
		case af < bf:
			return -1
		case af > bf:
			return 1
		}
		return 0
	case anum:
		return -1
	case bnum:
		return 1
	}
	return strings.Compare(as, bs)
}
