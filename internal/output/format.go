package output

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/itchyny/gojq"
	"gopkg.in/yaml.v3"

	"github.com/salmonumbrella/wikigap-cli/internal/jsonv"
)

// Format represents the output format type.
type Format string

const (
	// FormatText is human-readable key-value format (default).
	FormatText Format = "text"
	// FormatJSON is pretty-printed JSON format.
	FormatJSON Format = "json"
	// FormatNDJSON is newline-delimited JSON format.
	FormatNDJSON Format = "ndjson"
	// FormatTable is tabular format for lists.
	FormatTable Format = "table"
	// FormatYAML is YAML format.
	FormatYAML Format = "yaml"
)

// ParseFormat converts a string to a Format type.
// Empty string defaults to FormatText.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case FormatText, "":
		return FormatText, nil
	case FormatJSON:
		return FormatJSON, nil
	case FormatNDJSON:
		return FormatNDJSON, nil
	case FormatTable:
		return FormatTable, nil
	case FormatYAML:
		return FormatYAML, nil
	default:
		return "", errors.New("invalid --output format (expected text|json|ndjson|table|yaml)")
	}
}

// IsStructured reports whether the format is machine-readable structured output.
func IsStructured(format Format) bool {
	switch format {
	case FormatJSON, FormatNDJSON, FormatYAML:
		return true
	default:
		return false
	}
}

// Printer handles output formatting across different formats.
type Printer struct {
	w      io.Writer
	format Format
}

// NewPrinter creates a new Printer that writes to w in the given format.
func NewPrinter(w io.Writer, format Format) *Printer {
	return &Printer{
		w:      w,
		format: format,
	}
}

// Print outputs data in the configured format. Values that marshal
// themselves (documents, ordered JSON values) keep their key order in every
// structured format.
func (p *Printer) Print(ctx context.Context, data interface{}) error {
	if data == nil {
		return nil
	}

	data = ApplyAgentOptions(ctx, data)

	if query := QueryFromContext(ctx); query != "" && p.format != FormatYAML {
		return p.printQuery(query, data)
	}

	switch p.format {
	case FormatJSON:
		return p.printJSON(data)
	case FormatNDJSON:
		return p.printNDJSON(data)
	case FormatYAML:
		return p.printYAML(ctx, data)
	case FormatTable:
		return p.printTable(data)
	case FormatText:
		return p.printText(data)
	default:
		return fmt.Errorf("unsupported format: %s", p.format)
	}
}

func newEncoder(w io.Writer) *json.Encoder {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return enc
}

func (p *Printer) printJSON(data interface{}) error {
	enc := newEncoder(p.w)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

func (p *Printer) printNDJSON(data interface{}) error {
	enc := newEncoder(p.w)

	if v, ok := data.(jsonv.Value); ok && v.Kind() == jsonv.KindArray {
		for _, e := range v.Elems() {
			if err := enc.Encode(e); err != nil {
				return err
			}
		}
		return nil
	}

	v := reflect.ValueOf(data)
	for v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return nil
		}
		v = v.Elem()
	}

	if v.Kind() == reflect.Slice || v.Kind() == reflect.Array {
		for i := 0; i < v.Len(); i++ {
			if err := enc.Encode(v.Index(i).Interface()); err != nil {
				return err
			}
		}
		return nil
	}

	return enc.Encode(data)
}

// RunQuery evaluates a jq query against data and returns every result.
func RunQuery(query string, data interface{}) ([]interface{}, error) {
	parsed, err := gojq.Parse(query)
	if err != nil {
		return nil, fmt.Errorf("invalid --query: %w", err)
	}
	code, err := gojq.Compile(parsed)
	if err != nil {
		return nil, fmt.Errorf("invalid --query: %w", err)
	}

	input, err := queryInput(data)
	if err != nil {
		return nil, err
	}

	var out []interface{}
	iter := code.Run(input)
	for {
		v, ok := iter.Next()
		if !ok {
			break
		}
		if err, isErr := v.(error); isErr {
			return nil, fmt.Errorf("query error: %w", err)
		}
		out = append(out, v)
	}
	return out, nil
}

// queryInput converts data into the plain maps, slices and float64 numbers
// gojq evaluates.
func queryInput(data interface{}) (interface{}, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("encode query input: %w", err)
	}
	var input interface{}
	if err := json.Unmarshal(raw, &input); err != nil {
		return nil, fmt.Errorf("decode query input: %w", err)
	}
	return input, nil
}

// printQuery writes each query result as one compact JSON line.
func (p *Printer) printQuery(query string, data interface{}) error {
	results, err := RunQuery(query, data)
	if err != nil {
		return err
	}
	enc := newEncoder(p.w)
	for _, v := range results {
		if err := enc.Encode(v); err != nil {
			return err
		}
	}
	return nil
}

// printYAML goes through the JSON form so that json tags and member order
// carry over. A query, if present, is applied first.
func (p *Printer) printYAML(ctx context.Context, data interface{}) error {
	if query := QueryFromContext(ctx); query != "" {
		results, err := RunQuery(query, data)
		if err != nil {
			return err
		}
		data = results
	}

	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}
	doc, err := jsonv.Parse(raw)
	if err != nil {
		return err
	}

	enc := yaml.NewEncoder(p.w)
	enc.SetIndent(2)
	defer func() { _ = enc.Close() }()
	return enc.Encode(yamlNode(doc))
}

func yamlNode(v jsonv.Value) *yaml.Node {
	switch v.Kind() {
	case jsonv.KindObject:
		n := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		for _, m := range v.Members() {
			n.Content = append(n.Content,
				&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: m.Key},
				yamlNode(m.Value))
		}
		return n
	case jsonv.KindArray:
		n := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for _, e := range v.Elems() {
			n.Content = append(n.Content, yamlNode(e))
		}
		return n
	case jsonv.KindString:
		s, _ := v.AsString()
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: s}
	case jsonv.KindNumber:
		num, _ := v.AsNumber()
		tag := "!!int"
		if strings.ContainsAny(string(num), ".eE") {
			tag = "!!float"
		}
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: string(num)}
	case jsonv.KindBool:
		b, _ := v.AsBool()
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: fmt.Sprint(b)}
	default:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}
	}
}

// printText outputs data as human-readable text.
// For maps and structs: key-value pairs.
// For slices: one item per line.
// Self-marshalling values are printed as indented JSON.
func (p *Printer) printText(data interface{}) error {
	switch d := data.(type) {
	case jsonv.Value:
		if d.Kind() != jsonv.KindArray && d.Kind() != jsonv.KindObject {
			_, err := fmt.Fprintln(p.w, d.String())
			return err
		}
		return p.printJSON(d)
	case json.Marshaler:
		return p.printJSON(d)
	}

	v := reflect.ValueOf(data)
	if !v.IsValid() {
		return nil
	}

	for v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return nil
		}
		v = v.Elem()
	}

	switch v.Kind() {
	case reflect.Map:
		return p.printTextMap(v)
	case reflect.Struct:
		return p.printTextStruct(v)
	case reflect.Slice, reflect.Array:
		return p.printTextSlice(v)
	default:
		_, err := fmt.Fprintln(p.w, v.Interface())
		return err
	}
}

func (p *Printer) printTextMap(v reflect.Value) error {
	if v.Len() == 0 {
		return nil
	}

	keys := v.MapKeys()
	sort.Slice(keys, func(i, j int) bool {
		return fmt.Sprint(keys[i].Interface()) < fmt.Sprint(keys[j].Interface())
	})

	for _, key := range keys {
		val := v.MapIndex(key)
		if !val.IsValid() {
			continue
		}
		if _, err := fmt.Fprintf(p.w, "%s: %s\n", key.Interface(), cellText(val)); err != nil {
			return err
		}
	}

	return nil
}

func (p *Printer) printTextStruct(v reflect.Value) error {
	t := v.Type()

	for i := 0; i < v.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}
		tag := field.Tag.Get("json")
		if tag == "-" {
			continue
		}
		value := v.Field(i)
		if strings.Contains(tag, "omitempty") && value.IsZero() {
			continue
		}

		if _, err := fmt.Fprintf(p.w, "%s: %s\n", fieldLabel(field), cellText(value)); err != nil {
			return err
		}
	}

	return nil
}

func (p *Printer) printTextSlice(v reflect.Value) error {
	for i := 0; i < v.Len(); i++ {
		if _, err := fmt.Fprintln(p.w, cellText(v.Index(i))); err != nil {
			return err
		}
	}

	return nil
}

func fieldLabel(f reflect.StructField) string {
	if tag := f.Tag.Get("json"); tag != "" {
		parts := strings.Split(tag, ",")
		if parts[0] != "" && parts[0] != "-" {
			return parts[0]
		}
	}
	return f.Name
}

// cellText renders one value for text and table output. Nested structures
// are written as compact JSON.
func cellText(v reflect.Value) string {
	for v.Kind() == reflect.Ptr || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return ""
		}
		v = v.Elem()
	}
	if !v.IsValid() {
		return ""
	}
	if jv, ok := v.Interface().(jsonv.Value); ok {
		if jv.IsMissing() {
			return ""
		}
		return jv.String()
	}
	if s, ok := v.Interface().(fmt.Stringer); ok {
		return s.String()
	}
	switch v.Kind() {
	case reflect.Struct, reflect.Map, reflect.Slice:
		if v.Kind() != reflect.Struct && v.IsNil() {
			return ""
		}
		var buf bytes.Buffer
		enc := newEncoder(&buf)
		if err := enc.Encode(v.Interface()); err == nil {
			return strings.TrimSpace(buf.String())
		}
	}
	return fmt.Sprint(v.Interface())
}

func (p *Printer) printTable(data interface{}) error {
	if table, ok := data.(Table); ok {
		return p.printTableData(table.Headers, table.Rows)
	}

	v := reflect.ValueOf(data)
	if !v.IsValid() {
		return nil
	}

	for v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return nil
		}
		v = v.Elem()
	}

	if v.Kind() != reflect.Slice && v.Kind() != reflect.Array {
		return fmt.Errorf("table format requires a list of items")
	}

	if v.Len() == 0 {
		return nil
	}

	headers, rows := buildTable(v)
	return p.printTableData(headers, rows)
}

func (p *Printer) printTableData(headers []string, rows [][]string) error {
	w := tabwriter.NewWriter(p.w, 0, 0, 2, ' ', 0)

	fmt.Fprintln(w, strings.Join(headers, "\t"))
	for _, row := range rows {
		cells := make([]string, len(row))
		for i, cell := range row {
			cells[i] = strings.ReplaceAll(cell, "\t", " ")
		}
		fmt.Fprintln(w, strings.Join(cells, "\t"))
	}

	return w.Flush()
}

func buildTable(v reflect.Value) ([]string, [][]string) {
	first := v.Index(0)
	for first.Kind() == reflect.Ptr && !first.IsNil() {
		first = first.Elem()
	}

	switch {
	case first.Kind() == reflect.Struct && first.Type() != reflect.TypeOf(jsonv.Value{}):
		return structTable(v, first.Type())
	case first.Kind() == reflect.Map && first.Type().Key().Kind() == reflect.String:
		return mapTable(v)
	}

	rows := make([][]string, 0, v.Len())
	for i := 0; i < v.Len(); i++ {
		rows = append(rows, []string{cellText(v.Index(i))})
	}
	return []string{"value"}, rows
}

func structTable(v reflect.Value, t reflect.Type) ([]string, [][]string) {
	var headers []string
	var idx []int
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() || f.Tag.Get("json") == "-" {
			continue
		}
		headers = append(headers, fieldLabel(f))
		idx = append(idx, i)
	}

	rows := make([][]string, 0, v.Len())
	for i := 0; i < v.Len(); i++ {
		item := v.Index(i)
		for item.Kind() == reflect.Ptr && !item.IsNil() {
			item = item.Elem()
		}
		if item.Kind() != reflect.Struct || item.Type() != t {
			rows = append(rows, []string{cellText(item)})
			continue
		}
		row := make([]string, 0, len(idx))
		for _, fi := range idx {
			row = append(row, cellText(item.Field(fi)))
		}
		rows = append(rows, row)
	}
	return headers, rows
}

// mapTable uses the sorted union of all keys as columns.
func mapTable(v reflect.Value) ([]string, [][]string) {
	seen := map[string]bool{}
	var headers []string
	for i := 0; i < v.Len(); i++ {
		item := v.Index(i)
		for item.Kind() == reflect.Ptr && !item.IsNil() {
			item = item.Elem()
		}
		if item.Kind() != reflect.Map {
			continue
		}
		for _, k := range item.MapKeys() {
			if name := k.String(); !seen[name] {
				seen[name] = true
				headers = append(headers, name)
			}
		}
	}
	sort.Strings(headers)

	rows := make([][]string, 0, v.Len())
	for i := 0; i < v.Len(); i++ {
		item := v.Index(i)
		for item.Kind() == reflect.Ptr && !item.IsNil() {
			item = item.Elem()
		}
		row := make([]string, len(headers))
		if item.Kind() == reflect.Map {
			for j, h := range headers {
				if cell := item.MapIndex(reflect.ValueOf(h).Convert(item.Type().Key())); cell.IsValid() {
					row[j] = cellText(cell)
				}
			}
		}
		rows = append(rows, row)
	}
	return headers, rows
}
