package output

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/salmonumbrella/wikigap-cli/internal/jsonv"
)

type sample struct {
	Name  string      `json:"name"`
	Count int         `json:"count"`
	Cell  jsonv.Value `json:"cell"`
	Skip  string      `json:"-"`
}

func render(t *testing.T, ctx context.Context, format Format, data interface{}) string {
	t.Helper()
	var buf bytes.Buffer
	if err := NewPrinter(&buf, format).Print(ctx, data); err != nil {
		t.Fatalf("Print(%s) error = %v", format, err)
	}
	return buf.String()
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"": FormatText, "JSON": FormatJSON, " yaml ": FormatYAML, "ndjson": FormatNDJSON, "table": FormatTable} {
		got, err := ParseFormat(in)
		if err != nil || got != want {
			t.Errorf("ParseFormat(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseFormat("xml"); err == nil {
		t.Error("expected error for xml")
	}
}

func TestPrintYAML_KeepsMemberOrder(t *testing.T) {
	doc := jsonv.Object(
		jsonv.M("zeta", jsonv.Int(1)),
		jsonv.M("alpha", jsonv.Strings("a", "b")),
		jsonv.M("mid", jsonv.Null()),
	)
	got := render(t, context.Background(), FormatYAML, doc)
	want := "zeta: 1\nalpha:\n  - a\n  - b\nmid: null\n"
	if got != want {
		t.Fatalf("yaml = %q, want %q", got, want)
	}
}

func TestPrintJSON_Query(t *testing.T) {
	ctx := WithQuery(context.Background(), ".[] | .name")
	items := []sample{{Name: "a", Count: 1}, {Name: "b", Count: 2}}
	got := render(t, ctx, FormatJSON, items)
	if got != "\"a\"\n\"b\"\n" {
		t.Fatalf("query output = %q", got)
	}

	var buf bytes.Buffer
	err := NewPrinter(&buf, FormatJSON).Print(WithQuery(context.Background(), ".["), items)
	if err == nil || !strings.Contains(err.Error(), "invalid --query") {
		t.Fatalf("expected invalid query error, got %v", err)
	}
}

func TestPrintNDJSON_ValueArray(t *testing.T) {
	got := render(t, context.Background(), FormatNDJSON, jsonv.Array(jsonv.String("<a>"), jsonv.Int(2)))
	if got != "\"<a>\"\n2\n" {
		t.Fatalf("ndjson = %q", got)
	}
}

func TestPrintTable_Structs(t *testing.T) {
	items := []sample{
		{Name: "Paella", Count: 3, Cell: jsonv.Strings("x")},
		{Name: "Injera", Count: 10, Cell: jsonv.NaN()},
	}
	got := render(t, context.Background(), FormatTable, items)
	lines := strings.Split(strings.TrimRight(got, "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %q", got)
	}
	if fields := strings.Fields(lines[0]); strings.Join(fields, ",") != "name,count,cell" {
		t.Errorf("headers = %v", fields)
	}
	if !strings.Contains(lines[1], `["x"]`) {
		t.Errorf("row 1 = %q", lines[1])
	}
	if strings.Contains(lines[2], "NaN") {
		t.Errorf("missing cell should render blank: %q", lines[2])
	}
}

func TestPrintTable_Maps(t *testing.T) {
	rows := []map[string]jsonv.Value{
		{"b": jsonv.String("1")},
		{"a": jsonv.String("2"), "b": jsonv.String("3")},
	}
	got := render(t, context.Background(), FormatTable, rows)
	lines := strings.Split(strings.TrimRight(got, "\n"), "\n")
	if strings.Join(strings.Fields(lines[0]), ",") != "a,b" {
		t.Errorf("headers = %q", lines[0])
	}
	if strings.Join(strings.Fields(lines[2]), ",") != "2,3" {
		t.Errorf("row 2 = %q", lines[2])
	}
}

func TestPrintText_Struct(t *testing.T) {
	got := render(t, context.Background(), FormatText, sample{Name: "Paella", Count: 2, Cell: jsonv.String("c"), Skip: "hidden"})
	want := "name: Paella\ncount: 2\ncell: c\n"
	if got != want {
		t.Fatalf("text = %q, want %q", got, want)
	}
}

func TestApplyAgentOptions(t *testing.T) {
	items := []sample{
		{Name: "b", Count: 2},
		{Name: "a", Count: 10},
		{Name: "c", Count: 1},
	}
	ctx := WithSort(WithLimit(context.Background(), 2), "count", true)
	got, ok := ApplyAgentOptions(ctx, items).([]sample)
	if !ok {
		t.Fatalf("unexpected type %T", got)
	}
	if len(got) != 2 || got[0].Name != "a" || got[1].Name != "b" {
		t.Fatalf("sorted = %+v", got)
	}
	if items[0].Name != "b" {
		t.Error("input slice was mutated")
	}
}

func TestApplyAgentOptions_Values(t *testing.T) {
	arr := jsonv.Array(
		jsonv.Object(jsonv.M("n", jsonv.Int(3))),
		jsonv.Object(jsonv.M("other", jsonv.Int(0))),
		jsonv.Object(jsonv.M("n", jsonv.Int(1))),
	)
	ctx := WithSort(context.Background(), "n", false)
	got := ApplyAgentOptions(ctx, arr).(jsonv.Value)
	if got.String() != `[{"n":1},{"n":3},{"other":0}]` {
		t.Fatalf("sorted = %s", got.String())
	}
}

func TestCompareValues(t *testing.T) {
	if compareValues(jsonv.Int(9), jsonv.Int(10)) >= 0 {
		t.Error("numbers should compare numerically")
	}
	if compareValues(jsonv.Int(1), "a") >= 0 {
		t.Error("numbers should sort before text")
	}
	if compareValues("b", "a") <= 0 {
		t.Error("text should compare lexically")
	}
}
