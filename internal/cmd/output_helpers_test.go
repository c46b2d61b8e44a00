package cmd

import (
	"context"
	"encoding/json"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/salmonumbrella/wikigap-cli/internal/output"
)

func TestStructuredOutputRequested(t *testing.T) {
	for format, want := range map[output.Format]bool{
		output.FormatText:   false,
		output.FormatTable:  false,
		output.FormatJSON:   true,
		output.FormatNDJSON: true,
		output.FormatYAML:   true,
	} {
		_, _, cleanup := withTestContext(t, format)
		got := structuredOutputRequested()
		cleanup()
		if got != want {
			t.Errorf("%s: structuredOutputRequested() = %v, want %v", format, got, want)
		}
	}
}

func TestPrintStructured(t *testing.T) {
	result := map[string]string{"topic": "Paella", "lang": "fr"}
	decoders := map[output.Format]func([]byte, interface{}) error{
		output.FormatJSON: json.Unmarshal,
		output.FormatYAML: yaml.Unmarshal,
	}
	for format, decode := range decoders {
		out, _, cleanup := withTestContext(t, format)
		if err := printStructured(result); err != nil {
			cleanup()
			t.Fatalf("%s: printStructured: %v", format, err)
		}
		cleanup()

		var got map[string]string
		if err := decode(out.Bytes(), &got); err != nil {
			t.Fatalf("%s: decode %q: %v", format, out.String(), err)
		}
		if got["topic"] != "Paella" || got["lang"] != "fr" {
			t.Errorf("%s: got %v", format, got)
		}
	}
}

func TestPrintf_WritesToContextStdout(t *testing.T) {
	out, errBuf, cleanup := withTestContext(t, output.FormatText)
	defer cleanup()

	printf("%s: %d entries\n", "Paella", 2)
	notef("progress\n")

	if out.String() != "Paella: 2 entries\n" {
		t.Errorf("stdout = %q", out.String())
	}
	if errBuf.Len() != 0 {
		t.Errorf("notef should be silent when quiet, got %q", errBuf.String())
	}
}

func TestNotef_WritesToStderr(t *testing.T) {
	_, errBuf, cleanup := withTestContext(t, output.FormatText)
	defer cleanup()
	rootCmd.SetContext(output.WithQuiet(rootCmd.Context(), false))

	notef("No rows extracted.\n")
	if errBuf.String() != "No rows extracted.\n" {
		t.Errorf("stderr = %q", errBuf.String())
	}
}

func TestCurrentContext(t *testing.T) {
	_, _, cleanup := withTestContext(t, output.FormatYAML)
	if got := output.FormatFromContext(currentContext()); got != output.FormatYAML {
		t.Errorf("format from root context = %q", got)
	}
	cleanup()

	prev := rootCmd
	rootCmd = nil
	defer func() { rootCmd = prev }()
	if currentContext() != context.Background() {
		t.Error("expected context.Background() without a root command")
	}
}
