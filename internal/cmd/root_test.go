package cmd

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/salmonumbrella/wikigap-cli/internal/output"
)

func TestSetVersionInfo(t *testing.T) {
	prev := [3]string{version, commit, date}
	t.Cleanup(func() { SetVersionInfo(prev[0], prev[1], prev[2]) })

	SetVersionInfo("1.2.3", "abc123", "2025-01-01")
	if rootCmd.Version != "1.2.3" {
		t.Fatalf("rootCmd.Version = %q", rootCmd.Version)
	}
	if got := versionTemplate(); got != "wikigap version 1.2.3 (commit: abc123, built: 2025-01-01)\n" {
		t.Fatalf("versionTemplate() = %q", got)
	}
}

func TestGetOutputFormat(t *testing.T) {
	prevType, prevFmt := outputType, outputFmt
	t.Cleanup(func() { outputType, outputFmt = prevType, prevFmt })

	cases := []struct {
		typ  output.Format
		fmt  string
		want output.Format
	}{
		{output.FormatJSON, "text", output.FormatJSON},
		{"", "yaml", output.FormatYAML},
		{"", "bogus", output.FormatText},
	}
	for _, c := range cases {
		outputType, outputFmt = c.typ, c.fmt
		if got := GetOutputFormat(); got != c.want {
			t.Errorf("type %q fmt %q: got %q, want %q", c.typ, c.fmt, got, c.want)
		}
	}
}

func TestIsTerminal_NonTerminalWriters(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "out")
	if err != nil {
		t.Fatalf("create temp: %v", err)
	}
	defer f.Close()

	for name, w := range map[string]io.Writer{"buffer": &bytes.Buffer{}, "file": f, "nil": nil} {
		if isTerminal(w) {
			t.Errorf("%s reported as terminal", name)
		}
	}
}

func TestRootCommandRegistersSubcommands(t *testing.T) {
	want := map[string]bool{"run": false, "extract": false, "blocks": false, "facts": false, "config": false, "auth": false}
	for _, c := range rootCmd.Commands() {
		if _, ok := want[c.Name()]; ok {
			want[c.Name()] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("subcommand %q not registered", name)
		}
	}
}

func TestRootRejectsQueryAndQueryFile(t *testing.T) {
	f := newCLIFixture(t)
	_, _, err := executeCLI(t, "", "--config", f.configPath, "--query", ".", "--query-file", "q.jq", "config", "keys")
	if err == nil || !strings.Contains(err.Error(), "only one of --query or --query-file") {
		t.Fatalf("expected conflict error, got %v", err)
	}
}

func TestRootRejectsBadErrorFormat(t *testing.T) {
	f := newCLIFixture(t)
	_, _, err := executeCLI(t, "", "--config", f.configPath, "--error-format", "xml", "config", "keys")
	if err == nil || !strings.Contains(err.Error(), "invalid --error-format") {
		t.Fatalf("expected error format error, got %v", err)
	}
}

func TestRootOutputFormatFromConfig(t *testing.T) {
	f := newCLIFixture(t)
	if err := os.WriteFile(f.configPath, []byte("output_format: yaml\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	stdout, _, err := executeCLI(t, "", "--config", f.configPath, "blocks", "show", filepath.Join(f.annotations, "Paella_fr.json"))
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !strings.HasPrefix(stdout, "- ") || !strings.Contains(stdout, "paragraph: p1") {
		t.Fatalf("expected YAML records, got:\n%s", stdout)
	}
}
