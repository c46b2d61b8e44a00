package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"
)

// openInputSource opens a file path, or stdin when source is "-".
func openInputSource(source string, stdin io.Reader) (io.ReadCloser, error) {
	trimmed := strings.TrimSpace(source)
	if trimmed == "" {
		return nil, fmt.Errorf("empty input source")
	}
	if trimmed == "-" {
		if stdin == nil {
			stdin = os.Stdin
		}
		return io.NopCloser(stdin), nil
	}
	file, err := os.Open(trimmed)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", trimmed, err)
	}
	return file, nil
}

// readInputSource reads a whole input source with surrounding space trimmed.
func readInputSource(source string, stdin io.Reader) (string, error) {
	r, err := openInputSource(source, stdin)
	if err != nil {
		return "", err
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

// inputHasData reports whether r may carry piped input: any reader that is
// not a terminal.
func inputHasData(r io.Reader) bool {
	if r == nil {
		r = os.Stdin
	}
	if file, ok := r.(*os.File); ok {
		stat, err := file.Stat()
		if err != nil {
			return false
		}
		return (stat.Mode() & os.ModeCharDevice) == 0
	}
	return true
}
