package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

type ioKey struct{}

type ioState struct {
	in  io.Reader
	out io.Writer
	err io.Writer
}

func withIO(ctx context.Context, in io.Reader, out, err io.Writer) context.Context {
	return context.WithValue(ctx, ioKey{}, ioState{in: in, out: out, err: err})
}

func ioFromContext(ctx context.Context) (ioState, bool) {
	if ctx == nil {
		return ioState{}, false
	}
	v, ok := ctx.Value(ioKey{}).(ioState)
	return v, ok
}

func stdinFromContext(ctx context.Context) io.Reader {
	if v, ok := ioFromContext(ctx); ok && v.in != nil {
		return v.in
	}
	return os.Stdin
}

func stdoutFromContext(ctx context.Context) io.Writer {
	if v, ok := ioFromContext(ctx); ok && v.out != nil {
		return v.out
	}
	return os.Stdout
}

func stderrFromContext(ctx context.Context) io.Writer {
	if v, ok := ioFromContext(ctx); ok && v.err != nil {
		return v.err
	}
	return os.Stderr
}

// promptSecret prompts on stderr and reads a line without echo when stdin is
// a terminal.
func promptSecret(ctx context.Context, prompt string) (string, error) {
	fmt.Fprint(stderrFromContext(ctx), prompt)

	in := stdinFromContext(ctx)
	if file, ok := in.(*os.File); ok && term.IsTerminal(int(file.Fd())) {
		secret, err := term.ReadPassword(int(file.Fd()))
		fmt.Fprintln(stderrFromContext(ctx))
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(secret)), nil
	}

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
