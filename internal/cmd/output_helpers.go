package cmd

import (
	"context"
	"fmt"

	"github.com/salmonumbrella/wikigap-cli/internal/output"
)

func structuredOutputRequested() bool {
	return output.IsStructured(GetOutputFormat())
}

func printStructured(data interface{}) error {
	ctx := currentContext()
	printer := output.NewPrinter(stdoutFromContext(ctx), GetOutputFormat())
	return printer.Print(ctx, data)
}

// printf writes human-readable output to the command's stdout.
func printf(format string, args ...interface{}) {
	_, _ = fmt.Fprintf(stdoutFromContext(currentContext()), format, args...)
}

// notef writes progress notes to stderr unless --quiet is set.
func notef(format string, args ...interface{}) {
	ctx := currentContext()
	if output.QuietFromContext(ctx) {
		return
	}
	_, _ = fmt.Fprintf(stderrFromContext(ctx), format, args...)
}

func currentContext() context.Context {
	if rootCmd != nil && rootCmd.Context() != nil {
		return rootCmd.Context()
	}
	return context.Background()
}
