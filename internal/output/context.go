package output

import "context"

// Options are the output settings of one command invocation.
type Options struct {
	Format Format
	Query  string
	Limit  int
	SortBy string
	Desc   bool
	Quiet  bool
}

type optionsKey struct{}

// OptionsFromContext returns the output options stored in ctx. Without any,
// the format is text and nothing is filtered.
func OptionsFromContext(ctx context.Context) Options {
	if ctx != nil {
		if o, ok := ctx.Value(optionsKey{}).(Options); ok {
			return o
		}
	}
	return Options{Format: FormatText}
}

// WithOptions attaches o to ctx.
func WithOptions(ctx context.Context, o Options) context.Context {
	return context.WithValue(ctx, optionsKey{}, o)
}

func update(ctx context.Context, fn func(*Options)) context.Context {
	o := OptionsFromContext(ctx)
	fn(&o)
	return WithOptions(ctx, o)
}

// WithFormat sets the output format.
func WithFormat(ctx context.Context, format Format) context.Context {
	return update(ctx, func(o *Options) { o.Format = format })
}

// FormatFromContext returns the output format, text by default.
func FormatFromContext(ctx context.Context) Format {
	if f := OptionsFromContext(ctx).Format; f != "" {
		return f
	}
	return FormatText
}

// WithQuery sets the jq filter applied to structured output.
func WithQuery(ctx context.Context, query string) context.Context {
	return update(ctx, func(o *Options) { o.Query = query })
}

// QueryFromContext returns the jq filter.
func QueryFromContext(ctx context.Context) string {
	return OptionsFromContext(ctx).Query
}

// WithLimit sets the --result-limit value.
func WithLimit(ctx context.Context, limit int) context.Context {
	return update(ctx, func(o *Options) { o.Limit = limit })
}

// LimitFromContext returns the --result-limit value (0 = unlimited).
func LimitFromContext(ctx context.Context) int {
	return OptionsFromContext(ctx).Limit
}

// WithSort sets the sort field and direction.
func WithSort(ctx context.Context, field string, desc bool) context.Context {
	return update(ctx, func(o *Options) { o.SortBy, o.Desc = field, desc })
}

// SortFromContext returns the sort field and direction.
func SortFromContext(ctx context.Context) (field string, desc bool) {
	o := OptionsFromContext(ctx)
	return o.SortBy, o.Desc
}

// WithQuiet sets --quiet.
func WithQuiet(ctx context.Context, quiet bool) context.Context {
	return update(ctx, func(o *Options) { o.Quiet = quiet })
}

// QuietFromContext reports whether --quiet is set.
func QuietFromContext(ctx context.Context) bool {
	return OptionsFromContext(ctx).Quiet
}
