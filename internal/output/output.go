// Package output provides context-aware output for jt.
// Stdout is used for primary data output (tables, issue text, paths).
// Notes (cache provenance, hints) go to stderr so piped output stays
// clean; diagnostics go through the log package.
package output

import (
	"context"
	"fmt"
	"io"
	"os"
)

type ctxKey struct{}

// Printer writes primary output to stdout and notes to stderr.
type Printer struct {
	out io.Writer
	err io.Writer
}

// New creates a new Printer writing data to out and notes to err.
func New(out, err io.Writer) *Printer {
	return &Printer{out: out, err: err}
}

// WithPrinter attaches a Printer to the context.
func WithPrinter(ctx context.Context, p *Printer) context.Context {
	return context.WithValue(ctx, ctxKey{}, p)
}

// FromContext retrieves the Printer from context.
// Returns a Printer on os.Stdout/os.Stderr if none is attached.
func FromContext(ctx context.Context) *Printer {
	if p, ok := ctx.Value(ctxKey{}).(*Printer); ok {
		return p
	}
	return &Printer{out: os.Stdout, err: os.Stderr}
}

// Print writes output without a newline.
func (p *Printer) Print(a ...any) {
	fmt.Fprint(p.out, a...)
}

// Printf writes formatted output.
func (p *Printer) Printf(format string, a ...any) {
	fmt.Fprintf(p.out, format, a...)
}

// Println writes a line of output.
func (p *Printer) Println(a ...any) {
	fmt.Fprintln(p.out, a...)
}

// Notef writes a formatted note to the note writer.
func (p *Printer) Notef(format string, a ...any) {
	fmt.Fprintf(p.err, format, a...)
}

// Noteln writes a line to the note writer.
func (p *Printer) Noteln(a ...any) {
	fmt.Fprintln(p.err, a...)
}

// Writer returns the primary output writer.
func (p *Printer) Writer() io.Writer {
	return p.out
}
