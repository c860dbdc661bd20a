package output

import (
	"fmt"
	"io"
	"strings"
)

type Formatter struct {
	w io.Writer
}

func NewFormatter(w io.Writer) *Formatter {
	return &Formatter{w: w}
}

func (f *Formatter) Transcribing(path string) {
	fmt.Fprintf(f.w, "📝 Transcribing %s...\n", path)
}

func (f *Formatter) Generating(provider string, format string) {
	fmt.Fprintf(f.w, "🤖 Generating %s minutes with %s...\n", format, provider)
}

func (f *Formatter) Exported(path string) {
	fmt.Fprintf(f.w, "✅ PDF saved: %s\n", path)
}

func (f *Formatter) Saved(what string, path string) {
	fmt.Fprintf(f.w, "✅ %s saved: %s\n", what, path)
}

func (f *Formatter) Preview(text string) {
	fmt.Fprintf(f.w, "\n%s\n\n", strings.TrimRight(text, "\n"))
}

func (f *Formatter) ModelList(provider string, names []string) {
	fmt.Fprintf(f.w, "📦 %s:\n", provider)
	for _, name := range names {
		fmt.Fprintf(f.w, "  • %s\n", name)
	}
}

func (f *Formatter) Error(msg string) {
	fmt.Fprintf(f.w, "❌ %s\n", msg)
}

func (f *Formatter) Info(msg string) {
	fmt.Fprintf(f.w, "ℹ️  %s\n", msg)
}

func (f *Formatter) Warning(msg string) {
	fmt.Fprintf(f.w, "⚠️  %s\n", msg)
}
