package goldmark

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestRender(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "simple_paragraph",
			in:   "Hello, world!",
			want: "<p>Hello, world!</p>\n",
		},
		{
			name: "heading_with_anchor",
			in:   "# My Title",
			want: `<h1 id="my-title">My Title<a href="#my-title" class="anchor-link"></a></h1>` + "\n",
		},
		{
			name: "directive_passes_through",
			in:   `<!--#include-diff a="old.txt" b="new.txt" -->` + "\n",
			want: `<!--#include-diff a="old.txt" b="new.txt" -->` + "\n",
		},
		{
			name: "admonition",
			in:   "NOTE: Whitespace counts.",
			want: `<div class="admonition note"><p class="admonition-title">Note</p><p>Whitespace counts.</p>` + "\n</div>\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _, err := Render([]byte(tt.in))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if diff := cmp.Diff(tt.want, string(got)); diff != "" {
				t.Errorf("Render() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRender_Math(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string // in order
		math int
	}{
		{
			name: "start_of_document",
			in:   "$m$ lines.",
			want: []string{"<p>", "</math>", " lines.</p>"},
			math: 1,
		},
		{
			name: "mid_paragraph",
			in:   "Value $m$ here.",
			want: []string{"<p>Value ", "</math>", " here.</p>"},
			math: 1,
		},
		{
			name: "later_paragraph",
			in:   "First paragraph.\n\nThe table has $(m+1)(n+1)$ cells for $m$ old lines.\n",
			want: []string{"<p>First paragraph.</p>", "<p>The table has ", "</math>", " cells for ", "</math>", " old lines.</p>"},
			math: 2,
		},
		{
			name: "later_line",
			in:   "# Cost\n\nFirst line\nand $n$ on the second.\n",
			want: []string{"First line\nand ", "</math>", " on the second.</p>"},
			math: 1,
		},
		{
			name: "unterminated",
			in:   "Some text.\n\nCosts $5 today.\n",
			want: []string{"<p>Some text.</p>", "<p>Costs $5 today.</p>"},
			math: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, _, err := Render([]byte(tt.in))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			got := string(b)
			if n := strings.Count(got, "</math>"); n != tt.math {
				t.Errorf("Render() = %q has %d math elements, want %d", got, n, tt.math)
			}
			rest := got
			for _, want := range tt.want {
				i := strings.Index(rest, want)
				if i < 0 {
					t.Fatalf("Render() = %q, want %q after the previous match", got, want)
				}
				rest = rest[i+len(want):]
			}
		})
	}
}

func TestRender_TOC(t *testing.T) {
	input := `# Report

## Configuration

Content.

## Engine

More content.

### Backtracking

Even more content.
`
	_, toc, err := Render([]byte(input))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := `<ul>
<li>
<a href="#configuration">Configuration</a></li>
<li>
<a href="#engine">Engine</a><ul>
<li>
<a href="#backtracking">Backtracking</a></li>
</ul>
</li>
</ul>
`
	if diff := cmp.Diff(want, string(toc)); diff != "" {
		t.Errorf("TOC mismatch (-want +got):\n%s", diff)
	}
}

func TestRender_NoTOC(t *testing.T) {
	_, toc, err := Render([]byte("# Only a title\n\nNothing else."))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if toc != nil {
		t.Errorf("expected no table of contents, got %q", toc)
	}
}
