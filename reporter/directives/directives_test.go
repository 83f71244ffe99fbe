package directives

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []Directive
	}{
		{
			name: "no_directives",
			in:   "there\nare\nno\ndirectives\nhere",
			want: nil,
		},
		{
			name: "empty_input",
			in:   "",
			want: nil,
		},
		{
			name: "only_whitespace",
			in:   "   \n\t\n   ",
			want: nil,
		},
		{
			name: "partial_comment_not_directive",
			in:   "<!-- this is a regular comment -->",
			want: nil,
		},
		{
			name: "multiple_directives",
			in: `first <!--#include-diff a="a.txt" b="b.txt" -->
second <!--#include-summary a="a.txt" b="b.txt" -->`,
			want: []Directive{
				{
					Pos:  6,
					End:  47,
					Line: 1,
					Name: "include-diff",
					Attrs: map[string]string{
						"a": "a.txt",
						"b": "b.txt",
					},
				},
				{
					Pos:  55,
					End:  99,
					Line: 2,
					Name: "include-summary",
					Attrs: map[string]string{
						"a": "a.txt",
						"b": "b.txt",
					},
				},
			},
		},
		{
			name: "adjacent_directives",
			in:   `<!--#include-summary a="x" b="y" --><!--#include-summary a="y" b="z" -->`,
			want: []Directive{
				{
					Pos:   0,
					End:   36,
					Line:  1,
					Name:  "include-summary",
					Attrs: map[string]string{"a": "x", "b": "y"},
				},
				{
					Pos:   36,
					End:   72,
					Line:  1,
					Name:  "include-summary",
					Attrs: map[string]string{"a": "y", "b": "z"},
				},
			},
		},
		{
			name: "directive_with_multiple_attrs",
			in:   `<!--#include-snippet file="test.go" lang="go" display="main.go" -->`,
			want: []Directive{
				{
					Pos:  0,
					End:  67,
					Line: 1,
					Name: "include-snippet",
					Attrs: map[string]string{
						"file":    "test.go",
						"lang":    "go",
						"display": "main.go",
					},
				},
			},
		},
		{
			name: "directive_with_empty_attr_value",
			in:   `<!--#test attr="" -->`,
			want: []Directive{
				{
					Pos:  0,
					End:  21,
					Line: 1,
					Name: "test",
					Attrs: map[string]string{
						"attr": "",
					},
				},
			},
		},
		{
			name: "indented_directive",
			in: "there's a directive in here\n" +
				"\t\t\t\t <!--#include-diff a=\"old/file.go\" b=\"new/file.go\" -->\n" +
				"\t\t\t\t",
			want: []Directive{
				{
					Pos:  33,
					End:  86,
					Line: 2,
					Name: "include-diff",
					Attrs: map[string]string{
						"a": "old/file.go",
						"b": "new/file.go",
					},
				},
			},
		},
		{
			name: "tri_quoted_value",
			in: "# Some markdown\n" +
				"\t\t\t<!--#include-snippet\n" +
				"\t\t\t\tfile=\"notes.txt\"\n" +
				"\t\t\t\tdisplay=\"\"\"\n" +
				"\t\t\t\t\tmultiple\n" +
				"\t\t\t\t\tlines\n" +
				"\t\t\t\t\t\"\"\"\n" +
				"\t\t\t-->\n" +
				"\t\t\t",
			want: []Directive{
				{
					Pos:  19,
					End:  117,
					Line: 2,
					Name: "include-snippet",
					Attrs: map[string]string{
						"file":    "notes.txt",
						"display": "\nmultiple\nlines\n",
					},
				},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse([]byte(tt.in))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("unexpected diff [-want,+got]:\n%s", diff)
			}
		})
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		wantErr string
	}{
		{
			name:    "unterminated_string",
			in:      `<!--#test attr="unterminated -->`,
			wantErr: "unterminated string",
		},
		{
			name:    "unterminated_string_newline",
			in:      "<!--#test attr=\"value\n\" -->",
			wantErr: "unterminated string",
		},
		{
			name:    "unterminated_tri_quoted_string",
			in:      `<!--#test attr="""unterminated`,
			wantErr: "unterminated tri-quoted string",
		},
		{
			name:    "missing_equals",
			in:      `<!--#test attr "value" -->`,
			wantErr: "expected '='",
		},
		{
			name:    "missing_value_quote",
			in:      `<!--#test attr=value -->`,
			wantErr: `expected '"'`,
		},
		{
			name:    "missing_closing_tag",
			in:      `<!--#test attr="value"`,
			wantErr: "expected '-->'",
		},
		{
			name:    "missing_name",
			in:      `<!--# -->`,
			wantErr: "expected identifier",
		},
		{
			name:    "duplicate_attribute",
			in:      `<!--#include-diff a="x" a="y" -->`,
			wantErr: `duplicate attribute "a"`,
		},
		{
			name:    "invalid_utf8",
			in:      "<!--#test attr=\"\xff\" -->",
			wantErr: "invalid UTF-8",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.in))
			if err == nil {
				t.Fatalf("expected error containing %q, got nil", tt.wantErr)
			}
			syntaxErr, ok := err.(*SyntaxError)
			if !ok {
				t.Fatalf("expected *SyntaxError, got %T", err)
			}
			if !strings.Contains(syntaxErr.Msg, tt.wantErr) {
				t.Errorf("expected error containing %q, got %q", tt.wantErr, syntaxErr.Msg)
			}
		})
	}
}

func TestParseFirst(t *testing.T) {
	in := []byte(`<!--#include-snippet file="a.go" -->
<!--#include-diff a="x" b="y" -->
<!--#include-diff a="broken -->`)

	got, err := ParseFirst(in, "include-diff")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := Directive{
		Pos:   37,
		End:   70,
		Line:  2,
		Name:  "include-diff",
		Attrs: map[string]string{"a": "x", "b": "y"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("unexpected diff [-want,+got]:\n%s", diff)
	}

	_, err = ParseFirst([]byte("no directives"), "include-diff")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestHasAttr(t *testing.T) {
	d := Directive{
		Attrs: map[string]string{
			"file": "test.go",
			"lang": "go",
		},
	}

	if !d.HasAttr("file") {
		t.Error("HasAttr('file') should return true")
	}
	if !d.HasAttr("lang") {
		t.Error("HasAttr('lang') should return true")
	}
	if d.HasAttr("missing") {
		t.Error("HasAttr('missing') should return false")
	}
}

func TestRequire(t *testing.T) {
	d := Directive{
		Name:  "include-diff",
		Attrs: map[string]string{"a": "old.txt", "b": ""},
	}
	if err := d.Require("a"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	err := d.Require("a", "b")
	if err == nil {
		t.Fatal("expected error for empty attribute")
	}
	if want := "include-diff: missing or empty b attribute"; err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestSyntaxError_Error(t *testing.T) {
	err := &SyntaxError{
		Msg:  "test error",
		Pos:  42,
		Line: 3,
		Col:  10,
	}
	want := "test error [3:10]"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}
