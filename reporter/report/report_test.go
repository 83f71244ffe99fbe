package report

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"linediff.znkr.io/diff"
)

func writeFiles(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func testSet(t *testing.T, d *diff.Differ) *Set {
	t.Helper()
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"templates/report.html":                    `<title>{{.Meta.Title}}</title>{{.Content}}`,
		"templates/index.html":                     `{{range .Set.Reports}}[{{.Path}}]{{end}}`,
		"templates/fragments/include_diff.html":    `{{.File}} {{.Summary}}{{range .Diff}} {{.Kind}}{{end}}`,
		"templates/fragments/include_snippet.html": `{{.File}}{{range .Lines}} {{.LineNo}}{{end}}`,
		"site/index.md":                            "~~~\ntitle: Index\ntemplate: index\nreport: false\n~~~\n",
		"site/first.md": `~~~
    title: First
published: 2025-03-14
~~~
<!--#include-summary a="old.txt" b="new.txt" -->
`,
		"site/second.md": `~~~
    title: Second
published: 2025-04-01
~~~
<!--#include-diff a="old.txt" b="new.txt" display="file.txt" -->
`,
		"site/third.md": `~~~
    title: Third
published: 2025-04-01
~~~
<!--#include-snippet file="old.txt" -->
`,
		"site/old.txt": "a\nb\n",
		"site/new.txt": "a\nc\n",
	})

	s, err := Load(dir, d)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	return s
}

func TestLoad(t *testing.T) {
	s := testSet(t, nil)

	var paths []string
	for _, d := range s.AllDocs() {
		paths = append(paths, d.Path())
	}
	want := []string{"/", "/feed.atom", "/first", "/new.txt", "/old.txt", "/second", "/third"}
	if diff := cmp.Diff(want, paths); diff != "" {
		t.Errorf("AllDocs() paths are different [-want,+got]:\n%s", diff)
	}

	if doc := s.Doc("/missing"); doc != nil {
		t.Errorf("Doc(/missing) = %v, want nil", doc.Path())
	}
	if got := s.Doc("/first").MimeType(); got != "text/html;charset=UTF-8" {
		t.Errorf("MimeType() = %q, want text/html", got)
	}
}

func TestReports(t *testing.T) {
	s := testSet(t, nil)

	var paths []string
	for _, d := range s.Reports() {
		paths = append(paths, d.Path())
	}
	want := []string{"/second", "/third", "/first"}
	if diff := cmp.Diff(want, paths); diff != "" {
		t.Errorf("Reports() are different [-want,+got]:\n%s", diff)
	}
}

func TestRenderPage(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{
			path: "/",
			want: "[/second][/third][/first]",
		},
		{
			path: "/first",
			want: "<title>First</title><span class=\"diff-summary\">+1 -1</span>\n",
		},
		{
			path: "/second",
			want: "<title>Second</title>file.txt &#43;1 -1 unchanged removed added unchanged\n",
		},
		{
			path: "/third",
			want: "<title>Third</title>old.txt 1 2\n",
		},
		{
			path: "/old.txt",
			want: "a\nb\n",
		},
	}

	s := testSet(t, nil)
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			doc := s.Doc(tt.path)
			if doc == nil {
				t.Fatalf("Doc(%q) not found", tt.path)
			}
			got, err := s.RenderPage(doc)
			if err != nil {
				t.Fatalf("RenderPage() failed: %v", err)
			}
			if diff := cmp.Diff(tt.want, string(got)); diff != "" {
				t.Errorf("RenderPage() is different [-want,+got]:\n%s", diff)
			}
		})
	}
}

func TestRenderPage_TooLarge(t *testing.T) {
	s := testSet(t, diff.New(diff.MaxCells(4)))
	_, err := s.RenderPage(s.Doc("/second"))
	if err == nil || !strings.Contains(err.Error(), "input too large") {
		t.Errorf("RenderPage() = %v, want error about input size", err)
	}
}

func TestRenderPage_Feed(t *testing.T) {
	s := testSet(t, nil)
	got, err := s.RenderPage(s.Doc(FeedPath))
	if err != nil {
		t.Fatalf("RenderPage() failed: %v", err)
	}
	for _, want := range []string{
		"<title>linediff reports</title>",
		"<title>First</title>",
		"<title>Second</title>",
		"<title>Third</title>",
	} {
		if !strings.Contains(string(got), want) {
			t.Errorf("feed doesn't contain %q:\n%s", want, got)
		}
	}
}

func TestRenderPage_UnknownDirective(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"templates/report.html": `{{.Content}}`,
		"site/bad.md":           "<!--#include-everything -->\n",
	})
	s, err := Load(dir, nil)
	if err != nil {
		t.Fatal(err)
	}
	_, err = s.RenderPage(s.Doc("/bad"))
	if err == nil || !strings.Contains(err.Error(), "unknown directive: include-everything") {
		t.Errorf("RenderPage() = %v, want unknown directive error", err)
	}
}

func TestExample(t *testing.T) {
	s, err := Load(filepath.Join("..", "..", "example"), nil)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	for _, d := range s.AllDocs() {
		if _, err := s.RenderPage(d); err != nil {
			t.Errorf("RenderPage(%s) failed: %v", d.Path(), err)
		}
	}
	if got := len(s.Reports()); got != 1 {
		t.Errorf("len(Reports()) = %d, want 1", got)
	}

	b, err := s.RenderContent(s.Doc("/engine"))
	if err != nil {
		t.Fatalf("RenderContent(/engine) failed: %v", err)
	}
	got := string(b)
	if n := strings.Count(got, "</math>"); n != 3 {
		t.Errorf("RenderContent(/engine) has %d math elements, want 3:\n%s", n, got)
	}
	rest := got
	for _, want := range []string{
		"that puts an upper bound on that table: ",
		`<figure class="diff">`,
		"A limit of zero disables the check.",
		"<p>For inputs of ",
		" and ",
		" lines the table has ",
		" cells.</p>",
	} {
		i := strings.Index(rest, want)
		if i < 0 {
			t.Fatalf("RenderContent(/engine) doesn't contain %q in order:\n%s", want, got)
		}
		rest = rest[i+len(want):]
	}
}
