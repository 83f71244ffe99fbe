package report

import (
	"bytes"
	"cmp"
	"encoding/xml"
	"fmt"
	"html"
	"html/template"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/tools/blog/atom"

	"linediff.znkr.io/diff"
	"linediff.znkr.io/reporter/directives"
	"linediff.znkr.io/reporter/goldmark"
	"linediff.znkr.io/reporter/highlight"
)

type renderer interface {
	render(s *Set, doc *Doc, data []byte) ([]byte, error)
}

func chain(a, b renderer) renderer {
	var ret chainedRenderer
	if as, ok := a.(chainedRenderer); ok {
		ret = append(ret, as...)
	} else {
		ret = append(ret, a)
	}
	if bs, ok := b.(chainedRenderer); ok {
		ret = append(ret, bs...)
	} else {
		ret = append(ret, b)
	}
	return ret
}

type passthroughRenderer struct{}

func (r *passthroughRenderer) render(_ *Set, _ *Doc, data []byte) ([]byte, error) {
	return data, nil
}

type chainedRenderer []renderer

func (r chainedRenderer) render(s *Set, doc *Doc, data []byte) ([]byte, error) {
	for _, r := range r {
		var err error
		data, err = r.render(s, doc, data)
		if err != nil {
			return nil, err
		}
	}
	return data, nil
}

type markdownRenderer struct{}

func (r *markdownRenderer) render(_ *Set, _ *Doc, data []byte) ([]byte, error) {
	content, _, err := goldmark.Render(data)
	return content, err
}

// directivesRenderer replaces the directives in a rendered document with their output.
type directivesRenderer struct{}

func (r *directivesRenderer) render(s *Set, doc *Doc, data []byte) ([]byte, error) {
	dirs, err := directives.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse directives: %v", err)
	}

	if len(dirs) == 0 {
		return data, nil
	}

	var buf bytes.Buffer
	pos := 0
	for _, dir := range dirs {
		buf.Write(data[pos:dir.Pos])
		if err := r.renderDirective(&buf, s, doc, &dir); err != nil {
			return nil, fmt.Errorf("line %d: %v", dir.Line, err)
		}
		pos = dir.End
	}
	buf.Write(data[pos:])
	return buf.Bytes(), nil
}

func (r *directivesRenderer) renderDirective(buf *bytes.Buffer, s *Set, doc *Doc, dir *directives.Directive) error {
	switch dir.Name {
	case "include-snippet":
		if err := dir.Require("file"); err != nil {
			return err
		}
		file := dir.Attrs["file"]
		b, err := os.ReadFile(filepath.Join(doc.Dir(), file))
		if err != nil {
			return fmt.Errorf("include-snippet: %v", err)
		}

		lopt := highlight.LangFromFilename(file)
		if lang, ok := dir.Attrs["lang"]; ok {
			lopt = highlight.Lang(lang)
		}
		lines, err := highlight.Highlight(string(b), lopt)
		if err != nil {
			return fmt.Errorf("include-snippet: %v", err)
		}

		return s.execute(buf, "fragments/include_snippet", struct {
			File     string
			FilePath string
			Lines    []highlight.Line
		}{
			File:     cmp.Or(dir.Attrs["display"], file),
			FilePath: filepath.ToSlash(filepath.Join(doc.Path(), file)),
			Lines:    lines,
		})

	case "include-diff":
		if err := dir.Require("a", "b"); err != nil {
			return err
		}
		afile, bfile := dir.Attrs["a"], dir.Attrs["b"]
		a, b, err := readPair(doc, afile, bfile)
		if err != nil {
			return fmt.Errorf("include-diff: %v", err)
		}

		lopt := highlight.LangFromFilename(afile)
		if afile == os.DevNull {
			lopt = highlight.LangFromFilename(bfile)
		}
		if lang, ok := dir.Attrs["lang"]; ok {
			lopt = highlight.Lang(lang)
		}
		edits, stats, err := highlight.Diff(a, b, lopt, highlight.Differ(s.differ))
		if err != nil {
			return fmt.Errorf("include-diff: %v", err)
		}

		return s.execute(buf, "fragments/include_diff", struct {
			File     string
			FilePath string
			Summary  string
			Stats    diff.Stats
			Diff     []highlight.Edit
		}{
			File:     cmp.Or(dir.Attrs["display"], bfile),
			FilePath: filepath.ToSlash(filepath.Join(doc.Path(), bfile)),
			Summary:  stats.String(),
			Stats:    stats,
			Diff:     edits,
		})

	case "include-summary":
		if err := dir.Require("a", "b"); err != nil {
			return err
		}
		a, b, err := readPair(doc, dir.Attrs["a"], dir.Attrs["b"])
		if err != nil {
			return fmt.Errorf("include-summary: %v", err)
		}
		summary, err := s.differ.Summarize(a, b)
		if err != nil {
			return fmt.Errorf("include-summary: %v", err)
		}
		fmt.Fprintf(buf, `<span class="diff-summary">%s</span>`, html.EscapeString(summary))
		return nil

	default:
		return fmt.Errorf("unknown directive: %s", dir.Name)
	}
}

// readPair reads the old and new file of a diff relative to doc. The old file may be
// /dev/null to diff against an empty text.
func readPair(doc *Doc, afile, bfile string) (string, string, error) {
	var a []byte
	if afile != os.DevNull {
		var err error
		a, err = os.ReadFile(filepath.Join(doc.Dir(), afile))
		if err != nil {
			return "", "", err
		}
	}
	b, err := os.ReadFile(filepath.Join(doc.Dir(), bfile))
	if err != nil {
		return "", "", err
	}
	return string(a), string(b), nil
}

func (s *Set) execute(buf *bytes.Buffer, name string, data any) error {
	t := s.templates.Lookup(name)
	if t == nil {
		return fmt.Errorf("template not found %s", name)
	}
	if err := t.Execute(buf, data); err != nil {
		return fmt.Errorf("rendering %s: %v", name, err)
	}
	return nil
}

type templateRenderer struct {
	template *template.Template
}

func (r *templateRenderer) render(s *Set, doc *Doc, data []byte) ([]byte, error) {
	var buf bytes.Buffer
	err := r.template.Execute(&buf, struct {
		Meta    *Metadata
		Set     *Set
		TOC     template.HTML
		Content template.HTML
	}{
		Meta:    doc.Meta(),
		Set:     s,
		TOC:     doc.TOC(),
		Content: template.HTML(data),
	})
	if err != nil {
		return nil, fmt.Errorf("rendering template: %v", err)
	}
	return buf.Bytes(), nil
}

// feedRenderer renders an Atom feed with one entry per report.
type feedRenderer struct{}

func (r *feedRenderer) render(s *Set, doc *Doc, data []byte) ([]byte, error) {
	reports := s.Reports()
	var updated time.Time
	for _, d := range reports {
		if d.Meta().Updated.After(updated) {
			updated = d.Meta().Updated
		}
	}

	feed := atom.Feed{
		Title:   doc.Meta().Title,
		ID:      "tag:linediff.znkr.io,2025:reports",
		Updated: atom.Time(updated),
		Link: []atom.Link{{
			Rel:  "self",
			Href: FeedPath,
		}},
	}

	for _, d := range reports {
		html, err := s.RenderContent(d)
		if err != nil {
			return nil, err
		}

		e := &atom.Entry{
			Title: d.Meta().Title,
			ID:    feed.ID + d.Path(),
			Link: []atom.Link{{
				Rel:  "alternate",
				Href: d.Path(),
			}},
			Published: atom.Time(d.Meta().Published),
			Updated:   atom.Time(d.Meta().Updated),
			Summary: &atom.Text{
				Type: "html",
				Body: d.Meta().Abstract,
			},
			Content: &atom.Text{
				Type: "html",
				Body: string(html),
			},
		}
		feed.Entry = append(feed.Entry, e)
	}

	b, err := xml.Marshal(feed)
	if err != nil {
		return nil, fmt.Errorf("encoding feed: %v", err)
	}
	return b, nil
}
