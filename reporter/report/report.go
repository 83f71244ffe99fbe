// Package report holds an in-memory set of diff reports and the documents around them.
package report

import (
	"cmp"
	"fmt"
	"html/template"
	"slices"
	"time"

	"linediff.znkr.io/diff"
)

// Set is an in-memory representation of all documents that make up the reports.
type Set struct {
	templates *template.Template
	differ    *diff.Differ
	docs      map[string]Doc
}

// Doc is a single document, that is anything that can be served as a static file.
type Doc struct {
	path            string
	dir             string // directory of the file, used as a relative directory to load related files
	mime            string
	meta            *Metadata
	data            []byte
	toc             template.HTML
	contentRenderer renderer
	pageRenderer    renderer
}

type Metadata struct {
	Title     string
	Published time.Time
	Updated   time.Time
	Abstract  string
	Template  string
	Report    bool
}

// Doc returns the document for the given path, or nil if the document cannot be found.
func (s *Set) Doc(path string) *Doc {
	d, ok := s.docs[path]
	if !ok {
		return nil
	}
	return &d
}

// Reports returns all documents marked as reports, most recently published first. Reports
// published on the same day are ordered by path.
func (s *Set) Reports() []*Doc {
	var ret []*Doc
	for _, d := range s.docs {
		if d.meta == nil || !d.meta.Report {
			continue
		}
		ret = append(ret, &d)
	}
	slices.SortFunc(ret, func(a, b *Doc) int {
		return cmp.Or(
			b.meta.Published.Compare(a.meta.Published),
			cmp.Compare(a.path, b.path),
		)
	})
	return ret
}

// AllDocs returns all documents ordered by path.
func (s *Set) AllDocs() []*Doc {
	var ret []*Doc
	for _, d := range s.docs {
		ret = append(ret, &d)
	}
	slices.SortFunc(ret, func(a, b *Doc) int {
		return cmp.Compare(a.Path(), b.Path())
	})
	return ret
}

// Differ returns the differ used for all diffs in the set.
func (s *Set) Differ() *diff.Differ { return s.differ }

// RenderContent renders the content of doc, without the surrounding page.
func (s *Set) RenderContent(d *Doc) ([]byte, error) {
	b, err := d.contentRenderer.render(s, d, d.data)
	if err != nil {
		return nil, fmt.Errorf("rendering content of %s: %v", d.path, err)
	}
	return b, nil
}

// RenderPage renders doc as a page.
func (s *Set) RenderPage(d *Doc) ([]byte, error) {
	b, err := d.pageRenderer.render(s, d, d.data)
	if err != nil {
		return nil, fmt.Errorf("rendering page for %s: %v", d.path, err)
	}
	return b, nil
}

func (d *Doc) MimeType() string { return d.mime }
func (d *Doc) Meta() *Metadata  { return d.meta }
func (d *Doc) Path() string     { return d.path }
func (d *Doc) Dir() string      { return d.dir }

// TOC returns the rendered table of contents of a markdown document, if it has one.
func (d *Doc) TOC() template.HTML { return d.toc }
