package report

import (
	"cmp"
	"fmt"
	"html/template"
	"io/fs"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"linediff.znkr.io/diff"
	"linediff.znkr.io/reporter/goldmark"
)

// FeedPath is the path of the Atom feed listing all reports.
const FeedPath = "/feed.atom"

// Load loads a report set from the directory dir. Documents are read from dir/site and page
// templates from dir/templates. All diffs in the set are computed with d, a nil d computes
// diffs without a size limit.
func Load(dir string, d *diff.Differ) (*Set, error) {
	if d == nil {
		d = diff.New()
	}

	templates, err := loadTemplates(filepath.Join(dir, "templates"))
	if err != nil {
		return nil, fmt.Errorf("loading templates: %v", err)
	}

	docs, err := loadDocs(filepath.Join(dir, "site"), templates)
	if err != nil {
		return nil, err
	}

	docs[FeedPath] = Doc{
		path: FeedPath,
		mime: "application/atom+xml;charset=utf-8",
		meta: &Metadata{
			Title: "linediff reports",
		},
		contentRenderer: &passthroughRenderer{},
		pageRenderer:    &feedRenderer{},
	}

	return &Set{
		docs:      docs,
		templates: templates,
		differ:    d,
	}, nil
}

func loadTemplates(dir string) (*template.Template, error) {
	root := template.New("")
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || !strings.HasSuffix(path, ".html") {
			return err
		}

		b, err := os.ReadFile(path)
		if err != nil {
			return err
		}

		name := filepath.ToSlash(path[len(dir)+1 : len(path)-len(".html")])
		if _, err = root.New(name).Parse(string(b)); err != nil {
			return err
		}
		return nil
	})
	return root, err
}

func loadDocs(dir string, templates *template.Template) (map[string]Doc, error) {
	docs := make(map[string]Doc)
	err := filepath.WalkDir(dir, func(fpath string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() {
			// Skip hidden directories
			if fpath != dir && strings.HasPrefix(d.Name(), ".") {
				return fs.SkipDir
			}
			return nil
		}

		doc := Doc{
			dir:             filepath.Dir(fpath),
			contentRenderer: &passthroughRenderer{},
			pageRenderer:    &passthroughRenderer{},
		}

		meta, data, err := readFile(fpath)
		if err != nil {
			return err
		}
		doc.meta = meta
		doc.data = data

		path := filepath.ToSlash(strings.TrimPrefix(fpath, dir))
		pdir, base := filepath.Split(path)
		ext := filepath.Ext(base)

		switch ext {
		case ".md":
			if p := strings.TrimSuffix(base, ext); p == "index" {
				if pdir == "/" {
					path = pdir
				} else {
					path = pdir[:len(pdir)-1]
				}
			} else {
				path = pdir + p
			}
			doc.mime = "text/html;charset=UTF-8"
			doc.contentRenderer = chain(&markdownRenderer{}, &directivesRenderer{})

			_, toc, err := goldmark.Render(data)
			if err != nil {
				return fmt.Errorf("%s: %v", fpath, err)
			}
			doc.toc = template.HTML(toc)

			tname := cmp.Or(doc.meta.Template, "report")
			t := templates.Lookup(tname)
			if t == nil {
				return fmt.Errorf("%s: template not found %s", fpath, tname)
			}
			doc.pageRenderer = chain(doc.contentRenderer, &templateRenderer{t})
		default:
			doc.mime = cmp.Or(mime.TypeByExtension(ext), "application/octet-stream")
		}

		doc.path = path
		docs[path] = doc
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("loading docs: %v", err)
	}
	return docs, nil
}

func readFile(file string) (*Metadata, []byte, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, nil, fmt.Errorf("reading file: %v", err)
	}

	if strings.HasSuffix(file, ".md") {
		meta, data, err := parseMetadata(data)
		if err != nil {
			return nil, nil, fmt.Errorf("parsing metadata of %s: %v", file, err)
		}
		return meta, data, nil
	}
	return nil, data, nil
}
