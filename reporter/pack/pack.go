// Package pack writes a rendered report set into a tar archive.
package pack

import (
	"archive/tar"
	"fmt"
	"mime"
	"os"
	"path"
	"regexp"
	"strings"

	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/css"
	"github.com/tdewolff/minify/v2/html"
	"github.com/tdewolff/minify/v2/js"
	"github.com/tdewolff/minify/v2/svg"
	"github.com/tdewolff/minify/v2/xml"

	"linediff.znkr.io/reporter/report"
)

var minified = map[string]bool{
	"text/html":            true,
	"text/css":             true,
	"image/svg+xml":        true,
	"application/atom+xml": true,
	"text/javascript":      true,
}

// Pack renders every document of s and writes it to the tar file filename. HTML, CSS, SVG,
// JavaScript and XML documents are minified. Pages are written as <path>/index.html.
func Pack(filename string, s *report.Set) error {
	file, err := os.OpenFile(filename, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("opening file: %v", err)
	}
	defer file.Close()

	w := &writer{
		tw:   tar.NewWriter(file),
		m:    newMinifier(),
		dirs: make(map[string]bool),
	}
	for _, d := range s.AllDocs() {
		b, err := s.RenderPage(d)
		if err != nil {
			return err
		}
		if err := w.add(d, b); err != nil {
			return err
		}
	}

	if err := w.tw.Close(); err != nil {
		return fmt.Errorf("closing archive: %v", err)
	}
	return file.Close()
}

func newMinifier() *minify.M {
	m := minify.New()
	m.AddFunc("text/css", css.Minify)
	m.AddFunc("text/html", html.Minify)
	m.AddFunc("image/svg+xml", svg.Minify)
	m.AddFuncRegexp(regexp.MustCompile("^(application|text)/(x-)?(java|ecma)script$"), js.Minify)
	m.AddFuncRegexp(regexp.MustCompile("[/+]xml$"), xml.Minify)
	return m
}

type writer struct {
	tw   *tar.Writer
	m    *minify.M
	dirs map[string]bool
}

func (w *writer) add(d *report.Doc, b []byte) error {
	mediatype, _, err := mime.ParseMediaType(d.MimeType())
	if err != nil {
		return fmt.Errorf("invalid mime type for %s: %v", d.Path(), err)
	}

	if minified[mediatype] {
		b, err = w.m.Bytes(d.MimeType(), b)
		if err != nil {
			return fmt.Errorf("minification failed for %s: %v", d.Path(), err)
		}
	}

	name := archivePath(d.Path(), mediatype)
	if err := w.mkdir(path.Dir(name)); err != nil {
		return err
	}

	hdr := &tar.Header{
		Name: "./" + name,
		Mode: int64(0644),
		Size: int64(len(b)),
	}
	if err := w.tw.WriteHeader(hdr); err != nil {
		return fmt.Errorf("writing header: %v", err)
	}
	if _, err := w.tw.Write(b); err != nil {
		return fmt.Errorf("writing body: %v", err)
	}
	return nil
}

func (w *writer) mkdir(dir string) error {
	if w.dirs[dir] {
		return nil
	}
	name := "./" + dir + "/"
	if dir == "." {
		name = "./"
	}
	hdr := &tar.Header{
		Name:     name,
		Typeflag: tar.TypeDir,
		Mode:     int64(0755),
	}
	if err := w.tw.WriteHeader(hdr); err != nil {
		return fmt.Errorf("writing header: %v", err)
	}
	w.dirs[dir] = true
	return nil
}

// archivePath maps a document path to a file name in the archive.
func archivePath(p, mediatype string) string {
	switch {
	case p == "/":
		p = "index.html"
	case mediatype == "text/html" && path.Ext(p) == "":
		p += "/index.html"
	}
	return strings.TrimPrefix(p, "/")
}
