// Package directives parses the directives embedded in report documents.
//
// A directive is an HTML comment starting with "<!--#", followed by a name and attributes:
//
//	<!--#include-diff a="old.txt" b="new.txt" lang="go" -->
//
// Attribute values are double quoted. A value starting with `"""` extends up to the next `"""`
// and may span multiple lines, leading whitespace on continuation lines is dropped.
package directives

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

const eof = -1

// Directive is a single directive found in a document. Pos and End are byte offsets of the
// complete comment.
type Directive struct {
	Pos, End int
	Line     int
	Name     string
	Attrs    map[string]string
}

// ErrNotFound is returned by [ParseFirst] if a document doesn't contain the directive.
var ErrNotFound = errors.New("not found")

type SyntaxError struct {
	Msg       string
	Pos       int
	Line, Col int
}

func (err *SyntaxError) Error() string {
	return fmt.Sprintf("%s [%d:%d]", err.Msg, err.Line, err.Col)
}

// Parse returns all directives in in, in document order.
func Parse(in []byte) ([]Directive, error) {
	var dirs []Directive
	err := parse(in, func(d Directive) bool {
		dirs = append(dirs, d)
		return true
	})
	if err != nil {
		return nil, err
	}
	return dirs, nil
}

// ParseFirst returns the first directive called name. Parsing stops there, syntax errors after
// the directive are not reported.
func ParseFirst(in []byte, name string) (Directive, error) {
	var dir Directive
	found := false
	err := parse(in, func(d Directive) bool {
		if d.Name != name {
			return true
		}
		dir, found = d, true
		return false
	})
	if err != nil {
		return Directive{}, err
	}
	if !found {
		return Directive{}, fmt.Errorf("directive %s: %w", name, ErrNotFound)
	}
	return dir, nil
}

func parse(in []byte, yield func(Directive) bool) (err error) {
	defer func() {
		if e := recover(); e != nil {
			if e, ok := e.(*SyntaxError); ok {
				err = e
				return
			}
			panic(e)
		}
	}()

	p := parser{
		in:   in,
		line: 1,
	}
	for {
		dir, ok := p.parseNextDirective()
		if !ok || !yield(dir) {
			return nil
		}
	}
}

type parser struct {
	in []byte

	ch  rune
	chw int

	pos       int
	col, line int
	started   bool
}

func (p *parser) parseNextDirective() (Directive, bool) {
	for {
		p.next()
		if p.ch == eof {
			return Directive{}, false
		}

		pos, line := p.pos, p.line
		if p.ch == '<' && p.consume("<!--#") {
			d := Directive{
				Pos:   pos,
				Line:  line,
				Attrs: make(map[string]string),
			}

			p.consumeSpaces()
			d.Name = p.parseIdent()
			for {
				p.consumeSpaces()
				if !unicode.IsLetter(p.ch) {
					break
				}
				attr := p.parseIdent()
				if !p.consume("=") {
					p.errorf("unexpected %q, expected '='", p.ch)
				}
				if _, dup := d.Attrs[attr]; dup {
					p.errorf("duplicate attribute %q", attr)
				}
				d.Attrs[attr] = p.parseValue()
			}

			if !p.consume("-->") {
				p.errorf("unexpected %q, expected '-->'", p.ch)
			}
			d.End = p.pos

			// The parser always looks at the character after the closing "-->". Step back, so
			// the next call starts from there.
			p.back()
			return d, true
		}
	}
}

func (p *parser) errorf(format string, args ...any) {
	panic(&SyntaxError{
		Msg:  fmt.Sprintf(format, args...),
		Pos:  p.pos,
		Line: p.line,
		Col:  p.col,
	})
}

func (p *parser) next() {
	if p.started {
		p.pos += p.chw
	}
	p.started = true
	if p.ch == '\n' {
		p.line++
		p.col = 0
	}
	if p.pos >= len(p.in) {
		p.ch = eof
		p.chw = 0
		return
	}
	p.ch, p.chw = utf8.DecodeRune(p.in[p.pos:])
	if p.ch == utf8.RuneError && p.chw <= 1 {
		p.errorf("invalid UTF-8")
	}
	p.col++
}

// back undoes the last call to next. It must not be called twice in a row.
func (p *parser) back() {
	if p.ch == eof {
		p.started = false
		return
	}
	p.col--
	p.started = false
	p.ch = 0
	p.chw = 0
}

func (p *parser) consumeSpaces() {
	for unicode.IsSpace(p.ch) {
		p.next()
	}
}

func (p *parser) consume(s string) bool {
	for _, r := range s {
		if p.ch != r {
			return false
		}
		p.next()
	}
	return true
}

func (p *parser) isnext(s string) bool {
	if len(p.in)-p.pos < len(s) {
		return false
	}
	return bytes.Equal(p.in[p.pos:p.pos+len(s)], []byte(s))
}

func (p *parser) parseIdent() string {
	if !unicode.IsLetter(p.ch) {
		p.errorf("unexpected %q, expected identifier", p.ch)
	}
	pos := p.pos
	for unicode.IsLetter(p.ch) || unicode.IsDigit(p.ch) || p.ch == '-' {
		p.next()
	}
	return string(p.in[pos:p.pos])
}

func (p *parser) parseValue() string {
	if p.ch != '"' {
		p.errorf("unexpected %q, expected '\"'", p.ch)
	}

	if p.isnext(`"""`) {
		p.next()
		p.next()
		p.next()
		var sb strings.Builder
		for !p.isnext(`"""`) && p.ch != eof {
			sb.WriteRune(p.ch)
			if p.ch == '\n' {
				p.next()
				for p.ch != '\n' && unicode.IsSpace(p.ch) {
					p.next()
				}
			} else {
				p.next()
			}
		}
		if p.ch == eof {
			p.errorf("unterminated tri-quoted string")
		}
		p.next()
		p.next()
		p.next()
		return sb.String()
	}

	p.next()
	pos := p.pos
	for p.ch != '"' && p.ch != eof && p.ch != '\n' {
		p.next()
	}
	if p.ch == eof || p.ch == '\n' {
		p.errorf("unterminated string")
	}
	v := p.in[pos:p.pos]
	p.next()
	return string(v)
}

func (d *Directive) HasAttr(name string) bool {
	_, ok := d.Attrs[name]
	return ok
}

// Require returns an error naming the first attribute in names that is missing or empty.
func (d *Directive) Require(names ...string) error {
	for _, name := range names {
		if d.Attrs[name] == "" {
			return fmt.Errorf("%s: missing or empty %s attribute", d.Name, name)
		}
	}
	return nil
}
