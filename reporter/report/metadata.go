package report

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

// parseMetadata parses the front matter at the start of a markdown document and returns it
// together with the remaining document. The front matter is enclosed in lines consisting of
// "~~~" and contains "key: value" pairs. Values continue on following lines that are indented
// up to the column the value started in:
//
//	~~~
//	   title: Engine rewrite
//	abstract: The first line
//	          and the second one.
//	~~~
//
// A document without front matter has empty metadata and isn't a report.
func parseMetadata(in []byte) (*Metadata, []byte, error) {
	const magic = "~~~\n"

	var errs []error
	var ch rune
	col := 0
	line := 1
	errorf := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}
	next := func() {
		if len(errs) > 0 || len(in) == 0 {
			ch = -1
			return
		}
		ch0, w := utf8.DecodeRune(in)
		in = in[w:]
		if ch0 == utf8.RuneError && w <= 1 {
			errorf("invalid UTF-8 [%d:%d]", line, col)
			ch = -1
			return
		}
		if ch == '\n' {
			line++
			col = 0
		}
		col += w
		ch = ch0
	}
	isnext := func(s string) bool {
		if len(errs) > 0 || len(in) < len(s) {
			return false
		}
		found := bytes.Equal(in[:len(s)], []byte(s))
		if found {
			in = in[len(s):]
		}
		return found
	}

	if !isnext(magic) {
		return &Metadata{}, in, nil
	}
	line++

	meta := make(map[string]string)
	for {
		next()
		if ch == -1 {
			errorf("unterminated front matter")
			break
		}

		// Consume whitespace
		for ch != '\n' && unicode.IsSpace(ch) {
			if ch == '\t' {
				errorf("invalid format, found a tab character [%d:%d]", line, col)
			}
			next()
		}

		// Parse identifier
		if !unicode.IsLetter(ch) {
			errorf("invalid format, expected identifier, got %q [%d:%d]", string(ch), line, col)
			break
		}
		var sb strings.Builder
		for unicode.IsLetter(ch) || unicode.IsDigit(ch) || ch == '-' || ch == '_' {
			sb.WriteRune(ch)
			next()
		}
		if ch != ':' {
			errorf("invalid format, expected \":\", got %q [%d:%d]", string(ch), line, col)
			break
		}
		key := sb.String()
		sb.Reset()
		if _, dup := meta[key]; dup {
			errorf("duplicate key %q [%d:%d]", key, line, col)
			break
		}
		next()

		// Consume whitespace
		for ch != '\n' && unicode.IsSpace(ch) {
			next()
		}

		// Parse value
		indent := col - 1
		for ch != -1 {
			if ch == '\n' {
				if isnext("\n") {
					// Blank lines within a value are dropped.
					line++
					continue
				}
				if isnext(strings.Repeat(" ", indent)) {
					// continuation of the line before
					sb.WriteRune('\n')
					line++
					col = indent
					ch = 0
					next()
					continue
				}
				break
			}
			sb.WriteRune(ch)
			next()
		}
		meta[key] = strings.TrimRightFunc(sb.String(), unicode.IsSpace)
		if ch == '\n' && isnext(magic) {
			break
		}
	}

	parseTime := func(key string) time.Time {
		v, ok := meta[key]
		if !ok {
			return time.Time{}
		}
		t, err := time.ParseInLocation("2006-01-02", v, time.UTC)
		if err != nil {
			errorf("parsing %s: %v", key, err)
		}
		return t
	}
	published := parseTime("published")
	updated := parseTime("updated")
	if updated.IsZero() {
		updated = published
	}

	if len(errs) > 0 {
		return nil, nil, errors.Join(errs...)
	}
	return &Metadata{
		Title:     meta["title"],
		Published: published,
		Updated:   updated,
		Abstract:  meta["abstract"],
		Template:  meta["template"],
		Report:    meta["report"] != "false",
	}, in, nil
}
