// Package highlight turns source text and line diffs into syntax highlighted HTML lines.
package highlight

import (
	"fmt"
	"html"
	"html/template"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/lexers"

	"linediff.znkr.io/diff"
)

var style = map[chroma.TokenType]string{
	chroma.Keyword:           "hl-b",
	chroma.KeywordPseudo:     "",
	chroma.KeywordType:       "",
	chroma.NameClass:         "hl-b",
	chroma.NameEntity:        "hl-b",
	chroma.NameException:     "hl-b",
	chroma.NameNamespace:     "hl-b",
	chroma.NameTag:           "hl-b",
	chroma.NameBuiltin:       "hl-bl",
	chroma.LiteralString:     "hl-i",
	chroma.OperatorWord:      "hl-b",
	chroma.Comment:           "hl-ii",
	chroma.CommentPreproc:    "",
	chroma.GenericEmph:       "hl-i",
	chroma.GenericHeading:    "hl-b",
	chroma.GenericPrompt:     "hl-b",
	chroma.GenericStrong:     "hl-b",
	chroma.GenericSubheading: "hl-b",
}

type Option func(*highlighter)

// Lang selects the lexer by language name, e.g. "go".
func Lang(lang string) Option {
	return func(o *highlighter) {
		o.lexer = lexers.Get(lang)
	}
}

// LangFromFilename selects the lexer matching filename.
func LangFromFilename(filename string) Option {
	return func(o *highlighter) {
		o.lexer = lexers.Match(filename)
	}
}

// Differ replaces the differ used by [Diff]. By default, [Diff] uses [diff.Compute].
func Differ(d *diff.Differ) Option {
	return func(o *highlighter) {
		o.differ = d
	}
}

type Line struct {
	LineNo  int
	Content template.HTML
}

// Highlight highlights in and returns it line by line.
func Highlight(in string, opts ...Option) ([]Line, error) {
	hl := fromOptions(opts)
	lines, err := hl.lines(in)
	if err != nil {
		return nil, fmt.Errorf("parsing input: %v", err)
	}

	ret := make([]Line, 0, len(lines))
	for i, line := range lines {
		ret = append(ret, Line{i + 1, template.HTML(hl.highlight(line))})
	}
	return ret, nil
}

// Edit is a highlighted line of a diff. OldLineNo and NewLineNo are 1-based line numbers in the
// old and new text, or -1 if the line is not present on that side.
type Edit struct {
	Kind      diff.Kind
	OldLineNo int
	NewLineNo int
	Content   template.HTML
}

func (ed *Edit) IsUnchanged() bool { return ed.Kind == diff.Unchanged }
func (ed *Edit) IsRemoved() bool   { return ed.Kind == diff.Removed }
func (ed *Edit) IsAdded() bool     { return ed.Kind == diff.Added }

// Diff diffs a and b line by line and highlights every line of the result. Together with the
// edits, it returns the stats of the diff.
func Diff(a, b string, opts ...Option) ([]Edit, diff.Stats, error) {
	hl := fromOptions(opts)

	var r diff.Result
	if hl.differ != nil {
		var err error
		r, err = hl.differ.Compute(a, b)
		if err != nil {
			return nil, diff.Stats{}, err
		}
	} else {
		r = diff.Compute(a, b)
	}

	edits, err := hl.edits(r.Lines)
	if err != nil {
		return nil, diff.Stats{}, err
	}
	return edits, r.Stats, nil
}

// ParseDiff reads a diff in the format produced by [diff.Result.String] and highlights it. Lines
// without a '+' or '-' prefix are unchanged lines, a leading space is dropped.
func ParseDiff(in string, opts ...Option) ([]Edit, error) {
	hl := fromOptions(opts)
	var lines []diff.Line
	for l := range strings.Lines(in) {
		l = strings.TrimSuffix(l, "\n")
		kind := diff.Unchanged
		if len(l) > 0 {
			switch l[0] {
			case '-':
				kind = diff.Removed
				l = l[1:]
			case '+':
				kind = diff.Added
				l = l[1:]
			case ' ':
				l = l[1:]
			}
		}
		lines = append(lines, diff.Line{Kind: kind, Content: l})
	}
	return hl.edits(lines)
}

func (hl *highlighter) edits(lines []diff.Line) ([]Edit, error) {
	ret := make([]Edit, 0, len(lines))
	s, t := 0, 0
	for _, line := range lines {
		tokens, err := hl.tokens(line.Content)
		if err != nil {
			return nil, err
		}
		content := template.HTML(hl.highlight(tokens))
		switch line.Kind {
		case diff.Unchanged:
			ret = append(ret, Edit{line.Kind, s + 1, t + 1, content})
			s++
			t++
		case diff.Removed:
			ret = append(ret, Edit{line.Kind, s + 1, -1, content})
			s++
		case diff.Added:
			ret = append(ret, Edit{line.Kind, -1, t + 1, content})
			t++
		}
	}
	return ret, nil
}

type highlighter struct {
	lexer  chroma.Lexer
	differ *diff.Differ
}

func fromOptions(opts []Option) *highlighter {
	hl := &highlighter{}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(hl)
	}

	if hl.lexer == nil {
		hl.lexer = lexers.Fallback
	}
	hl.lexer = chroma.Coalesce(hl.lexer)
	return hl
}

func (hl *highlighter) highlight(line []chroma.Token) string {
	var sb strings.Builder
	for _, token := range line {
		// Lexers report the end of a line as part of the last token.
		value := strings.TrimSuffix(token.Value, "\n")
		if value == "" {
			continue
		}
		class := class(token.Type)
		if class != "" {
			fmt.Fprintf(&sb, "<span class=\"%s\">", class)
		}
		sb.WriteString(html.EscapeString(value))
		if class != "" {
			sb.WriteString("</span>")
		}
	}
	return sb.String()
}

func (hl *highlighter) tokens(in string) ([]chroma.Token, error) {
	it, err := hl.lexer.Tokenise(nil, in)
	if err != nil {
		return nil, fmt.Errorf("creating iterator: %v", err)
	}
	return it.Tokens(), nil
}

func (hl *highlighter) lines(in string) ([][]chroma.Token, error) {
	it, err := hl.lexer.Tokenise(nil, in)
	if err != nil {
		return nil, fmt.Errorf("creating iterator: %v", err)
	}
	lines := chroma.SplitTokensIntoLines(it.Tokens())

	// A final newline leaves an empty line behind.
	if n := len(lines); n > 0 && isEmpty(lines[n-1]) {
		lines = lines[:n-1]
	}
	return lines, nil
}

func isEmpty(line []chroma.Token) bool {
	for _, token := range line {
		if token.Value != "" {
			return false
		}
	}
	return true
}

func class(t chroma.TokenType) string {
	s, ok := style[t]
	if ok {
		return s
	}
	s, ok = style[t.SubCategory()]
	if ok {
		return s
	}
	s, ok = style[t.Category()]
	if ok {
		return s
	}
	return ""
}
