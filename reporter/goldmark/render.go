// Package goldmark renders the markdown of report documents to HTML.
package goldmark

import (
	"bytes"
	"fmt"

	mathml "github.com/wyatt915/goldmark-treeblood"
	"github.com/wyatt915/treeblood"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
	"go.abhg.dev/goldmark/toc"

	"linediff.znkr.io/reporter/goldmark/admonitions"
)

// Render renders data to HTML. It also returns a rendered table of contents for all headings
// below the document title, or nil if there are none.
func Render(data []byte) (content, contents []byte, err error) {
	md := goldmark.New(
		goldmark.WithExtensions(
			extension.Footnote,
			extension.Table,
			admonitions.Extension,
			mathExtension{},
		),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
			parser.WithASTTransformers(
				util.Prioritized(anchorLinks{}, 100),
			),
		),
		goldmark.WithRendererOptions(html.WithUnsafe()),
	)

	root := md.Parser().Parse(text.NewReader(data))

	var buf bytes.Buffer
	if err := md.Renderer().Render(&buf, data, root); err != nil {
		return nil, nil, fmt.Errorf("rendering markdown: %v", err)
	}

	tree, err := toc.Inspect(root, data, toc.MinDepth(2), toc.Compact(true))
	if err != nil {
		return nil, nil, fmt.Errorf("inspecting headings: %v", err)
	}
	var tocBuf bytes.Buffer
	if list := toc.RenderList(tree); list != nil {
		if err := md.Renderer().Render(&tocBuf, data, list); err != nil {
			return nil, nil, fmt.Errorf("rendering table of contents: %v", err)
		}
		return buf.Bytes(), tocBuf.Bytes(), nil
	}
	return buf.Bytes(), nil, nil
}

// anchorLinks appends an empty link to every heading that points to the heading itself.
type anchorLinks struct{}

func (anchorLinks) Transform(doc *ast.Document, _ text.Reader, _ parser.Context) {
	ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		h, ok := n.(*ast.Heading)
		if !ok {
			return ast.WalkContinue, nil
		}
		id, ok := h.AttributeString("id")
		if !ok {
			return ast.WalkSkipChildren, nil
		}
		idb, ok := id.([]byte)
		if !ok {
			return ast.WalkSkipChildren, nil
		}
		link := ast.NewLink()
		link.Destination = append([]byte("#"), idb...)
		link.SetAttributeString("class", []byte("anchor-link"))
		h.AppendChild(h, link)
		return ast.WalkSkipChildren, nil
	})
}

// mathExtension renders $...$, $$...$$ and \\(...\\) math as MathML. It registers the parsers and
// the renderer of goldmark-treeblood, but runs its inline parser through inlineMath.
type mathExtension struct{}

func (mathExtension) Extend(m goldmark.Markdown) {
	m.Parser().AddOptions(
		parser.WithInlineParsers(
			util.Prioritized(inlineMath{mathml.NewTexInlineRegionParser()}, 50),
		),
		parser.WithBlockParsers(
			util.Prioritized(mathml.NewTexBlockRegionParser(), 90),
		),
	)
	m.Renderer().AddOptions(
		renderer.WithNodeRenderers(
			util.Prioritized(mathml.NewMathRenderer(treeblood.NewDocument(nil, false)), 100),
		),
	)
}

// inlineMath wraps the inline math parser of goldmark-treeblood. That parser advances the reader
// by the offset of the closing delimiter minus the absolute offset of the line, which moves the
// reader backwards or into unrelated text whenever math isn't at the very start of the document.
// inlineMath adds the line offset back. Math without a closing delimiter on the same line is left
// as text.
type inlineMath struct {
	parser.InlineParser
}

func (p inlineMath) Parse(parent ast.Node, block text.Reader, pc parser.Context) ast.Node {
	line, pos := block.Position()
	_, seg := block.PeekLine()
	r := &lineReader{Reader: block, start: seg.Start}
	n := p.InlineParser.Parse(parent, r, pc)
	if r.lineAdvanced {
		block.SetPosition(line, pos)
		return nil
	}
	return n
}

// lineReader corrects the advance of a parser that treats absolute line offsets as relative ones.
type lineReader struct {
	text.Reader
	start        int
	lineAdvanced bool
}

func (r *lineReader) AdvanceLine() {
	r.lineAdvanced = true
	r.Reader.AdvanceLine()
}

func (r *lineReader) Advance(n int) {
	if !r.lineAdvanced {
		n += r.start
	}
	r.Reader.Advance(n)
}
