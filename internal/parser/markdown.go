package parser

import (
	"bytes"
	"context"
	"io"
	"strconv"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// MarkdownParser handles Markdown files using goldmark. Headings keep
// their # markers; every block is separated by a blank line.
type MarkdownParser struct{}

func (p *MarkdownParser) Parse(_ context.Context, r io.Reader, _ string) (string, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}

	doc := goldmark.New().Parser().Parse(text.NewReader(src))

	var blocks []string
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		if b := renderBlock(n, src); b != "" {
			blocks = append(blocks, b)
		}
	}
	return strings.Join(blocks, "\n\n"), nil
}

func renderBlock(n ast.Node, src []byte) string {
	switch node := n.(type) {
	case *ast.Heading:
		title := extractText(node, src)
		if title == "" {
			return ""
		}
		return strings.Repeat("#", node.Level) + " " + title
	case *ast.List:
		var items []string
		num := node.Start
		for item := node.FirstChild(); item != nil; item = item.NextSibling() {
			t := extractText(item, src)
			if t == "" {
				continue
			}
			if node.IsOrdered() {
				t = strconv.Itoa(num) + ". " + t
				num++
			}
			items = append(items, t)
		}
		return strings.Join(items, "\n")
	case *ast.FencedCodeBlock, *ast.CodeBlock:
		var buf bytes.Buffer
		lines := n.Lines()
		for i := 0; i < lines.Len(); i++ {
			line := lines.At(i)
			buf.Write(line.Value(src))
		}
		return strings.TrimRight(buf.String(), "\n")
	case *ast.ThematicBreak, *ast.HTMLBlock:
		return ""
	default:
		return extractText(n, src)
	}
}

// extractText gets the text content of a goldmark AST node.
func extractText(n ast.Node, src []byte) string {
	var buf bytes.Buffer
	if n.Type() == ast.TypeBlock && n.FirstChild() == nil {
		lines := n.Lines()
		for i := 0; i < lines.Len(); i++ {
			line := lines.At(i)
			buf.Write(line.Value(src))
		}
	}
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		switch child := c.(type) {
		case *ast.Text:
			buf.Write(child.Segment.Value(src))
			if child.HardLineBreak() || child.SoftLineBreak() {
				buf.WriteByte('\n')
			}
		case *ast.String:
			buf.Write(child.Value)
		default:
			if c.Type() == ast.TypeBlock && buf.Len() > 0 {
				buf.WriteByte('\n')
			}
			buf.WriteString(extractText(c, src))
		}
	}
	return strings.TrimSpace(buf.String())
}
