package parser

import (
	"context"
	"io"
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

// HTMLParser handles HTML files.
type HTMLParser struct{}

func (p *HTMLParser) Parse(_ context.Context, r io.Reader, _ string) (string, error) {
	return NormalizeHTMLReader(r)
}

var (
	blankRunRe   = regexp.MustCompile(`\n\s*\n\s*\n`)
	hspaceRunRe  = regexp.MustCompile(`[ \t]+`)
	lineLeadRe   = regexp.MustCompile(`\n[ \t]+`)
	lineTrailRe  = regexp.MustCompile(`[ \t]+\n`)
	skippedBlock = map[string]bool{"script": true, "style": true, "head": true, "noscript": true, "template": true}
)

// closeBreak is what a closing tag contributes to the text.
func closeBreak(tag string) string {
	switch tag {
	case "h1", "h2", "h3", "h4", "h5", "h6", "p":
		return "\n\n"
	case "div", "li", "tr":
		return "\n"
	}
	return " "
}

// NormalizeHTML flattens markup into line-based text. <br> and block
// closings become newlines, other tags become a space, entities are
// decoded, runs of blank lines collapse to one and horizontal whitespace
// collapses to a single space.
func NormalizeHTML(s string) string {
	out, _ := NormalizeHTMLReader(strings.NewReader(s))
	return out
}

// NormalizeHTMLReader is NormalizeHTML over a reader.
func NormalizeHTMLReader(r io.Reader) (string, error) {
	z := html.NewTokenizer(r)
	var b strings.Builder
	skipDepth := 0

	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			if err := z.Err(); err != io.EOF {
				return "", err
			}
			return collapseWhitespace(b.String()), nil
		case html.TextToken:
			if skipDepth == 0 {
				b.WriteString(strings.ReplaceAll(string(z.Text()), "\u00a0", " "))
			}
		case html.StartTagToken, html.SelfClosingTagToken:
			name, _ := z.TagName()
			tag := string(name)
			if skippedBlock[tag] && tt == html.StartTagToken {
				skipDepth++
				continue
			}
			if tag == "br" {
				b.WriteString("\n")
			} else {
				b.WriteString(" ")
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			tag := string(name)
			if skippedBlock[tag] {
				if skipDepth > 0 {
					skipDepth--
				}
				continue
			}
			if tag == "br" {
				b.WriteString("\n")
				continue
			}
			b.WriteString(closeBreak(tag))
		}
	}
}

func collapseWhitespace(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = blankRunRe.ReplaceAllString(s, "\n\n")
	s = hspaceRunRe.ReplaceAllString(s, " ")
	s = lineLeadRe.ReplaceAllString(s, "\n")
	s = lineTrailRe.ReplaceAllString(s, "\n")
	return strings.TrimSpace(s)
}
