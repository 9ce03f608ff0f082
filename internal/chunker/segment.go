package chunker

import (
	"regexp"
	"strings"
)

var (
	terminalPeriodRe = regexp.MustCompile(`\.\s*$`)
	enumeratedItemRe = regexp.MustCompile(`^\w[.)]\s`)
	sectionKeywordRe = regexp.MustCompile(`(?i)^(Abstract|Introduction|Conclusion|References|Appendix|Chapter|Part)`)
)

// boundaryContext is what a boundary rule sees at line i.
type boundaryContext struct {
	line, next string // trimmed
	index      int
	total      int
}

type boundaryRule struct {
	name  string
	match func(c *Chunker, b boundaryContext) bool
}

var boundaryRules = []boundaryRule{
	{"blank_before_header", func(c *Chunker, b boundaryContext) bool {
		return b.line == "" && c.IsHeaderLike(b.next)
	}},
	{"header_before_body", func(c *Chunker, b boundaryContext) bool {
		return c.IsHeaderLike(b.line) && b.next != "" && !c.IsHeaderLike(b.next)
	}},
	{"enumeration", func(_ *Chunker, b boundaryContext) bool {
		return terminalPeriodRe.MatchString(b.line) && enumeratedItemRe.MatchString(b.next)
	}},
	{"blank_before_keyword", func(_ *Chunker, b boundaryContext) bool {
		return b.line == "" && sectionKeywordRe.MatchString(b.next)
	}},
	{"paragraph_break", func(_ *Chunker, b boundaryContext) bool {
		return b.line == "" && b.next == "" && b.index+2 < b.total
	}},
}

func (c *Chunker) isBoundary(b boundaryContext) bool {
	for _, r := range boundaryRules {
		if r.match(c, b) {
			return true
		}
	}
	return false
}

// Segment splits text into semantic blocks. Every line belongs to exactly
// one block, in order; blocks made only of blank lines are dropped.
func (c *Chunker) Segment(text string) []string {
	text = strings.TrimSpace(normalizeNewlines(text))
	if text == "" {
		return nil
	}
	lines := strings.Split(text, "\n")

	var blocks []string
	var current []string
	for i, raw := range lines {
		current = append(current, raw)

		b := boundaryContext{line: strings.TrimSpace(raw), index: i, total: len(lines)}
		if i+1 < len(lines) {
			b.next = strings.TrimSpace(lines[i+1])
		}
		if i == len(lines)-1 || c.isBoundary(b) {
			if hasContent(current) {
				blocks = append(blocks, strings.Join(current, "\n"))
			}
			current = current[:0]
		}
	}
	return blocks
}

// Segment splits text using the default configuration.
func Segment(text string) []string {
	return defaultChunker.Segment(text)
}

func hasContent(lines []string) bool {
	for _, l := range lines {
		if strings.TrimSpace(l) != "" {
			return true
		}
	}
	return false
}

func normalizeNewlines(s string) string {
	return strings.ReplaceAll(s, "\r\n", "\n")
}
