package chunker

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// HeaderRule is one independent predicate deciding whether a trimmed line
// looks like a section header.
type HeaderRule struct {
	Name  string
	Match func(line string) bool
}

var (
	numberedHeaderRe    = regexp.MustCompile(`^\d+(\.\d+)*[.)]\s+`)
	romanHeaderRe       = regexp.MustCompile(`^[IVX]+[.)]\s+`)
	letteredHeaderRe    = regexp.MustCompile(`^[A-Z][.)]\s+`)
	allCapsHeaderRe     = regexp.MustCompile(`^[A-Z\s\d.\-:]{3,}$`)
	colonHeaderRe       = regexp.MustCompile(`^[A-Z][a-z\s\d.\-]*:$`)
	markdownHeaderRe    = regexp.MustCompile(`^#{1,6}\s+`)
	underlineHeaderRe   = regexp.MustCompile(`^[=\-]{3,}$`)
	sectionVocabularyRe = regexp.MustCompile(`(?i)^(Abstract|Introduction|Background|Methodology|Methods|Results|Discussion|Conclusion|References|Appendix|Summary|Overview|Chapter|Part|Section|Table of Contents)$`)
)

// HeaderRules returns the ordered header rules. maxLen bounds the length of
// ALL-CAPS lines that still count as headers.
func HeaderRules(maxLen int) []HeaderRule {
	return []HeaderRule{
		{Name: "numbered", Match: numberedHeaderRe.MatchString},
		{Name: "roman", Match: romanHeaderRe.MatchString},
		{Name: "lettered", Match: letteredHeaderRe.MatchString},
		{Name: "all_caps", Match: func(line string) bool {
			return allCapsHeaderRe.MatchString(line) && utf8.RuneCountInString(line) < maxLen
		}},
		{Name: "colon", Match: colonHeaderRe.MatchString},
		{Name: "markdown", Match: markdownHeaderRe.MatchString},
		{Name: "underline", Match: underlineHeaderRe.MatchString},
		{Name: "section_vocabulary", Match: sectionVocabularyRe.MatchString},
	}
}

// HeaderRule returns the name of the first rule matching line, or "" when
// the line is not header-like. Surrounding whitespace is ignored.
func (c *Chunker) HeaderRule(line string) string {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return ""
	}
	for _, r := range c.rules {
		if r.Match(trimmed) {
			return r.Name
		}
	}
	return ""
}

// IsHeaderLike reports whether any header rule matches line.
func (c *Chunker) IsHeaderLike(line string) bool {
	return c.HeaderRule(line) != ""
}

// IsHeaderLike classifies line using the default configuration.
func IsHeaderLike(line string) bool {
	return defaultChunker.IsHeaderLike(line)
}
