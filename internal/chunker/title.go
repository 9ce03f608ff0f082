package chunker

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

const titleScanLines = 3

var (
	punctuationOnlyRe = regexp.MustCompile(`^[\s.\-=]+$`)

	// Applied in order to strip header markers from a title candidate.
	titlePrefixStrippers = []*regexp.Regexp{
		regexp.MustCompile(`^\d+(\.\d+)*[.)]\s*`),
		regexp.MustCompile(`^[IVX]+[.)]\s*`),
		regexp.MustCompile(`^[A-Z][.)]\s*`),
		regexp.MustCompile(`^#{1,6}\s*`),
		regexp.MustCompile(`:$`),
	}
)

// fillerWords are words common in running prose and rare in titles.
var fillerWords = map[string]bool{
	"the": true, "and": true, "of": true, "to": true, "in": true, "for": true,
	"with": true, "on": true, "at": true, "by": true, "from": true, "as": true,
	"is": true, "are": true, "was": true, "were": true, "be": true, "been": true,
	"being": true, "have": true, "has": true, "had": true, "do": true,
	"does": true, "did": true, "will": true, "would": true, "could": true,
	"should": true, "may": true, "might": true, "must": true, "can": true,
	"cannot": true, "this": true, "that": true, "these": true, "those": true,
	"which": true, "what": true, "who": true, "where": true, "when": true,
	"why": true, "how": true,
}

// ExtractTitle picks a title for block from its first three non-empty
// lines. Header-like lines win; otherwise a short line that does not read
// like prose; otherwise the first line, truncated. Empty input yields "".
func (c *Chunker) ExtractTitle(block string) string {
	var lines []string
	for _, l := range strings.Split(normalizeNewlines(block), "\n") {
		if l = strings.TrimSpace(l); l != "" {
			lines = append(lines, l)
		}
	}
	if len(lines) == 0 {
		return ""
	}

	for i := 0; i < len(lines) && i < titleScanLines; i++ {
		line := lines[i]
		n := utf8.RuneCountInString(line)
		if n < 3 || punctuationOnlyRe.MatchString(line) {
			continue
		}

		if c.IsHeaderLike(line) {
			title := stripHeaderMarkers(line)
			if tn := utf8.RuneCountInString(title); tn > 2 && tn < 100 {
				return title
			}
		}

		if n > 5 && n < 100 && strings.Count(line, ".") < 2 && c.fillerRatio(line) < c.cfg.FillerRatio {
			return line
		}
	}

	return truncateTitle(lines[0], 50)
}

// ExtractTitle uses the default configuration.
func ExtractTitle(block string) string {
	return defaultChunker.ExtractTitle(block)
}

func stripHeaderMarkers(line string) string {
	for _, re := range titlePrefixStrippers {
		line = re.ReplaceAllString(line, "")
	}
	return strings.TrimSpace(line)
}

func (c *Chunker) fillerRatio(line string) float64 {
	words := strings.Fields(strings.ToLower(line))
	if len(words) == 0 {
		return 0
	}
	filler := 0
	for _, w := range words {
		if fillerWords[w] {
			filler++
		}
	}
	return float64(filler) / float64(len(words))
}

// truncateTitle shortens s to max runes, ending in "..." when cut.
func truncateTitle(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	r := []rune(s)
	return string(r[:max-3]) + "..."
}
