package chunker

import "strings"

// CountWords counts whitespace-separated tokens. It is the only word count
// used for chunks, documents and analysis totals.
func CountWords(text string) int {
	return len(strings.Fields(text))
}
