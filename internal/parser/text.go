package parser

import (
	"bufio"
	"context"
	"io"
	"strings"
)

// TextParser handles plain text files. Lines are kept as-is apart from
// trailing whitespace; runs of blank lines collapse to one.
type TextParser struct{}

func (p *TextParser) Parse(_ context.Context, r io.Reader, _ string) (string, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var lines []string
	blank := false
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), " \t\r")
		if strings.TrimSpace(line) == "" {
			if len(lines) > 0 && !blank {
				lines = append(lines, "")
			}
			blank = true
			continue
		}
		blank = false
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}
	return strings.TrimSpace(strings.Join(lines, "\n")), nil
}
