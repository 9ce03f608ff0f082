package chunker

import (
	"fmt"
	"strings"

	"github.com/dgallion1/docuproof/internal/document"
)

// Config controls chunking behavior.
type Config struct {
	TargetWords      int     // Soft upper bound on words per chunk.
	HeaderFloorWords int     // Above this, a header-led block starts a new chunk.
	FillerRatio      float64 // Title candidates at or above this filler-word ratio are rejected.
	HeaderMaxLength  int     // ALL-CAPS lines at or above this length are not headers.
}

// DefaultConfig returns the tuned defaults.
func DefaultConfig() Config {
	return Config{
		TargetWords:      700,
		HeaderFloorWords: 400,
		FillerRatio:      0.4,
		HeaderMaxLength:  100,
	}
}

// FallbackTitle is used when a degenerate document yields no usable title.
const FallbackTitle = "Document Content"

// Chunker splits plain text into title-bearing chunks.
type Chunker struct {
	cfg   Config
	rules []HeaderRule
}

var defaultChunker = New(DefaultConfig())

// New returns a Chunker. Non-positive fields of cfg take their defaults.
func New(cfg Config) *Chunker {
	def := DefaultConfig()
	if cfg.TargetWords <= 0 {
		cfg.TargetWords = def.TargetWords
	}
	if cfg.HeaderFloorWords <= 0 {
		cfg.HeaderFloorWords = def.HeaderFloorWords
	}
	if cfg.FillerRatio <= 0 {
		cfg.FillerRatio = def.FillerRatio
	}
	if cfg.HeaderMaxLength <= 0 {
		cfg.HeaderMaxLength = def.HeaderMaxLength
	}
	return &Chunker{cfg: cfg, rules: HeaderRules(cfg.HeaderMaxLength)}
}

// Config returns the effective configuration.
func (c *Chunker) Config() Config {
	return c.cfg
}

// Chunk segments text and packs the blocks into chunks near the target
// size. Blocks are never split. Empty text yields no chunks.
func (c *Chunker) Chunk(text string) []document.Chunk {
	clean := strings.TrimSpace(normalizeNewlines(text))
	if clean == "" {
		return nil
	}

	var (
		chunks       []document.Chunk
		buf          strings.Builder
		bufWords     int
		bufTitle     string
		sectionIndex = 1
	)
	flush := func() {
		title := bufTitle
		if title == "" {
			title = fmt.Sprintf("Section %d", sectionIndex)
		}
		content := strings.TrimSpace(buf.String())
		chunks = append(chunks, document.Chunk{
			Title:     title,
			Content:   content,
			WordCount: CountWords(content),
		})
	}

	for _, block := range c.Segment(clean) {
		block = strings.TrimSpace(block)
		if block == "" {
			continue
		}
		words := CountWords(block)
		title := c.ExtractTitle(block)
		firstLine, _, _ := strings.Cut(block, "\n")

		startNew := bufWords > 0 &&
			(bufWords+words > c.cfg.TargetWords ||
				(bufWords > c.cfg.HeaderFloorWords && c.IsHeaderLike(firstLine)))

		if startNew {
			flush()
			buf.Reset()
			buf.WriteString(block)
			bufWords = words
			bufTitle = title
			sectionIndex++
			continue
		}

		if buf.Len() > 0 {
			buf.WriteString("\n\n")
		}
		buf.WriteString(block)
		bufWords += words
		if bufTitle == "" {
			bufTitle = title
		}
	}

	if strings.TrimSpace(buf.String()) != "" {
		flush()
	}

	if len(chunks) == 0 {
		title := c.ExtractTitle(clean)
		if title == "" {
			title = FallbackTitle
		}
		chunks = append(chunks, document.Chunk{
			Title:     title,
			Content:   clean,
			WordCount: CountWords(clean),
		})
	}
	return chunks
}

// Chunk splits text using cfg.
func Chunk(text string, cfg Config) []document.Chunk {
	return New(cfg).Chunk(text)
}

// TotalWords sums chunk word counts.
func TotalWords(chunks []document.Chunk) int {
	total := 0
	for _, ch := range chunks {
		total += ch.WordCount
	}
	return total
}
