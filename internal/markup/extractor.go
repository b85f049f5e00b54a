// Package markup extracts block-level segments (paragraphs and headings)
// from note content so the projection can derive row titles and summaries.
package markup

import (
	"regexp"
	"strings"
)

// Block is one block-level segment of a note. Text is the segment's inner
// text with any markup tags stripped.
type Block struct {
	Tag  string
	Text string
}

// Extractor turns raw note content into ordered block segments. Strategies
// must fail open: malformed content yields zero blocks, never a fault.
type Extractor interface {
	ExtractBlocks(markup string) []Block
}

var (
	openTagRe = regexp.MustCompile(`(?is)<(p|h1|h2|h3)(?:\s[^>]*)?>`)
	stripRe   = regexp.MustCompile(`(?s)<[^>]+>`)
)

// BlockExtractor matches p/h1/h2/h3 elements structurally in HTML-ish note
// markup. Unclosed elements are skipped rather than guessed at.
type BlockExtractor struct{}

func NewBlockExtractor() BlockExtractor {
	return BlockExtractor{}
}

func (BlockExtractor) ExtractBlocks(markup string) (blocks []Block) {
	defer func() {
		if r := recover(); r != nil {
			blocks = nil
		}
	}()

	rest := markup
	for {
		loc := openTagRe.FindStringSubmatchIndex(rest)
		if loc == nil {
			return blocks
		}

		tag := strings.ToLower(rest[loc[2]:loc[3]])
		closing := "</" + tag + ">"
		inner := rest[loc[1]:]
		end := strings.Index(strings.ToLower(inner), closing)
		if end < 0 {
			rest = rest[loc[1]:]
			continue
		}

		blocks = append(blocks, Block{Tag: tag, Text: StripTags(inner[:end])})
		rest = inner[end+len(closing):]
	}
}

// StripTags removes every markup tag, leaving inner text untouched.
func StripTags(s string) string {
	return stripRe.ReplaceAllString(s, "")
}

// Title returns the text of the first block whose stripped text is
// non-empty, or "" when no block qualifies.
func Title(blocks []Block) string {
	for _, b := range blocks {
		if b.Text != "" {
			return b.Text
		}
	}
	return ""
}

// Summary joins the stripped text of every block after the first with
// newlines and truncates to max runes. The first block is always excluded,
// even when it did not supply the title.
func Summary(blocks []Block, max int) string {
	if len(blocks) < 2 {
		return ""
	}

	texts := make([]string, 0, len(blocks)-1)
	for _, b := range blocks[1:] {
		texts = append(texts, b.Text)
	}

	joined := strings.Join(texts, "\n")
	runes := []rune(joined)
	if len(runes) > max {
		return string(runes[:max])
	}
	return joined
}
