package markup

import (
	"fmt"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// MarkdownExtractor maps markdown headings and paragraphs to block segments
// for stores whose note content is markdown rather than tagged markup.
type MarkdownExtractor struct{}

func NewMarkdownExtractor() MarkdownExtractor {
	return MarkdownExtractor{}
}

func (MarkdownExtractor) ExtractBlocks(markup string) (blocks []Block) {
	defer func() {
		if r := recover(); r != nil {
			blocks = nil
		}
	}()

	source := []byte(markup)
	parser := goldmark.DefaultParser()
	reader := text.NewReader(source)
	document := parser.Parse(reader)

	_ = ast.Walk(
		document,
		func(n ast.Node, entering bool) (ast.WalkStatus, error) {
			if !entering {
				return ast.WalkContinue, nil
			}

			switch n := n.(type) {
			case *ast.Heading:
				level := n.Level
				if level > 3 {
					level = 3
				}
				blocks = append(blocks, Block{
					Tag:  fmt.Sprintf("h%d", level),
					Text: string(n.Text(source)),
				})
				return ast.WalkSkipChildren, nil
			case *ast.Paragraph:
				blocks = append(blocks, Block{
					Tag:  "p",
					Text: string(n.Text(source)),
				})
				return ast.WalkSkipChildren, nil
			}

			return ast.WalkContinue, nil
		},
	)

	return blocks
}

// ForStrategy returns the extractor registered under name, defaulting to the
// tagged-markup strategy for unknown values.
func ForStrategy(name string) Extractor {
	switch name {
	case "markdown":
		return NewMarkdownExtractor()
	default:
		return NewBlockExtractor()
	}
}
