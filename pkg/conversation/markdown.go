package conversation

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// ContainsMarkdown reports whether content uses any markdown structure beyond
// a single plain paragraph: emphasis, headings, lists, code, quotes or
// multiple paragraphs.
func ContainsMarkdown(content string) bool {
	if strings.TrimSpace(content) == "" {
		return false
	}
	if strings.Contains(content, "\n\n") {
		return true
	}

	source := []byte(content)
	document := goldmark.DefaultParser().Parse(text.NewReader(source))

	found := false
	_ = ast.Walk(document, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch n.(type) {
		case *ast.Document, *ast.Paragraph, *ast.Text, *ast.TextBlock:
			return ast.WalkContinue, nil
		case *ast.Heading, *ast.List, *ast.ListItem, *ast.FencedCodeBlock, *ast.CodeBlock,
			*ast.CodeSpan, *ast.Emphasis, *ast.Blockquote, *ast.Link, *ast.ThematicBreak:
			found = true
			return ast.WalkStop, nil
		}
		return ast.WalkContinue, nil
	})
	return found
}
