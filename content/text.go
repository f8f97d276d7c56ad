package content

import "strings"

// PlainText flattens the document to text, one line per leaf block.
func PlainText(doc Document) string {
	lines := make([]string, 0, len(doc.Content))
	for _, n := range doc.Content {
		lines = appendBlockText(lines, n)
	}
	return strings.Join(lines, "\n")
}

func appendBlockText(lines []string, n Node) []string {
	if hasBlockChildren(n) {
		for _, child := range n.Content {
			lines = appendBlockText(lines, child)
		}
		return lines
	}
	return append(lines, inlineText(n.Content))
}

func inlineText(nodes []Node) string {
	var b strings.Builder
	for _, n := range nodes {
		switch n.Type {
		case TypeText:
			b.WriteString(n.Text)
		case "hardBreak":
			b.WriteString("\n")
		default:
			b.WriteString(inlineText(n.Content))
		}
	}
	return b.String()
}

func hasBlockChildren(n Node) bool {
	for _, child := range n.Content {
		if child.Type != TypeText && child.Type != "hardBreak" && child.Type != "image" {
			return true
		}
	}
	return false
}

// Excerpt returns at most max runes of the document's text on a single line.
func Excerpt(doc Document, max int) string {
	text := strings.Join(strings.Fields(PlainText(doc)), " ")
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return strings.TrimSpace(string(runes[:max])) + "…"
}
