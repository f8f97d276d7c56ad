package content

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
)

// ToMarkdown renders the document as markdown. Unknown node types fall back
// to their text.
func ToMarkdown(doc Document) string {
	return strings.Join(renderBlocks(doc.Content), "\n\n")
}

func renderBlocks(nodes []Node) []string {
	out := make([]string, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, renderBlock(n))
	}
	return out
}

func renderBlock(n Node) string {
	switch n.Type {
	case TypeParagraph:
		return escapeLineStarts(renderInline(n.Content))
	case "heading":
		level := intAttr(n.Attrs, "level", 1)
		if level < 1 {
			level = 1
		}
		if level > 6 {
			level = 6
		}
		return strings.Repeat("#", level) + " " + renderInline(n.Content)
	case "blockquote":
		return prefixLines(strings.Join(renderBlocks(n.Content), "\n\n"), "> ")
	case "codeBlock":
		return "```" + stringAttr(n.Attrs, "language") + "\n" + inlineText(n.Content) + "\n```"
	case "horizontalRule":
		return "---"
	case "image":
		return renderImage(n)
	case "bulletList":
		return renderList(n.Content, func(int, Node) string { return "- " })
	case "orderedList":
		start := intAttr(n.Attrs, "start", 1)
		return renderList(n.Content, func(i int, _ Node) string {
			return strconv.Itoa(start+i) + ". "
		})
	case "taskList":
		return renderList(n.Content, func(_ int, item Node) string {
			if boolAttr(item.Attrs, "checked") {
				return "- [x] "
			}
			return "- [ ] "
		})
	}

	if hasBlockChildren(n) {
		return strings.Join(renderBlocks(n.Content), "\n\n")
	}
	return escapeLineStarts(renderInline(n.Content))
}

func renderList(items []Node, marker func(int, Node) string) string {
	lines := make([]string, 0, len(items))
	for i, item := range items {
		m := marker(i, item)
		body := strings.Join(renderBlocks(item.Content), "\n")
		indent := strings.Repeat(" ", len(m))

		parts := strings.Split(body, "\n")
		for j := 1; j < len(parts); j++ {
			if parts[j] != "" {
				parts[j] = indent + parts[j]
			}
		}
		lines = append(lines, m+strings.Join(parts, "\n"))
	}
	return strings.Join(lines, "\n")
}

func renderInline(nodes []Node) string {
	var b strings.Builder
	for _, n := range nodes {
		switch n.Type {
		case TypeText:
			b.WriteString(applyMarks(n.Text, n.Marks))
		case "hardBreak":
			b.WriteString("\n")
		case "image":
			b.WriteString(renderImage(n))
		default:
			b.WriteString(renderInline(n.Content))
		}
	}
	return b.String()
}

func applyMarks(text string, marks []Mark) string {
	if !hasMark(marks, "code") {
		text = inlineEscaper.Replace(text)
	}

	var link *Mark
	for i := range marks {
		switch marks[i].Type {
		case "code":
			text = "`" + text + "`"
		case "bold":
			text = "**" + text + "**"
		case "italic":
			text = "_" + text + "_"
		case "strike":
			text = "~~" + text + "~~"
		case "link":
			link = &marks[i]
		}
	}
	if link != nil {
		text = "[" + text + "](" + stringAttr(link.Attrs, "href") + ")"
	}
	return text
}

func hasMark(marks []Mark, typ string) bool {
	for _, m := range marks {
		if m.Type == typ {
			return true
		}
	}
	return false
}

// Text is escaped so that FromMarkdown reads it back as text.
var inlineEscaper = strings.NewReplacer(
	`\`, `\\`,
	"`", "\\`",
	`*`, `\*`,
	`_`, `\_`,
	`[`, `\[`,
	`]`, `\]`,
	`~`, `\~`,
	`<`, `\<`,
)

// blockStart matches line openings that would start a heading, list,
// quote or rule. Group 1 is the indent; the escape goes before group 2.
var blockStart = regexp.MustCompile(`^( {0,3})(#{1,6}(?:\s|$)|[-+>=](?:\s|$)|[-=]+\s*$|\d{1,9}[.)](?:\s|$))`)

func escapeLineStarts(s string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		m := blockStart.FindStringSubmatchIndex(line)
		if m == nil {
			continue
		}
		at := m[4]
		if c := line[at]; c >= '0' && c <= '9' {
			at = strings.IndexAny(line[at:], ".)") + at
		}
		lines[i] = line[:at] + `\` + line[at:]
	}
	return strings.Join(lines, "\n")
}

func renderImage(n Node) string {
	return "![" + stringAttr(n.Attrs, "alt") + "](" + stringAttr(n.Attrs, "src") + ")"
}

func prefixLines(s, prefix string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		if line == "" {
			lines[i] = strings.TrimRight(prefix, " ")
			continue
		}
		lines[i] = prefix + line
	}
	return strings.Join(lines, "\n")
}

// Attribute values decoded from JSON arrive as float64; documents built in
// Go may use int.
func intAttr(attrs map[string]any, key string, def int) int {
	switch v := attrs[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return int(i)
		}
	}
	return def
}

func stringAttr(attrs map[string]any, key string) string {
	if v, ok := attrs[key].(string); ok {
		return v
	}
	return ""
}

func boolAttr(attrs map[string]any, key string) bool {
	v, _ := attrs[key].(bool)
	return v
}
