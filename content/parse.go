package content

import (
	"reflect"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	extast "github.com/yuin/goldmark/extension/ast"
	gtext "github.com/yuin/goldmark/text"
)

var markdownParser = goldmark.New(
	goldmark.WithExtensions(extension.Strikethrough, extension.TaskList),
).Parser()

// FromMarkdown parses markdown, as written by ToMarkdown and then edited,
// back into a document. Line breaks inside a paragraph become hardBreak
// nodes, matching how ToMarkdown renders them.
func FromMarkdown(md string) Document {
	source := []byte(md)
	root := markdownParser.Parse(gtext.NewReader(source))

	doc := Empty()
	doc.Content = mdReader{source: source}.blocks(root)
	return doc
}

// Reconcile returns edited with every block that still renders to the same
// markdown as a block of base replaced by that original block. Attributes
// and fields markdown cannot carry survive edits made elsewhere.
func Reconcile(base, edited Document) Document {
	unused := make(map[string][]Node, len(base.Content))
	for _, n := range base.Content {
		key := renderBlock(n)
		unused[key] = append(unused[key], n)
	}

	out := Document{Type: TypeDoc, Content: make([]Node, 0, len(edited.Content)), Extra: base.Extra}
	for _, n := range edited.Content {
		key := renderBlock(n)
		if same := unused[key]; len(same) > 0 {
			n = same[0]
			unused[key] = same[1:]
		}
		out.Content = append(out.Content, n)
	}
	return out
}

type mdReader struct {
	source []byte
}

func (r mdReader) blocks(parent ast.Node) []Node {
	out := make([]Node, 0)
	for c := parent.FirstChild(); c != nil; c = c.NextSibling() {
		if n, ok := r.block(c); ok {
			out = append(out, n)
		}
	}
	return out
}

func (r mdReader) block(n ast.Node) (Node, bool) {
	switch n := n.(type) {
	case *ast.Paragraph, *ast.TextBlock:
		return Node{Type: TypeParagraph, Content: r.inlines(n)}, true
	case *ast.Heading:
		return Node{
			Type:    "heading",
			Attrs:   map[string]any{"level": n.Level},
			Content: r.inlines(n),
		}, true
	case *ast.Blockquote:
		return Node{Type: "blockquote", Content: r.blocks(n)}, true
	case *ast.FencedCodeBlock:
		node := codeBlock(r.lines(n))
		if lang := n.Language(r.source); len(lang) > 0 {
			node.Attrs = map[string]any{"language": string(lang)}
		}
		return node, true
	case *ast.CodeBlock:
		return codeBlock(r.lines(n)), true
	case *ast.ThematicBreak:
		return Node{Type: "horizontalRule"}, true
	case *ast.List:
		return r.list(n), true
	case *ast.HTMLBlock:
		raw := r.lines(n)
		if n.HasClosure() {
			raw += "\n" + string(n.ClosureLine.Value(r.source))
		}
		raw = strings.TrimSpace(raw)
		return Paragraph(raw), raw != ""
	}

	if n.Type() != ast.TypeBlock {
		return Node{}, false
	}
	if n.HasChildren() {
		return Node{Type: TypeParagraph, Content: r.inlines(n)}, true
	}
	raw := strings.TrimSpace(r.lines(n))
	return Paragraph(raw), raw != ""
}

func codeBlock(code string) Node {
	node := Node{Type: "codeBlock"}
	if code != "" {
		node.Content = []Node{{Type: TypeText, Text: code}}
	}
	return node
}

func (r mdReader) lines(n ast.Node) string {
	var b strings.Builder
	segments := n.Lines()
	for i := 0; i < segments.Len(); i++ {
		seg := segments.At(i)
		b.Write(seg.Value(r.source))
	}
	return strings.TrimSuffix(b.String(), "\n")
}

func (r mdReader) list(n *ast.List) Node {
	items := make([]Node, 0, n.ChildCount())
	checks := make([]*bool, 0, n.ChildCount())
	allTasks := !n.IsOrdered()

	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		items = append(items, Node{Type: "listItem", Content: r.blocks(c)})
		checked, ok := taskState(c)
		if ok {
			checks = append(checks, &checked)
		} else {
			checks = append(checks, nil)
			allTasks = false
		}
	}

	if allTasks && len(items) > 0 {
		for i := range items {
			items[i].Type = "taskItem"
			items[i].Attrs = map[string]any{"checked": *checks[i]}
		}
		return Node{Type: "taskList", Content: items}
	}

	// a checkbox outside a task list stays visible as text
	for i, checked := range checks {
		if checked == nil {
			continue
		}
		box := "[ ] "
		if *checked {
			box = "[x] "
		}
		items[i] = prefixText(items[i], box)
	}

	if n.IsOrdered() {
		node := Node{Type: "orderedList", Content: items}
		if n.Start != 1 {
			node.Attrs = map[string]any{"start": n.Start}
		}
		return node
	}
	return Node{Type: "bulletList", Content: items}
}

func taskState(item ast.Node) (bool, bool) {
	first := item.FirstChild()
	if first == nil {
		return false, false
	}
	box, ok := first.FirstChild().(*extast.TaskCheckBox)
	if !ok {
		return false, false
	}
	return box.IsChecked, true
}

func prefixText(item Node, prefix string) Node {
	if len(item.Content) == 0 {
		item.Content = []Node{Paragraph(strings.TrimSpace(prefix))}
		return item
	}
	first := item.Content[0]
	first.Content = append([]Node{{Type: TypeText, Text: prefix}}, first.Content...)
	first.Content = mergeText(first.Content)
	item.Content = append([]Node{first}, item.Content[1:]...)
	return item
}

func (r mdReader) inlines(parent ast.Node) []Node {
	var out []Node
	r.collect(parent, nil, &out)
	for len(out) > 0 && out[len(out)-1].Type == "hardBreak" {
		out = out[:len(out)-1]
	}
	return mergeText(out)
}

// collect appends the inline content of parent. Marks are ordered innermost
// first, the order applyMarks wraps them in; a link mark always goes last.
func (r mdReader) collect(parent ast.Node, marks []Mark, out *[]Node) {
	for c := parent.FirstChild(); c != nil; c = c.NextSibling() {
		switch c := c.(type) {
		case *ast.Text:
			appendText(out, unescape(string(c.Segment.Value(r.source))), marks)
			if c.SoftLineBreak() || c.HardLineBreak() {
				*out = append(*out, Node{Type: "hardBreak"})
			}
		case *ast.String:
			appendText(out, string(c.Value), marks)
		case *ast.CodeSpan:
			appendText(out, r.plain(c), wrapMark(marks, Mark{Type: "code"}))
		case *ast.Emphasis:
			typ := "italic"
			if c.Level >= 2 {
				typ = "bold"
			}
			r.collect(c, wrapMark(marks, Mark{Type: typ}), out)
		case *extast.Strikethrough:
			r.collect(c, wrapMark(marks, Mark{Type: "strike"}), out)
		case *ast.Link:
			r.collect(c, withLink(marks, string(c.Destination), string(c.Title)), out)
		case *ast.AutoLink:
			url := string(c.URL(r.source))
			appendText(out, string(c.Label(r.source)), withLink(marks, url, ""))
		case *ast.Image:
			attrs := map[string]any{"src": string(c.Destination), "alt": r.plain(c)}
			if len(c.Title) > 0 {
				attrs["title"] = string(c.Title)
			}
			*out = append(*out, Node{Type: "image", Attrs: attrs})
		case *extast.TaskCheckBox:
			// reported by the enclosing list
		case *ast.RawHTML:
			var b strings.Builder
			for i := 0; i < c.Segments.Len(); i++ {
				seg := c.Segments.At(i)
				b.Write(seg.Value(r.source))
			}
			appendText(out, b.String(), marks)
		default:
			r.collect(c, marks, out)
		}
	}
}

// plain concatenates the text below n without unescaping.
func (r mdReader) plain(n ast.Node) string {
	var b strings.Builder
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		switch c := c.(type) {
		case *ast.Text:
			b.Write(c.Segment.Value(r.source))
		case *ast.String:
			b.Write(c.Value)
		default:
			b.WriteString(r.plain(c))
		}
	}
	return b.String()
}

func appendText(out *[]Node, s string, marks []Mark) {
	if s == "" {
		return
	}
	node := Node{Type: TypeText, Text: s}
	if len(marks) > 0 {
		node.Marks = append([]Mark(nil), marks...)
	}
	*out = append(*out, node)
}

func wrapMark(marks []Mark, m Mark) []Mark {
	return append([]Mark{m}, marks...)
}

func withLink(marks []Mark, href, title string) []Mark {
	attrs := map[string]any{"href": href}
	if title != "" {
		attrs["title"] = title
	}
	return append(append([]Mark(nil), marks...), Mark{Type: "link", Attrs: attrs})
}

// mergeText joins neighbouring text nodes that carry the same marks.
func mergeText(nodes []Node) []Node {
	out := make([]Node, 0, len(nodes))
	for _, n := range nodes {
		if last := len(out) - 1; last >= 0 && n.Type == TypeText && out[last].Type == TypeText &&
			reflect.DeepEqual(out[last].Marks, n.Marks) {
			out[last].Text += n.Text
			continue
		}
		out = append(out, n)
	}
	return out
}

// unescape drops the backslash in front of ASCII punctuation.
func unescape(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) && isASCIIPunct(s[i+1]) {
			i++
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

func isASCIIPunct(c byte) bool {
	return strings.IndexByte("!\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~", c) >= 0
}
