// Package content converts between the persisted note content string and the
// editor's structured document.
//
// Two stored forms exist: legacy plain text, and a JSON encoded Document whose
// root carries "type":"doc". ToDocument accepts either; ToStorageString always
// writes the JSON form.
package content

import (
	"encoding/json"
	"fmt"
	"strings"
)

const (
	TypeDoc       = "doc"
	TypeParagraph = "paragraph"
	TypeText      = "text"
)

// Mark, Node and Document keep any JSON keys they do not model in Extra and
// write them back unchanged.
type Mark struct {
	Type  string         `json:"type"`
	Attrs map[string]any `json:"attrs,omitempty"`

	Extra map[string]json.RawMessage `json:"-"`
}

// Node is a block or inline node of the document tree.
type Node struct {
	Type    string         `json:"type"`
	Attrs   map[string]any `json:"attrs,omitempty"`
	Content []Node         `json:"content,omitempty"`
	Text    string         `json:"text,omitempty"`
	Marks   []Mark         `json:"marks,omitempty"`

	Extra map[string]json.RawMessage `json:"-"`
}

// Document is the root of the tree. Content is never nil once it has gone
// through ToDocument.
type Document struct {
	Type    string `json:"type"`
	Content []Node `json:"content"`

	Extra map[string]json.RawMessage `json:"-"`
}

var (
	markKeys     = []string{"type", "attrs"}
	nodeKeys     = []string{"type", "attrs", "content", "text", "marks"}
	documentKeys = []string{"type", "content"}
)

func (m *Mark) UnmarshalJSON(data []byte) error {
	type plain Mark
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	extra, err := unknownKeys(data, markKeys)
	if err != nil {
		return err
	}
	*m = Mark(p)
	m.Extra = extra
	return nil
}

func (m Mark) MarshalJSON() ([]byte, error) {
	type plain Mark
	return marshalWithExtra(plain(m), m.Extra)
}

func (n *Node) UnmarshalJSON(data []byte) error {
	type plain Node
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	extra, err := unknownKeys(data, nodeKeys)
	if err != nil {
		return err
	}
	*n = Node(p)
	n.Extra = extra
	return nil
}

func (n Node) MarshalJSON() ([]byte, error) {
	type plain Node
	return marshalWithExtra(plain(n), n.Extra)
}

func (d *Document) UnmarshalJSON(data []byte) error {
	type plain Document
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	extra, err := unknownKeys(data, documentKeys)
	if err != nil {
		return err
	}
	*d = Document(p)
	d.Extra = extra
	return nil
}

func (d Document) MarshalJSON() ([]byte, error) {
	type plain Document
	return marshalWithExtra(plain(d), d.Extra)
}

// unknownKeys returns the members of the JSON object in data that are not in
// known, or nil when there are none.
func unknownKeys(data []byte, known []string) (map[string]json.RawMessage, error) {
	var all map[string]json.RawMessage
	if err := json.Unmarshal(data, &all); err != nil {
		return nil, err
	}
	for _, k := range known {
		delete(all, k)
	}
	if len(all) == 0 {
		return nil, nil
	}
	return all, nil
}

func marshalWithExtra(v any, extra map[string]json.RawMessage) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil || len(extra) == 0 {
		return data, err
	}

	var merged map[string]json.RawMessage
	if err := json.Unmarshal(data, &merged); err != nil {
		return nil, err
	}
	for k, raw := range extra {
		if _, ok := merged[k]; !ok {
			merged[k] = raw
		}
	}
	return json.Marshal(merged)
}

// Empty returns the canonical empty document.
func Empty() Document {
	return Document{Type: TypeDoc, Content: []Node{}}
}

// ToDocument resolves a stored content string into a document. It never fails:
// anything that is not a JSON document is treated as legacy plain text.
func ToDocument(raw string) Document {
	if raw == "" {
		return Empty()
	}

	var doc Document
	if err := json.Unmarshal([]byte(raw), &doc); err == nil && doc.Type == TypeDoc {
		if doc.Content == nil {
			doc.Content = []Node{}
		}
		return doc
	}

	return FromPlainText(raw)
}

// FromPlainText promotes legacy text to a document: one paragraph per
// non-blank line, in order.
func FromPlainText(text string) Document {
	doc := Empty()
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSuffix(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		doc.Content = append(doc.Content, Paragraph(line))
	}
	return doc
}

// Paragraph builds a paragraph holding a single text node.
func Paragraph(text string) Node {
	return Node{
		Type:    TypeParagraph,
		Content: []Node{{Type: TypeText, Text: text}},
	}
}

// ToStorageString serializes doc to the JSON form recognised by ToDocument.
func ToStorageString(doc Document) (string, error) {
	doc.Type = TypeDoc
	if doc.Content == nil {
		doc.Content = []Node{}
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("failed to encode document: %w", err)
	}
	return string(data), nil
}

// IsStructured reports whether raw is already in the JSON document form.
func IsStructured(raw string) bool {
	var head struct {
		Type string `json:"type"`
	}
	return json.Unmarshal([]byte(raw), &head) == nil && head.Type == TypeDoc
}
