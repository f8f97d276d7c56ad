package content

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func paragraphTexts(doc Document) []string {
	texts := make([]string, 0, len(doc.Content))
	for _, n := range doc.Content {
		texts = append(texts, inlineText(n.Content))
	}
	return texts
}

func TestToDocument(t *testing.T) {
	tests := []struct {
		name  string
		raw   string
		want  []string
		isDoc bool
	}{
		{name: "empty", raw: "", want: []string{}},
		{name: "single line", raw: "hello", want: []string{"hello"}},
		{name: "drops blank lines", raw: "line one\n\n   \nline two\n", want: []string{"line one", "line two"}},
		{name: "keeps indentation", raw: "  indented", want: []string{"  indented"}},
		{name: "crlf", raw: "a\r\nb\r\n", want: []string{"a", "b"}},
		{name: "whitespace only", raw: " \n\t\n", want: []string{}},
		{name: "json that is not a document", raw: `{"type":"other"}`, want: []string{`{"type":"other"}`}},
		{name: "json scalar", raw: `42`, want: []string{"42"}},
		{name: "broken json", raw: `{"type":"doc"`, want: []string{`{"type":"doc"`}},
		{
			name:  "structured document",
			raw:   `{"type":"doc","content":[{"type":"paragraph","content":[{"type":"text","text":"stored"}]}]}`,
			want:  []string{"stored"},
			isDoc: true,
		},
		{name: "structured without content", raw: `{"type":"doc"}`, want: []string{}, isDoc: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := ToDocument(tt.raw)
			assert.Equal(t, TypeDoc, doc.Type)
			require.NotNil(t, doc.Content)
			assert.Equal(t, tt.want, paragraphTexts(doc))
			assert.Equal(t, tt.isDoc, IsStructured(tt.raw))
		})
	}
}

func TestToDocumentKeepsStructuredNodes(t *testing.T) {
	raw := `{"type":"doc","content":[{"type":"heading","attrs":{"level":2},"content":[{"type":"text","text":"Title","marks":[{"type":"bold"}]}]}]}`

	doc := ToDocument(raw)
	require.Len(t, doc.Content, 1)
	heading := doc.Content[0]
	assert.Equal(t, "heading", heading.Type)
	assert.Equal(t, float64(2), heading.Attrs["level"])
	require.Len(t, heading.Content, 1)
	assert.Equal(t, "bold", heading.Content[0].Marks[0].Type)
}

func TestToDocumentKeepsUnknownFields(t *testing.T) {
	raw := `{"type":"doc","version":3,"content":[` +
		`{"type":"paragraph","blockId":"b1","content":[{"type":"text","text":"x","marks":[{"type":"highlight","color":"#ff0"}]}]},` +
		`{"type":"callout","attrs":{"tone":"warn"},"content":[{"type":"paragraph","content":[{"type":"text","text":"careful"}]}]}` +
		`]}`

	doc := ToDocument(raw)
	require.Len(t, doc.Content, 2)
	assert.JSONEq(t, `3`, string(doc.Extra["version"]))
	assert.JSONEq(t, `"b1"`, string(doc.Content[0].Extra["blockId"]))
	assert.Nil(t, doc.Content[1].Extra)

	stored, err := ToStorageString(doc)
	require.NoError(t, err)
	assert.JSONEq(t, raw, stored)
}

func TestScenarioTwoLines(t *testing.T) {
	doc := ToDocument("line one\nline two")

	require.Len(t, doc.Content, 2)
	for i, want := range []string{"line one", "line two"} {
		assert.Equal(t, TypeParagraph, doc.Content[i].Type)
		assert.Equal(t, want, doc.Content[i].Content[0].Text)
	}
}

func TestToStorageStringIsRecognised(t *testing.T) {
	for _, doc := range []Document{Empty(), {}, FromPlainText("a\nb")} {
		s, err := ToStorageString(doc)
		require.NoError(t, err)
		assert.True(t, IsStructured(s), "serialized form %q must be read back as a document", s)
	}
}

func legacyTextGenerator() *rapid.Generator[string] {
	line := rapid.OneOf(
		rapid.StringMatching(`[A-Za-z0-9 .,!?:"\[\]]{0,30}`),
		rapid.Just(""),
		rapid.Just("   "),
	)
	return rapid.Custom(func(t *rapid.T) string {
		return strings.Join(rapid.SliceOf(line).Draw(t, "lines"), "\n")
	})
}

func TestRoundTripProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		raw := legacyTextGenerator().Draw(t, "raw")

		doc := ToDocument(raw)
		stored, err := ToStorageString(doc)
		if err != nil {
			t.Fatalf("ToStorageString: %v", err)
		}
		again := ToDocument(stored)

		want := make([]string, 0)
		for _, line := range strings.Split(raw, "\n") {
			if strings.TrimSpace(line) != "" {
				want = append(want, line)
			}
		}

		if !assert.ObjectsAreEqual(doc, again) {
			t.Fatalf("round trip changed document: %#v != %#v", doc, again)
		}
		if got := paragraphTexts(again); !assert.ObjectsAreEqual(want, got) {
			t.Fatalf("paragraphs %q, want %q", got, want)
		}
	})
}

func TestExcerpt(t *testing.T) {
	doc := FromPlainText("first line\nsecond   line")
	assert.Equal(t, "first line second line", Excerpt(doc, 100))
	assert.Equal(t, "first…", Excerpt(doc, 6))
	assert.Equal(t, "", Excerpt(Empty(), 10))
}
