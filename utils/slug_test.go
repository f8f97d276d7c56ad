package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		title string
		want  string
	}{
		{"Hello World", "hello-world"},
		{"  Leading and trailing  ", "leading-and-trailing"},
		{"Tabs\tand\nnewlines", "tabs-and-newlines"},
		{"Café Crème", "cafe-creme"},
		{"- dashed -", "dashed"},
		{"a/b", "a-b"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			assert.Equal(t, tt.want, Slugify(tt.title))
		})
	}
}

func TestSlugifyOutputIsAValidSlug(t *testing.T) {
	for _, title := range []string{"Meeting notes 2024", "Ünïcödé title", "x"} {
		assert.True(t, ValidateSlug(Slugify(title)), title)
	}
}
