package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizer_Plain(t *testing.T) {
	s := NewSanitizer()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"Ampersand kept literal", "Q&A", "Q&A"},
		{"Quotes kept literal", `Don't "panic"`, `Don't "panic"`},
		{"Tags stripped", "<b>Bold</b> <script>alert(1)</script>move", "Bold move"},
		{"Trimmed", "  spaced  ", "spaced"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, s.Plain(tt.in))
		})
	}
}

func TestSanitizer_Content(t *testing.T) {
	s := NewSanitizer()

	out := s.Content(`<p onclick="x()">hi <a href="javascript:alert(1)">link</a></p><script>bad()</script>`)
	assert.Contains(t, out, "<p>hi")
	assert.NotContains(t, out, "onclick")
	assert.NotContains(t, out, "javascript:")
	assert.NotContains(t, out, "<script>")
}
