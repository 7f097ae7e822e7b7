package main

import (
	"html/template"
	"testing"
)

func TestLinebreaks(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  template.HTML
	}{
		{
			name:  "single paragraph",
			input: "Hello world",
			want:  "<p>Hello world</p>",
		},
		{
			name:  "two paragraphs",
			input: "First paragraph\n\nSecond paragraph",
			want:  "<p>First paragraph</p>\n<p>Second paragraph</p>",
		},
		{
			name:  "line break within paragraph",
			input: "Line one\nLine two",
			want:  "<p>Line one<br>Line two</p>",
		},
		{
			name:  "html escaped",
			input: "<script>alert('xss')</script>",
			want:  "<p>&lt;script&gt;alert(&#39;xss&#39;)&lt;/script&gt;</p>",
		},
		{
			name:  "empty string",
			input: "",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := linebreaks(tt.input)
			if got != tt.want {
				t.Errorf("linebreaks() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRaw(t *testing.T) {
	// Post content is rendered verbatim, markup included
	got := raw("<b>bold</b>")
	if got != template.HTML("<b>bold</b>") {
		t.Errorf("raw() = %q, want %q", got, "<b>bold</b>")
	}
}

func TestLoadTemplates(t *testing.T) {
	templates := loadTemplates()

	pages := []string{"home.html", "detail.html", "create.html", "edit.html", "delete.html", "login.html", "register.html"}
	for _, page := range pages {
		if templates[page] == nil {
			t.Errorf("expected template for %q to be loaded", page)
		}
	}
}
