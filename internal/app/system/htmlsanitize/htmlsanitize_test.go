package htmlsanitize_test

import (
	"reflect"
	"testing"

	"github.com/dalemusser/mentorhub/internal/app/system/htmlsanitize"
)

func TestPlainText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"plain", "Career growth in data science", "Career growth in data science"},
		{"trims", "  spaced out \n", "spaced out"},
		{"strips tags", "<p><strong>Bold</strong> goal</p>", "Bold goal"},
		{"drops script body", "hello<script>alert('xss')</script>", "hello"},
		{"keeps ampersand", "Q&A sessions", "Q&A sessions"},
		{"strips attributes with tag", `<a href="javascript:alert(1)">link</a>`, "link"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := htmlsanitize.PlainText(tt.in); got != tt.want {
				t.Errorf("PlainText(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestPlainTextAll(t *testing.T) {
	in := []string{" Learn Go ", "<b></b>", "", "Ship a <i>project</i>"}
	want := []string{"Learn Go", "Ship a project"}

	got := htmlsanitize.PlainTextAll(in)
	if !reflect.DeepEqual(got, want) {
		t.Errorf("PlainTextAll = %q, want %q", got, want)
	}
}

func TestPlainTextAll_Nil(t *testing.T) {
	got := htmlsanitize.PlainTextAll(nil)
	if got == nil || len(got) != 0 {
		t.Errorf("expected empty non-nil slice, got %#v", got)
	}
}
