package htmlsanitize_test

import (
	"strings"
	"testing"

	"github.com/dalemusser/civicbridge/internal/app/system/htmlsanitize"
)

func TestPlainText(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty", "", ""},
		{"plain", "Pothole on Main St", "Pothole on Main St"},
		{"trimmed", "  Broken light  ", "Broken light"},
		{"ampersand kept", "Roads & Streets", "Roads & Streets"},
		{"less than kept", "5 < 10", "5 < 10"},
		{"bold stripped", "<b>Deep</b> hole", "Deep hole"},
		{"script dropped", "Hello<script>alert('x')</script>", "Hello"},
		{"ampersand inside markup", "<p>Parks & Trees</p>", "Parks & Trees"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := htmlsanitize.PlainText(tt.input); got != tt.want {
				t.Errorf("PlainText(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestPlainText_RemovesIframe(t *testing.T) {
	got := htmlsanitize.PlainText(`Water leak<iframe src="https://evil.example"></iframe>`)
	if strings.Contains(got, "iframe") {
		t.Errorf("expected iframe removed, got %q", got)
	}
	if !strings.Contains(got, "Water leak") {
		t.Errorf("expected text preserved, got %q", got)
	}
}

func TestIsPlainText(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"", true},
		{"Hello, World!", true},
		{"5 < 10", true},
		{"5 > 3", true},
		{"<p>Hello</p>", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := htmlsanitize.IsPlainText(tt.input); got != tt.want {
				t.Errorf("IsPlainText(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}
