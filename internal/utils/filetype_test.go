package utils

import "testing"

var pdfBytes = []byte("%PDF-1.4\n1 0 obj\n<< /Type /Catalog >>\nendobj\n")

func TestDetectContentType(t *testing.T) {
	tests := []struct {
		name     string
		declared string
		data     []byte
		want     string
	}{
		{"declared pdf wins", "application/pdf", []byte("anything"), "application/pdf"},
		{"declared with params", "Application/PDF; charset=binary", nil, "application/pdf"},
		{"declared text is kept", "text/plain", pdfBytes, "text/plain"},
		{"empty declared sniffs pdf", "", pdfBytes, "application/pdf"},
		{"generic declared sniffs pdf", "application/octet-stream", pdfBytes, "application/pdf"},
		{"empty declared sniffs text", "", []byte("just some notes\n"), "text/plain"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DetectContentType(tt.declared, tt.data); got != tt.want {
				t.Errorf("DetectContentType() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestIsPDF(t *testing.T) {
	tests := []struct {
		contentType string
		want        bool
	}{
		{"application/pdf", true},
		{"APPLICATION/PDF", true},
		{"application/pdf; name=a.pdf", true},
		{"text/plain", false},
		{"", false},
		{"application/x-pdf-like", false},
	}
	for _, tt := range tests {
		if got := IsPDF(tt.contentType); got != tt.want {
			t.Errorf("IsPDF(%q) = %v, want %v", tt.contentType, got, tt.want)
		}
	}
}
