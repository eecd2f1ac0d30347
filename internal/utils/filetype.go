package utils

import (
	"mime"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

const PDFContentType = "application/pdf"

const genericContentType = "application/octet-stream"

// DetectContentType returns the declared media type when it is specific,
// otherwise the type sniffed from data.
func DetectContentType(declared string, data []byte) string {
	if mediaType := normalize(declared); mediaType != "" && mediaType != genericContentType {
		return mediaType
	}
	return normalize(mimetype.Detect(data).String())
}

// IsPDF reports whether contentType names a PDF, ignoring parameters and case.
func IsPDF(contentType string) bool {
	return normalize(contentType) == PDFContentType
}

func normalize(contentType string) string {
	contentType = strings.TrimSpace(contentType)
	if contentType == "" {
		return ""
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.ToLower(contentType)
	}
	return mediaType
}
