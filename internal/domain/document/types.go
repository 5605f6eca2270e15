package document

import (
	"path/filepath"
	"slices"
	"strings"
)

// MaxUploadBytes is the default upload limit (10MB).
const MaxUploadBytes = 10 * 1024 * 1024

// MinTextLength is the minimum length of usable text once surrounding whitespace is trimmed.
const MinTextLength = 10

var (
	TextExts  = []string{".txt"}
	DocExts   = []string{".docx"}
	PDFExts   = []string{".pdf"}
	ImageExts = []string{".png", ".jpg", ".jpeg", ".webp", ".tiff"}
)

// SupportedExts lists every accepted extension.
func SupportedExts() []string {
	out := make([]string, 0, 8)
	out = append(out, TextExts...)
	out = append(out, DocExts...)
	out = append(out, PDFExts...)
	out = append(out, ImageExts...)
	return out
}

// Ext returns the lower-cased extension of a filename.
func Ext(filename string) string {
	return strings.ToLower(filepath.Ext(filename))
}

// IsSupported reports whether the filename has an accepted extension.
func IsSupported(filename string) bool {
	return slices.Contains(SupportedExts(), Ext(filename))
}

// Meaningful reports whether extracted text is long enough to process.
func Meaningful(text string) bool {
	return len(strings.TrimSpace(text)) >= MinTextLength
}
