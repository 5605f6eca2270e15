package middleware

import (
	"fmt"
	"io"
	"path/filepath"
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/h2non/filetype"

	"github.com/AbdulSamad94/Legalyze-AI-Backend/internal/domain/document"
)

// Input validation and sanitization utilities

// SanitizeFilename strips directories and control characters from a client filename.
func SanitizeFilename(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = filepath.Base(SanitizeString(name))
	if name == "." || name == "/" {
		return ""
	}
	return name
}

// ValidateUpload checks the filename extension.
func ValidateUpload(filename string) error {
	if filename == "" {
		return fmt.Errorf("%w: missing filename", document.ErrUnsupportedType)
	}
	if !document.IsSupported(filename) {
		return fmt.Errorf("%w: %q (allowed: %s)", document.ErrUnsupportedType,
			document.Ext(filename), strings.Join(document.SupportedExts(), ", "))
	}
	return nil
}

// sniffLen is how many leading bytes filetype needs for its matchers.
const sniffLen = 262

// ValidateContent checks that the file's magic bytes agree with its extension.
func ValidateContent(filename string, r io.ReaderAt) error {
	head := make([]byte, sniffLen)
	n, err := r.ReadAt(head, 0)
	if err != nil && err != io.EOF {
		return fmt.Errorf("read upload: %w", err)
	}
	head = head[:n]

	ext := document.Ext(filename)
	kind, _ := filetype.Match(head)
	switch {
	case slices.Contains(document.TextExts, ext):
		// plain text has no signature; reject known binary formats
		if kind != filetype.Unknown {
			return fmt.Errorf("%w: %s content in a %s file", document.ErrUnsupportedType, kind.Extension, ext)
		}
	case slices.Contains(document.PDFExts, ext):
		if kind.Extension != "pdf" {
			return fmt.Errorf("%w: not a PDF", document.ErrUnsupportedType)
		}
	case slices.Contains(document.DocExts, ext):
		if kind.Extension != "docx" && kind.Extension != "zip" {
			return fmt.Errorf("%w: not a DOCX", document.ErrUnsupportedType)
		}
	case slices.Contains(document.ImageExts, ext):
		if !filetype.IsImage(head) {
			return fmt.Errorf("%w: not an image", document.ErrUnsupportedType)
		}
	}
	return nil
}

// ValidateSessionID validates session ID format
func ValidateSessionID(id string) (uuid.UUID, error) {
	u, err := uuid.Parse(id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid session ID format")
	}
	return u, nil
}

// SanitizeString removes dangerous characters from strings
func SanitizeString(input string) string {
	input = strings.ReplaceAll(input, "\x00", "")

	var result strings.Builder
	for _, r := range input {
		if r >= 32 || r == '\t' || r == '\n' {
			result.WriteRune(r)
		}
	}

	return strings.TrimSpace(result.String())
}

// ValidateLimit validates pagination limit
func ValidateLimit(limit int) int {
	if limit <= 0 {
		return 20 // default
	}
	if limit > 100 {
		return 100 // max limit
	}
	return limit
}

// ValidatePage clamps a 1-based page number.
func ValidatePage(page int) int {
	if page < 1 {
		return 1
	}
	return page
}
