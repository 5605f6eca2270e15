package extract

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/ledongthuc/pdf"
	"go.uber.org/zap"

	"github.com/AbdulSamad94/Legalyze-AI-Backend/internal/domain/document"
)

// minPDFText is the text-layer length below which a PDF is treated as scanned.
const minPDFText = 30

// OCR recognizes text in images and scanned PDFs.
type OCR interface {
	Image(ctx context.Context, path string) (string, error)
	PDF(ctx context.Context, path string) (string, error)
}

// Extractor implements document.Extractor for txt, docx, pdf and image files.
type Extractor struct {
	ocr    OCR
	logger *zap.Logger
}

// New returns an Extractor. A nil ocr disables images and scanned PDFs.
func New(ocr OCR, logger *zap.Logger) *Extractor {
	return &Extractor{ocr: ocr, logger: logger.Named("extract")}
}

func (e *Extractor) Extract(ctx context.Context, path string) (string, error) {
	ext := document.Ext(path)

	var (
		text string
		err  error
	)
	switch {
	case slices.Contains(document.TextExts, ext):
		text, err = readText(path)
	case slices.Contains(document.DocExts, ext):
		text, err = readDocx(path)
	case slices.Contains(document.PDFExts, ext):
		text, err = e.readPDF(ctx, path)
	case slices.Contains(document.ImageExts, ext):
		text, err = e.readImage(ctx, path)
	default:
		return "", fmt.Errorf("%w: %s", document.ErrUnsupportedType, ext)
	}
	if err != nil {
		e.logger.Info("extraction failed", zap.String("ext", ext), zap.Error(err))
		return "", fmt.Errorf("%w: %v", document.ErrNotExtractable, err)
	}

	text = strings.TrimSpace(text)
	if !document.Meaningful(text) {
		return "", document.ErrNotExtractable
	}
	return text, nil
}

func readText(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	b = bytes.TrimPrefix(b, []byte("\xef\xbb\xbf"))
	return strings.ToValidUTF8(string(b), ""), nil
}

// readDocx collects the paragraphs of word/document.xml.
func readDocx(path string) (string, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return "", fmt.Errorf("open docx: %w", err)
	}
	defer zr.Close()

	for _, f := range zr.File {
		if f.Name != "word/document.xml" {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return "", err
		}
		defer rc.Close()
		return docxText(rc)
	}
	return "", fmt.Errorf("docx: word/document.xml missing")
}

func docxText(r io.Reader) (string, error) {
	dec := xml.NewDecoder(r)
	var (
		b      strings.Builder
		inText bool
	)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("docx xml: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				b.WriteByte('\t')
			case "br", "cr":
				b.WriteByte('\n')
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				b.WriteByte('\n')
			}
		case xml.CharData:
			if inText {
				b.Write(t)
			}
		}
	}
	return b.String(), nil
}

func (e *Extractor) readPDF(ctx context.Context, path string) (text string, err error) {
	text, err = pdfText(path)
	if err != nil {
		e.logger.Debug("pdf text layer unreadable", zap.Error(err))
	}
	if len(strings.TrimSpace(text)) >= minPDFText {
		return text, nil
	}
	if e.ocr == nil {
		if err != nil {
			return "", err
		}
		return text, nil
	}
	e.logger.Info("pdf has no usable text layer, running ocr", zap.Int("chars", len(strings.TrimSpace(text))))
	return e.ocr.PDF(ctx, path)
}

func pdfText(path string) (text string, err error) {
	// the parser panics on some malformed files
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pdf parse: %v", r)
		}
	}()

	f, r, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	rd, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("pdf text: %w", err)
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, rd); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func (e *Extractor) readImage(ctx context.Context, path string) (string, error) {
	if e.ocr == nil {
		return "", fmt.Errorf("ocr disabled")
	}
	return e.ocr.Image(ctx, path)
}
