package ocr

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
)

// ErrUnavailable means the OCR binaries are not installed or OCR is disabled.
var ErrUnavailable = errors.New("ocr unavailable")

const defaultTimeout = 2 * time.Minute

// Runner shells out to tesseract (and pdftoppm for scanned PDFs).
type Runner struct {
	tesseract string
	pdftoppm  string
	language  string
	timeout   time.Duration
	logger    *zap.Logger
}

type Options struct {
	Tesseract string
	PDFToPPM  string
	Language  string
	Timeout   time.Duration
}

func NewRunner(opts Options, logger *zap.Logger) *Runner {
	if opts.Tesseract == "" {
		opts.Tesseract = "tesseract"
	}
	if opts.PDFToPPM == "" {
		opts.PDFToPPM = "pdftoppm"
	}
	if opts.Language == "" {
		opts.Language = "eng"
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	return &Runner{
		tesseract: opts.Tesseract,
		pdftoppm:  opts.PDFToPPM,
		language:  opts.Language,
		timeout:   opts.Timeout,
		logger:    logger.Named("ocr"),
	}
}

// Available reports whether tesseract can be found.
func (r *Runner) Available() bool {
	_, err := exec.LookPath(r.tesseract)
	return err == nil
}

// Image returns the text recognized in an image file.
func (r *Runner) Image(ctx context.Context, path string) (string, error) {
	if !r.Available() {
		return "", ErrUnavailable
	}
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	out, err := r.run(ctx, r.tesseract, path, "stdout", "-l", r.language)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// PDF rasterizes every page of a scanned PDF and runs OCR on each.
func (r *Runner) PDF(ctx context.Context, path string) (string, error) {
	if !r.Available() {
		return "", ErrUnavailable
	}
	if _, err := exec.LookPath(r.pdftoppm); err != nil {
		return "", ErrUnavailable
	}
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	dir, err := os.MkdirTemp("", "ocr-pages-*")
	if err != nil {
		return "", fmt.Errorf("create page dir: %w", err)
	}
	defer os.RemoveAll(dir)

	if _, err := r.run(ctx, r.pdftoppm, "-r", "300", "-png", path, filepath.Join(dir, "page")); err != nil {
		return "", err
	}
	pages, err := filepath.Glob(filepath.Join(dir, "page*.png"))
	if err != nil {
		return "", err
	}
	sort.Strings(pages)

	var b strings.Builder
	for i, page := range pages {
		text, err := r.run(ctx, r.tesseract, page, "stdout", "-l", r.language)
		if err != nil {
			r.logger.Warn("page not recognized", zap.Int("page", i+1), zap.Error(err))
			continue
		}
		b.WriteString(strings.TrimSpace(text))
		b.WriteString("\n\n")
	}
	return strings.TrimSpace(b.String()), nil
}

func (r *Runner) run(ctx context.Context, name string, args ...string) (string, error) {
	start := time.Now()
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	r.logger.Debug("ocr command finished",
		zap.String("cmd", name),
		zap.Duration("duration", time.Since(start)),
		zap.Error(err),
	)
	if err != nil {
		// ambil exit code
		var ee *exec.ExitError
		if errors.As(err, &ee) {
			return "", fmt.Errorf("%s exited with %d: %s", name, ee.ExitCode(), strings.TrimSpace(stderr.String()))
		}
		return "", fmt.Errorf("run %s: %w", name, err)
	}
	return stdout.String(), nil
}
