package ocr

import (
	"context"
	"os/exec"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestUnavailableBinary(t *testing.T) {
	r := NewRunner(Options{Tesseract: "tesseract-not-installed-here"}, zap.NewNop())
	assert.False(t, r.Available())

	_, err := r.Image(context.Background(), "scan.png")
	assert.ErrorIs(t, err, ErrUnavailable)

	_, err = r.PDF(context.Background(), "scan.pdf")
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestRunReportsExitCode(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
	r := NewRunner(Options{}, zap.NewNop())
	_, err := r.run(context.Background(), "sh", "-c", "echo bad input >&2; exit 3")
	assert.Contains(t, err.Error(), "exited with 3")
	assert.Contains(t, err.Error(), "bad input")
}
