package pdftext

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/joseph-ayodele/results-ledger/constants"
)

// Conversion methods.
const (
	MethodNative    = "native"
	MethodPdftotext = "pdftotext"
	MethodAuto      = "auto"
)

// ErrNotPDF is returned for content without a PDF signature.
var ErrNotPDF = errors.New("content is not a PDF document")

// ErrNoText is returned when a document converts to blank text.
var ErrNoText = errors.New("no extractable text")

type Config struct {
	Method    string // "native" | "pdftotext" | "auto"; empty -> "auto"
	Pdftotext string // binary name or absolute path; if empty -> "pdftotext"
	MaxPages  int    // 0 = no limit (native only)
	TempDir   string // scratch dir for pdftotext input; empty -> os.TempDir()
}

type Result struct {
	Text     string
	Pages    int
	Method   string // MethodNative | MethodPdftotext
	Duration time.Duration
	Warnings []string
}

// Extractor converts ledger PDFs into plain text, one ledger row per line.
type Extractor struct {
	cfg    Config
	runner Runner
	logger *slog.Logger
}

func NewExtractor(cfg Config, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Method == "" {
		cfg.Method = MethodAuto
	}
	if cfg.Pdftotext == "" {
		cfg.Pdftotext = "pdftotext"
	}
	return &Extractor{cfg: cfg, runner: execRunner{logger: logger}, logger: logger}
}

// WithRunner swaps the command runner, mainly for tests.
func (e *Extractor) WithRunner(r Runner) *Extractor {
	e.runner = r
	return e
}

// Convert turns PDF bytes into normalized text using the configured method.
func (e *Extractor) Convert(ctx context.Context, content []byte) (Result, error) {
	start := time.Now()
	if !constants.IsPDF(content) {
		return Result{}, ErrNotPDF
	}

	var (
		res Result
		err error
	)
	switch e.cfg.Method {
	case MethodNative:
		res, err = e.native(content)
	case MethodPdftotext:
		res, err = e.pdfToText(ctx, content)
	case MethodAuto:
		res, err = e.native(content)
		if err != nil || strings.TrimSpace(res.Text) == "" {
			e.logger.Debug("pdftext.native.fallback", "error", err)
			warn := "native extraction yielded no text"
			if err != nil {
				warn = "native extraction failed: " + err.Error()
			}
			res, err = e.pdfToText(ctx, content)
			res.Warnings = append(res.Warnings, warn)
		}
	default:
		return Result{}, fmt.Errorf("unsupported conversion method: %q", e.cfg.Method)
	}
	if err != nil {
		return res, err
	}

	res.Text = Clean(res.Text)
	res.Duration = time.Since(start)
	if strings.TrimSpace(res.Text) == "" {
		return res, ErrNoText
	}
	e.logger.Debug("pdftext.convert.ok",
		"method", res.Method,
		"pages", res.Pages,
		"chars", len(res.Text),
		"elapsed_ms", res.Duration.Milliseconds(),
	)
	return res, nil
}

// ExtractText returns only the converted text.
func (e *Extractor) ExtractText(ctx context.Context, content []byte) (string, error) {
	res, err := e.Convert(ctx, content)
	if err != nil {
		return "", err
	}
	return res.Text, nil
}
