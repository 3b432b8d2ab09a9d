package pdftext

import (
	"context"
	"os"
	"strings"
)

func (e *Extractor) pdfToText(ctx context.Context, content []byte) (Result, error) {
	f, err := os.CreateTemp(e.cfg.TempDir, "ledger-*.pdf")
	if err != nil {
		return Result{}, err
	}
	path := f.Name()
	defer func() {
		if err := os.Remove(path); err != nil {
			e.logger.Warn("pdftext.tempfile.remove_failed", "path", path, "error", err)
		}
	}()
	if _, err := f.Write(content); err != nil {
		_ = f.Close()
		return Result{}, err
	}
	if err := f.Close(); err != nil {
		return Result{}, err
	}

	// pdftotext -layout -enc UTF-8 -eol unix <path> -
	out, errb, err := e.runner.Run(ctx, e.cfg.Pdftotext, "-layout", "-enc", "UTF-8", "-eol", "unix", path, "-")
	if err != nil {
		return Result{Warnings: []string{string(errb)}}, err
	}
	text := string(out)
	// a form feed ends every page
	pages := strings.Count(text, "\f")
	if !strings.HasSuffix(text, "\f") {
		pages++
	}
	return Result{Text: text, Pages: pages, Method: MethodPdftotext}, nil
}
