package main

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"
)

// batchReport tallies workbook writes. Queue workers and the archive
// export loop share it, so every access goes through mu.
type batchReport struct {
	mu       sync.Mutex
	root     string
	written  int
	failures int
	used     map[string]bool
}

func newBatchReport(root string, failed int) *batchReport {
	if abs, err := filepath.Abs(root); err == nil {
		root = abs
	}
	return &batchReport{root: root, failures: failed, used: make(map[string]bool)}
}

// claim reserves an output file name for source. The name is built from
// the path relative to the batch root so ledgers sharing a basename in
// different subdirectories do not overwrite each other.
func (b *batchReport) claim(source string) string {
	stem := filepath.Base(source)
	if abs, err := filepath.Abs(source); err == nil {
		if rel, err := filepath.Rel(b.root, abs); err == nil && !strings.HasPrefix(rel, "..") {
			stem = rel
		}
	}
	stem = strings.TrimSuffix(stem, filepath.Ext(stem))
	stem = strings.ReplaceAll(filepath.ToSlash(stem), "/", "_")

	b.mu.Lock()
	defer b.mu.Unlock()
	name := stem + ".xlsx"
	for n := 1; b.used[name]; n++ {
		name = fmt.Sprintf("%s-%d.xlsx", stem, n)
	}
	b.used[name] = true
	return name
}

func (b *batchReport) wrote() {
	b.mu.Lock()
	b.written++
	b.mu.Unlock()
}

func (b *batchReport) failed() {
	b.mu.Lock()
	b.failures++
	b.mu.Unlock()
}

func (b *batchReport) totals() (written, failures int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.written, b.failures
}
