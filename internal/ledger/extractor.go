package ledger

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/joseph-ayodele/results-ledger/internal/common"
	"github.com/joseph-ayodele/results-ledger/internal/entity"
)

// DateLayout is how a substituted result date is rendered (D/M/YYYY).
const DateLayout = "2/1/2006"

// TextSource converts a ledger document into its raw text.
type TextSource interface {
	ExtractText(ctx context.Context, content []byte) (string, error)
}

// Extractor turns raw ledger text into student records. It holds no
// per-document state and is safe for concurrent use.
type Extractor struct {
	logger      *slog.Logger
	now         func() time.Time
	defaultDate string
}

type Option func(*Extractor)

// WithDefaultDate sets the result date used when the ledger prints none.
func WithDefaultDate(date string) Option {
	return func(e *Extractor) {
		if date = strings.TrimSpace(date); date != "" {
			e.defaultDate = date
		}
	}
}

// WithClock replaces the clock consulted for the fallback result date.
func WithClock(now func() time.Time) Option {
	return func(e *Extractor) {
		if now != nil {
			e.now = now
		}
	}
}

func NewExtractor(logger *slog.Logger, opts ...Option) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	e := &Extractor{logger: logger, now: time.Now}
	for _, o := range opts {
		o(e)
	}
	return e
}

func (e *Extractor) fallbackDate() string {
	if e.defaultDate != "" {
		return e.defaultDate
	}
	return e.now().Format(DateLayout)
}

// Extract assembles the full result from raw text. It always returns a
// result; unrecognized content degrades to fallback values.
func (e *Extractor) Extract(rawText string) entity.ExtractionResult {
	start := time.Now()

	meta := ExtractMetadata(rawText, e.fallbackDate())
	sp := newSectionParser(e.logger)
	students := sp.run(strings.Split(rawText, "\n"))

	e.logger.Debug("ledger.extract.ok",
		"institute", meta.Institute,
		"students", len(students),
		"subjects", sp.subjects,
		"dropped_lines", sp.dropped,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return entity.ExtractionResult{
		Institute:       meta.Institute,
		Programme:       meta.Programme,
		ResultDate:      meta.ResultDate,
		ExaminationInfo: meta.ExaminationInfo,
		Students:        students,
		RawText:         rawText,
	}
}

// ExtractDocument converts content with src and extracts the result. The
// only error is a conversion failure, wrapping common.ErrConversion.
func (e *Extractor) ExtractDocument(ctx context.Context, src TextSource, content []byte) (entity.ExtractionResult, error) {
	text, err := src.ExtractText(ctx, content)
	if err != nil {
		e.logger.Error("ledger.convert.failed", "bytes", len(content), "error", err)
		return entity.ExtractionResult{}, common.ConversionError(err)
	}
	return e.Extract(text), nil
}
