package pipeline

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/results-ledger/internal/common"
	"github.com/joseph-ayodele/results-ledger/internal/contract"
	"github.com/joseph-ayodele/results-ledger/internal/entity"
	"github.com/joseph-ayodele/results-ledger/internal/events"
	"github.com/joseph-ayodele/results-ledger/internal/ledger"
	"github.com/joseph-ayodele/results-ledger/internal/pdftext"
	"github.com/joseph-ayodele/results-ledger/internal/repository"
)

// Converter turns PDF bytes into text with conversion metadata.
type Converter interface {
	Convert(ctx context.Context, content []byte) (pdftext.Result, error)
}

// Input is one ledger document to process.
type Input struct {
	Name    string
	Content []byte
	Archive bool
}

// Outcome is what a processed document produced.
type Outcome struct {
	Result       entity.ExtractionResult
	DocumentID   uuid.UUID // uuid.Nil when not archived
	Deduplicated bool
	Pages        int
	Method       string
	SHA256       string
}

// Processor coordinates text conversion, record extraction, contract
// validation, archiving and event publishing.
type Processor struct {
	logger    *slog.Logger
	converter Converter
	extractor *ledger.Extractor
	store     repository.Store
	jobs      repository.ExtractJobRepository
	publisher events.Publisher
	strict    bool
}

type Option func(*Processor)

// WithStore enables archiving.
func WithStore(s repository.Store) Option { return func(p *Processor) { p.store = s } }

// WithJobs records one extract job per processed file.
func WithJobs(j repository.ExtractJobRepository) Option { return func(p *Processor) { p.jobs = j } }

// WithPublisher announces archived documents.
func WithPublisher(pub events.Publisher) Option {
	return func(p *Processor) {
		if pub != nil {
			p.publisher = pub
		}
	}
}

// WithStrictContract rejects results that fail schema validation.
func WithStrictContract(strict bool) Option { return func(p *Processor) { p.strict = strict } }

func NewProcessor(logger *slog.Logger, conv Converter, ex *ledger.Extractor, opts ...Option) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	if ex == nil {
		ex = ledger.NewExtractor(logger)
	}
	p := &Processor{
		logger:    logger,
		converter: conv,
		extractor: ex,
		publisher: events.NopPublisher{},
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// CanArchive reports whether a store is configured.
func (p *Processor) CanArchive() bool { return p.store != nil }

// Process converts and extracts one document. Archiving is skipped when
// no store is configured.
func (p *Processor) Process(ctx context.Context, in Input) (*Outcome, error) {
	text, err := p.converter.Convert(ctx, in.Content)
	if err != nil {
		p.logger.Error("processor.convert.failed",
			"source", in.Name,
			"request_id", common.RequestIDFromContext(ctx),
			"bytes", len(in.Content),
			"err", err,
		)
		if errors.Is(err, pdftext.ErrNotPDF) {
			return nil, common.NewAppError(common.CodeInput, "Only PDF files are allowed", fmt.Errorf("%w: %w", common.ErrInvalidInput, err))
		}
		return nil, common.ConversionError(err)
	}
	for _, w := range text.Warnings {
		p.logger.Warn("processor.convert.warning", "source", in.Name, "warning", w)
	}

	sum := sha256.Sum256(in.Content)
	out := &Outcome{
		Result: p.extractor.Extract(text.Text),
		Pages:  text.Pages,
		Method: text.Method,
		SHA256: hex.EncodeToString(sum[:]),
	}

	if err := contract.Validate(out.Result); err != nil {
		if p.strict {
			p.logger.Error("processor.contract.failed", "source", in.Name, "err", err)
			return nil, common.NewAppError(common.CodeInput, "extraction result failed validation", err)
		}
		p.logger.Warn("processor.contract.mismatch", "source", in.Name, "err", err)
	}

	if in.Archive && p.store != nil {
		if err := p.archive(ctx, in.Name, out); err != nil {
			return nil, err
		}
	}

	p.logger.Info("processor.ok",
		"source", in.Name,
		"request_id", common.RequestIDFromContext(ctx),
		"method", out.Method,
		"pages", out.Pages,
		"students", len(out.Result.Students),
		"document_id", out.DocumentID,
		"deduplicated", out.Deduplicated,
	)
	return out, nil
}

func (p *Processor) archive(ctx context.Context, name string, out *Outcome) error {
	doc := entity.Document{
		SourceName: name,
		SHA256:     out.SHA256,
	}
	id, deduped, err := p.store.SaveResult(ctx, doc, out.Result)
	if err != nil {
		return err
	}
	out.DocumentID, out.Deduplicated = id, deduped
	if deduped {
		return nil
	}
	if err := p.publisher.Publish(ctx, events.NewResultEvent(id, name, &out.Result)); err != nil {
		p.logger.Warn("processor.publish.failed", "document_id", id, "err", err)
	}
	return nil
}

// ProcessFile reads path and processes it, tracking an extract job when a
// job repository is configured.
func (p *Processor) ProcessFile(ctx context.Context, path string) (*Outcome, error) {
	var jobID uuid.UUID
	if p.jobs != nil {
		job, err := p.jobs.Start(ctx, path)
		if err != nil {
			return nil, fmt.Errorf("start job: %w", err)
		}
		jobID = job.ID
	}
	fail := func(err error) (*Outcome, error) {
		if p.jobs != nil {
			_ = p.jobs.FinishFailure(ctx, jobID, common.UserMessage(err))
		}
		return nil, err
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return fail(fmt.Errorf("read %s: %w", path, err))
	}
	out, err := p.Process(ctx, Input{Name: filepath.Base(path), Content: content, Archive: true})
	if err != nil {
		return fail(err)
	}

	if p.jobs != nil {
		if err := p.jobs.FinishText(ctx, jobID, out.Method, out.Pages); err != nil {
			return out, err
		}
		_, subjects, _, _ := out.Result.Totals()
		if err := p.jobs.FinishSuccess(ctx, jobID, out.DocumentID, len(out.Result.Students), subjects); err != nil {
			return out, err
		}
	}
	return out, nil
}
