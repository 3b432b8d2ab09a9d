package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/results-ledger/internal/async"
	"github.com/joseph-ayodele/results-ledger/internal/common"
	"github.com/joseph-ayodele/results-ledger/internal/events"
	"github.com/joseph-ayodele/results-ledger/internal/export"
	"github.com/joseph-ayodele/results-ledger/internal/ingest"
	"github.com/joseph-ayodele/results-ledger/internal/ledger"
	"github.com/joseph-ayodele/results-ledger/internal/pdftext"
	"github.com/joseph-ayodele/results-ledger/internal/pipeline"
	"github.com/joseph-ayodele/results-ledger/internal/server"
)

// printError prints an error message to stderr, falling back to stdout if stderr fails
func printError(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

func main() {
	var (
		inmem      = flag.Bool("inmem", false, "use in-memory SQLite database")
		dir        = flag.String("dir", "", "directory to process ledgers from (required)")
		out        = flag.String("out", "", "output directory for XLSX workbooks (optional, defaults to --dir)")
		workers    = flag.Int("workers", 4, "number of concurrent workers")
		skipHidden = flag.Bool("skip-hidden", true, "skip hidden files and directories")
	)
	flag.Parse()

	if *dir == "" {
		printError("Error: --dir is required\n")
		os.Exit(1)
	}
	if *out == "" {
		*out = *dir
	}
	if err := os.MkdirAll(*out, 0o755); err != nil {
		printError("Error: cannot create output directory: %v\n", err)
		os.Exit(1)
	}

	cfg := common.LoadConfig()
	logger := common.NewLogger(os.Stdout, cfg.Log)
	ctx := context.Background()

	archive, err := server.ConnectDB(ctx, cfg.Database, *inmem, logger)
	if err != nil {
		logger.Error("failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer archive.Close()

	publisher, err := events.New(events.KafkaConfig{Brokers: cfg.Kafka.Brokers, Topic: cfg.Kafka.Topic}, logger)
	if err != nil {
		logger.Error("failed to create event publisher", "error", err)
		os.Exit(1)
	}
	defer func() { _ = publisher.Close() }()

	converter := pdftext.NewExtractor(pdftext.Config{
		Method:    cfg.PDF.Method,
		Pdftotext: cfg.PDF.Pdftotext,
		MaxPages:  cfg.PDF.MaxPages,
	}, logger)
	processor := pipeline.NewProcessor(logger, converter,
		ledger.NewExtractor(logger, ledger.WithDefaultDate(cfg.Ledger.DefaultResultDate)),
		pipeline.WithStore(archive.Store),
		pipeline.WithJobs(archive.Jobs),
		pipeline.WithPublisher(publisher),
		pipeline.WithStrictContract(cfg.Server.StrictContract),
	)
	exporter := export.NewService(archive.Store, logger)

	ingestor := ingest.NewFSIngestor(archive.Store, logger)
	logger.Info("starting ingestion", "dir", *dir)
	results, stats, err := ingestor.IngestDirectory(ctx, *dir, *skipHidden)
	if err != nil {
		logger.Error("failed to ingest directory", "error", err)
		os.Exit(1)
	}

	report := newBatchReport(*dir, int(stats.Failed))
	writeWorkbook := func(source string, body []byte) {
		path := filepath.Join(*out, report.claim(source))
		if err := os.WriteFile(path, body, 0o644); err != nil {
			logger.Error("failed to write output file", "path", path, "error", err)
			report.failed()
			return
		}
		report.wrote()
	}

	queue := async.NewProcessorQueue(processor, logger,
		async.WithWorkers(*workers),
		async.WithQueueSize(64),
		async.WithProcessTimeout(cfg.Server.RequestTimeout),
		async.WithOnResult(func(job async.Job, res *pipeline.Outcome, err error) {
			var body []byte
			if err == nil {
				body, err = exporter.BuildXLSX(res.Result)
			}
			if err != nil {
				report.failed()
				return
			}
			writeWorkbook(job.Path, body)
		}),
	)

	pending := ingest.Pending(results)
	for _, path := range pending {
		if err := queue.Enqueue(ctx, async.Job{Path: path, TraceID: uuid.NewString()}); err != nil {
			logger.Error("failed to enqueue", "path", path, "error", err)
		}
	}
	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Minute)
	queue.Shutdown(shutdownCtx)
	cancel()

	// Already archived ledgers are exported from the archive.
	for _, r := range results {
		if r.DocumentID == "" {
			continue
		}
		id, err := uuid.Parse(r.DocumentID)
		if err != nil {
			continue
		}
		body, err := exporter.ExportDocumentXLSX(ctx, id)
		if err != nil {
			logger.Error("failed to export archived document", "document_id", id, "error", err)
			report.failed()
			continue
		}
		writeWorkbook(r.SourcePath, body)
	}

	written, failures := report.totals()

	logger.Info("batch processing complete",
		"scanned", stats.Scanned,
		"matched", stats.Matched,
		"queued", len(pending),
		"deduplicated", stats.Deduplicated,
		"workbooks", written,
		"failures", failures,
		"output_dir", *out)

	fmt.Printf("Batch processing complete!\n")
	fmt.Printf("- Ledgers found: %d\n", stats.Matched)
	fmt.Printf("- Workbooks written: %d\n", written)
	fmt.Printf("- Failures: %d\n", failures)
	fmt.Printf("- Output: %s\n", *out)
	if failures > 0 {
		os.Exit(1)
	}
}
