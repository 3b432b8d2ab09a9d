package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joseph-ayodele/results-ledger/internal/common"
	"github.com/joseph-ayodele/results-ledger/internal/contract"
	"github.com/joseph-ayodele/results-ledger/internal/entity"
	"github.com/joseph-ayodele/results-ledger/internal/ledger"
	"github.com/joseph-ayodele/results-ledger/internal/pdftext"
)

func main() {
	var (
		textPath = flag.String("text", "", "parse an already extracted text file instead of a PDF")
		method   = flag.String("method", "", "pdf text method: native, pdftotext or auto (default from PDF_METHOD)")
		date     = flag.String("date", "", "result date (D/M/YYYY) used when the ledger prints none")
		noRaw    = flag.Bool("no-raw", false, "omit rawText from the output")
		validate = flag.Bool("validate", false, "fail when the result does not match the output contract")
	)
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: ledgerparse [flags] <ledger.pdf>\n       ledgerparse [flags] -text <ledger.txt>\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	cfg := common.LoadConfig()
	logger := common.NewLogger(os.Stderr, cfg.Log)
	if *date == "" {
		*date = cfg.Ledger.DefaultResultDate
	}
	if *method == "" {
		*method = cfg.PDF.Method
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	extractor := ledger.NewExtractor(logger, ledger.WithDefaultDate(*date))

	var (
		res entity.ExtractionResult
		err error
	)
	switch {
	case *textPath != "":
		raw, rerr := os.ReadFile(*textPath)
		if rerr != nil {
			logger.Error("failed to read text file", "path", *textPath, "error", rerr)
			os.Exit(1)
		}
		res = extractor.Extract(pdftext.Clean(string(raw)))
	case flag.NArg() == 1:
		content, rerr := os.ReadFile(flag.Arg(0))
		if rerr != nil {
			logger.Error("failed to read pdf", "path", flag.Arg(0), "error", rerr)
			os.Exit(1)
		}
		src := pdftext.NewExtractor(pdftext.Config{
			Method:    *method,
			Pdftotext: cfg.PDF.Pdftotext,
			MaxPages:  cfg.PDF.MaxPages,
		}, logger)
		res, err = extractor.ExtractDocument(ctx, src, content)
		if err != nil {
			fmt.Fprintln(os.Stderr, common.UserMessage(err))
			os.Exit(1)
		}
	default:
		flag.Usage()
		os.Exit(2)
	}

	if *validate {
		if err := contract.Validate(res); err != nil {
			logger.Error("result failed contract validation", "error", err)
			os.Exit(1)
		}
	}
	if *noRaw {
		res.RawText = ""
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(res); err != nil {
		logger.Error("failed to encode result", "error", err)
		os.Exit(1)
	}
}
