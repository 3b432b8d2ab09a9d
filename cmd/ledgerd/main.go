package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"

	"github.com/joseph-ayodele/results-ledger/internal/common"
	"github.com/joseph-ayodele/results-ledger/internal/events"
	"github.com/joseph-ayodele/results-ledger/internal/export"
	"github.com/joseph-ayodele/results-ledger/internal/ledger"
	"github.com/joseph-ayodele/results-ledger/internal/pdftext"
	"github.com/joseph-ayodele/results-ledger/internal/pipeline"
	"github.com/joseph-ayodele/results-ledger/internal/server"
)

func main() {
	cfg := common.LoadConfig()
	logger := common.NewLogger(os.Stdout, cfg.Log)

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	archive, err := server.ConnectDB(ctx, cfg.Database, false, logger)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer archive.Close()

	publisher, err := events.New(events.KafkaConfig{
		Brokers: cfg.Kafka.Brokers,
		Topic:   cfg.Kafka.Topic,
	}, logger)
	if err != nil {
		logger.Error("failed to create event publisher", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			logger.Warn("closing publisher", "error", err)
		}
	}()

	converter := pdftext.NewExtractor(pdftext.Config{
		Method:    cfg.PDF.Method,
		Pdftotext: cfg.PDF.Pdftotext,
		MaxPages:  cfg.PDF.MaxPages,
	}, logger)
	extractor := ledger.NewExtractor(logger, ledger.WithDefaultDate(cfg.Ledger.DefaultResultDate))

	processor := pipeline.NewProcessor(logger, converter, extractor,
		pipeline.WithStore(archive.Store),
		pipeline.WithPublisher(publisher),
		pipeline.WithStrictContract(cfg.Server.StrictContract),
	)

	httpSrv := server.NewHTTPServer(cfg.Server, server.HTTPDeps{
		Processor: processor,
		Store:     archive.Store,
		Exporter:  export.NewService(archive.Store, logger),
		Health:    archive.DB,
	}, logger)
	grpcSrv, health := server.NewGRPCServer(
		server.NewLedgerService(processor, archive.Store, cfg.Server.RequestTimeout, logger), logger)

	httpLis, err := net.Listen("tcp", cfg.Server.HTTPAddr)
	if err != nil {
		logger.Error("failed to listen on address", "addr", cfg.Server.HTTPAddr, "error", err)
		os.Exit(1)
	}
	grpcLis, err := net.Listen("tcp", cfg.Server.GRPCAddr)
	if err != nil {
		logger.Error("failed to listen on address", "addr", cfg.Server.GRPCAddr, "error", err)
		os.Exit(1)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return httpSrv.Serve(httpLis)
	})
	g.Go(func() error {
		logger.Info("grpc serving", "addr", grpcLis.Addr().String())
		if err := grpcSrv.Serve(grpcLis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		health.Shutdown()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		grpcSrv.GracefulStop()
		return httpSrv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("server exited", "error", err)
		os.Exit(1)
	}
	slog.Info("stopped")
}
