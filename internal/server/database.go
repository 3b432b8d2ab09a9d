package server

import (
	"context"
	"log/slog"

	"github.com/joseph-ayodele/results-ledger/internal/common"
	repo "github.com/joseph-ayodele/results-ledger/internal/repository"
)

// Archive bundles the open database with the repositories built on it.
type Archive struct {
	DB    *repo.DB
	Store repo.Store
	Jobs  repo.ExtractJobRepository
}

// Close releases the underlying connections.
func (a *Archive) Close() {
	if a != nil && a.Store != nil {
		a.Store.Close()
	}
}

// ConnectDB opens the archive described by cfg. inmem swaps the DSN for a
// private in-memory SQLite database.
func ConnectDB(ctx context.Context, cfg common.DatabaseConfig, inmem bool, logger *slog.Logger) (*Archive, error) {
	dsn := cfg.DSN
	if inmem {
		dsn = ":memory:"
	}

	logger.Info("connecting to database", "dialect", repo.DialectFor(dsn))
	db, err := repo.Open(ctx, repo.Config{
		DSN:             dsn,
		MaxConns:        cfg.MaxConns,
		MinConns:        cfg.MinConns,
		MaxConnLifetime: cfg.MaxConnLifetime,
		MaxConnIdleTime: cfg.MaxConnIdleTime,
		DialTimeout:     cfg.DialTimeout,
	}, logger)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		return nil, err
	}
	if err := db.HealthCheck(ctx, cfg.DialTimeout); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info("successfully connected to database")
	return &Archive{
		DB:    db,
		Store: repo.NewResultStore(db, logger),
		Jobs:  repo.NewExtractJobRepository(db, logger),
	}, nil
}
