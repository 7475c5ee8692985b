package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"toronto-housing/config"
	"toronto-housing/models"
	"toronto-housing/scraper/zolo"
	"toronto-housing/services"
	"toronto-housing/storage"
	"toronto-housing/utils"
)

const (
	modeScrape = "scrape"
	modeClean  = "clean"
	modeEDA    = "eda"
	modeAll    = "all"

	workbookName = "eda_summary.xlsx"
)

// scrapeFunc fetches raw listings; swapped out in tests.
type scrapeFunc func(ctx context.Context) ([]*models.RawListing, error)

type pipeline struct {
	cfg    *config.Config
	logger *utils.Logger
	scrape scrapeFunc

	// printReport enables the console summary after the EDA stage.
	printReport bool
}

func newPipeline(cfg *config.Config, logger *utils.Logger) *pipeline {
	return &pipeline{
		cfg:         cfg,
		logger:      logger,
		scrape:      zolo.New(cfg, logger).Scrape,
		printReport: true,
	}
}

func (p *pipeline) run(ctx context.Context, mode string) error {
	switch mode {
	case modeScrape:
		_, err := p.scrapeStage(ctx)
		return err

	case modeClean:
		raw, err := storage.ReadRawCSV(p.cfg.RawCSVPath)
		if err != nil {
			return err
		}
		p.logger.Info("Loaded %d raw listings from %s", len(raw), p.cfg.RawCSVPath)
		_, err = p.cleanStage(ctx, raw)
		return err

	case modeEDA:
		clean, err := storage.ReadCleanCSV(p.cfg.CleanCSVPath)
		if err != nil {
			return err
		}
		p.logger.Info("Loaded %d clean listings from %s", len(clean), p.cfg.CleanCSVPath)
		return p.edaStage(clean)

	case modeAll:
		raw, err := p.scrapeStage(ctx)
		if err != nil {
			return err
		}
		clean, err := p.cleanStage(ctx, raw)
		if err != nil {
			return err
		}
		return p.edaStage(p.reloadFromDB(ctx, clean))
	}
	return fmt.Errorf("unknown mode %q", mode)
}

func (p *pipeline) scrapeStage(ctx context.Context) ([]*models.RawListing, error) {
	raw, err := p.scrape(ctx)
	if err != nil {
		if len(raw) == 0 {
			return nil, fmt.Errorf("scrape failed: %w", err)
		}
		p.logger.Error("Scrape stopped early, keeping %d listings: %v", len(raw), err)
	}
	if len(raw) == 0 {
		return nil, errors.New("no listings were scraped")
	}

	w, err := storage.NewRawCSVWriter(p.cfg.RawCSVPath)
	if err != nil {
		return nil, err
	}
	if err := w.WriteRaw(raw); err != nil {
		_ = w.Close()
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	p.logger.Info("Saved %d listings to %s", len(raw), p.cfg.RawCSVPath)
	return raw, nil
}

func (p *pipeline) cleanStage(ctx context.Context, raw []*models.RawListing) ([]*models.CleanListing, error) {
	cleaner := services.NewCleaner(p.logger, p.cfg.CleanWorkers)
	clean, stats := cleaner.Clean(raw)
	if stats.Kept == 0 {
		return nil, fmt.Errorf("all %d listings were dropped during cleaning", stats.Input)
	}
	if stats.Dropped() > 0 {
		p.logger.Warn("Dropped %d of %d listings (insufficient: %d, malformed: %d, duplicates: %d)",
			stats.Dropped(), stats.Input, stats.InsufficientSignal, stats.MalformedField, stats.Duplicates)
	}

	csvWriter, err := storage.NewCleanCSVWriter(p.cfg.CleanCSVPath)
	if err != nil {
		return nil, err
	}
	sinks := []storage.ListingWriter{csvWriter}

	if p.cfg.PostgresEnabled {
		pg, err := storage.NewPostgresWriter(ctx, p.cfg.DSN())
		if err != nil {
			p.logger.Error("Failed to connect to PostgreSQL, skipping database: %v", err)
		} else {
			sinks = append(sinks, pg)
		}
	}

	var errs []error
	for _, sink := range sinks {
		if err := sink.Write(ctx, clean); err != nil {
			errs = append(errs, err)
		}
		if err := sink.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return clean, err
	}

	p.logger.Info("Saved %d clean listings to %s", len(clean), p.cfg.CleanCSVPath)
	return clean, nil
}

// reloadFromDB returns what PostgreSQL now holds when the database is enabled,
// falling back to the in-memory listings.
func (p *pipeline) reloadFromDB(ctx context.Context, clean []*models.CleanListing) []*models.CleanListing {
	if !p.cfg.PostgresEnabled {
		return clean
	}
	pg, err := storage.NewPostgresWriter(ctx, p.cfg.DSN())
	if err != nil {
		p.logger.Warn("PostgreSQL unavailable for insights, using in-memory listings: %v", err)
		return clean
	}
	defer pg.Close()

	stored, err := pg.FetchAll(ctx)
	if err != nil || len(stored) == 0 {
		p.logger.Warn("Failed to fetch listings from DB for insights (%d rows): %v", len(stored), err)
		return clean
	}
	return stored
}

func (p *pipeline) edaStage(clean []*models.CleanListing) error {
	insights := services.NewInsightService(p.logger)
	report := insights.Generate(clean)

	writers := []storage.ReportWriter{
		storage.NewFileReportWriter(p.cfg.EDAOutputDir),
		storage.NewExcelWriter(filepath.Join(p.cfg.EDAOutputDir, workbookName)),
	}
	for _, w := range writers {
		if err := w.WriteReport(report); err != nil {
			return err
		}
	}
	p.logger.Info("EDA outputs written to %s", p.cfg.EDAOutputDir)

	if p.printReport {
		insights.Print(report)
	}
	return nil
}
