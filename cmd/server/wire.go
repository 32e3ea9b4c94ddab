package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/AngelCh415/campaign-dash/internal/auth"
	"github.com/AngelCh415/campaign-dash/internal/config"
	"github.com/AngelCh415/campaign-dash/internal/ingest"
	"github.com/AngelCh415/campaign-dash/internal/metrics"
	"github.com/AngelCh415/campaign-dash/internal/models"
	"github.com/AngelCh415/campaign-dash/internal/sheets"
	"github.com/AngelCh415/campaign-dash/internal/store"
	"github.com/AngelCh415/campaign-dash/internal/telemetry"
	"github.com/AngelCh415/campaign-dash/internal/utils"
)

type sheetBackend interface {
	metrics.RowSource
	ingest.RowSink
}

type app struct {
	tel       *telemetry.Metrics
	campaigns *metrics.Service
	auth      *auth.Manager
	syncer    *ingest.Syncer
}

// build constructs every service once; nothing below is a package global.
func build(ctx context.Context, cfg config.Config, logger *slog.Logger) (*app, error) {
	tel := telemetry.New()

	backend, err := newBackend(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	schema, ok := metrics.SchemaByName(cfg.Sheet.Schema)
	if !ok {
		return nil, fmt.Errorf("unknown sheet schema %q", cfg.Sheet.Schema)
	}
	loc := cfg.Location()
	parser := metrics.NewRowParser(schema, metrics.DatePolicyFromString(cfg.Pipeline.DatePolicy), loc, time.Now)
	agg := metrics.NewAggregator(metrics.BudgetFromConfig(cfg.Pipeline), cfg.Pipeline.YesterdayFromUnfiltered)

	a := &app{
		tel:       tel,
		campaigns: metrics.NewService(backend, parser, agg, logger, loc, metrics.WithObserver(tel)),
		auth:      auth.NewManager(cfg.Auth.JWTSecret, cfg.Auth.AdminEmail, cfg.Auth.AdminPasswordHash, cfg.Auth.TokenTTL, logger),
	}

	if cfg.Adjust.APIToken != "" {
		client := ingest.NewAdjustClient(ingest.NewHTTPClient(cfg.HTTPTimeout), cfg.Adjust.APIURL, cfg.Adjust.APIToken, utils.NewBackoff(200*time.Millisecond, 2))
		a.syncer = ingest.NewSyncer(client, backend, store.NewLedger(), logger, cfg.Adjust.AppLabel, loc, tel)
	}
	return a, nil
}

func newBackend(ctx context.Context, cfg config.Config, logger *slog.Logger) (sheetBackend, error) {
	if cfg.Sheet.Source == config.SourceMemory {
		logger.Warn("using in-memory sheet source")
		return store.NewMemoryStore(memoryHeader(cfg.Sheet.Schema)), nil
	}
	appendCfg := cfg
	appendCfg.Sheet.Schema = config.SchemaAdjust
	return sheets.NewSource(ctx, sheets.Config{
		SpreadsheetID:   cfg.Sheet.SpreadsheetID,
		APIKey:          cfg.Sheet.APIKey,
		CredentialsFile: cfg.Sheet.CredentialsFile,
		ReadRange:       cfg.SheetRange(),
		AppendRange:     appendCfg.SheetRange(),
	}, logger)
}

func memoryHeader(schema string) models.RawRow {
	if schema == config.SchemaAdjust {
		return models.RawRow{"Date", "App", "Campaign Name", "Impressions", "Clicks", "Installs", "Cost"}
	}
	return models.RawRow{"Date", "App", "Store ID", "Campaign Name", "Platform", "Country", "Impressions", "Clicks", "Installs", "Cost"}
}
