package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/AngelCh415/campaign-dash/internal/models"
	"github.com/AngelCh415/campaign-dash/internal/store"
)

const sheetDayLayout = "02/01/2006"

// Reporter is the Adjust side of the sync.
type Reporter interface {
	Report(ctx context.Context, from, to time.Time) ([]models.AdjustRow, error)
}

// RowSink accepts rows laid out in the adjust sheet schema.
type RowSink interface {
	AppendRows(ctx context.Context, rows []models.RawRow) error
}

type SyncObserver interface {
	AdjustRowsSynced(n int)
}

// Syncer copies Adjust report rows into the campaign sheet.
type Syncer struct {
	rep      Reporter
	sink     RowSink
	ledger   *store.Ledger
	log      *slog.Logger
	obs      SyncObserver
	appLabel string
	loc      *time.Location
	now      func() time.Time
}

func NewSyncer(rep Reporter, sink RowSink, ledger *store.Ledger, log *slog.Logger, appLabel string, loc *time.Location, obs SyncObserver) *Syncer {
	if loc == nil {
		loc = time.UTC
	}
	if ledger == nil {
		ledger = store.NewLedger()
	}
	return &Syncer{rep: rep, sink: sink, ledger: ledger, log: log, obs: obs, appLabel: appLabel, loc: loc, now: time.Now}
}

// SyncYesterday syncs the day before today in the configured location.
func (s *Syncer) SyncYesterday(ctx context.Context) (int, error) {
	y, m, d := s.now().In(s.loc).Date()
	return s.SyncDay(ctx, time.Date(y, m, d-1, 0, 0, 0, 0, s.loc))
}

// SyncDay appends the rows of one day and returns how many were written.
// Rows already written by this process are skipped.
func (s *Syncer) SyncDay(ctx context.Context, day time.Time) (int, error) {
	report, err := s.rep.Report(ctx, day, day)
	if err != nil {
		return 0, err
	}
	if len(report) == 0 {
		s.log.Info("adjust sync: no data", slog.String("day", day.Format(adjustDayLayout)))
		return 0, nil
	}

	rows := make([]models.RawRow, 0, len(report))
	keys := make([]string, 0, len(report))
	for _, r := range report {
		date := s.sheetDate(r.Day, day)
		key := date + "|" + r.CampaignName
		if !s.ledger.MarkSeen(key) {
			continue
		}
		keys = append(keys, key)
		rows = append(rows, models.RawRow{date, s.appLabel, r.CampaignName, r.Impressions, r.Clicks, r.Installs, r.Cost})
	}
	if len(rows) == 0 {
		s.log.Info("adjust sync: already synced", slog.String("day", day.Format(adjustDayLayout)))
		return 0, nil
	}

	if err := s.sink.AppendRows(ctx, rows); err != nil {
		s.ledger.Forget(keys...)
		return 0, fmt.Errorf("adjust sync: append: %w", err)
	}
	if s.obs != nil {
		s.obs.AdjustRowsSynced(len(rows))
	}
	s.log.Info("adjust sync complete", slog.String("day", day.Format(adjustDayLayout)), slog.Int("rows", len(rows)))
	return len(rows), nil
}

// sheetDate rewrites Adjust's YYYY-MM-DD day as the DD/MM/YYYY the sheet
// parser reads, defaulting to the requested day.
func (s *Syncer) sheetDate(raw string, fallback time.Time) string {
	if t, err := time.ParseInLocation(adjustDayLayout, raw, s.loc); err == nil {
		return t.Format(sheetDayLayout)
	}
	return fallback.Format(sheetDayLayout)
}
