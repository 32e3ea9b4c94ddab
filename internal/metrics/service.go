package metrics

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/AngelCh415/campaign-dash/internal/models"
)

// RowSource supplies the raw cells of the campaign sheet.
type RowSource interface {
	FetchRows(ctx context.Context) ([]models.RawRow, error)
}

// Observer receives pipeline counters. *telemetry.Metrics implements it.
type Observer interface {
	RowParsed()
	RowRejected(reason string)
	FieldCoerced(field string)
	FetchDone(d time.Duration, err error)
}

type nopObserver struct{}

func (nopObserver) RowParsed()                     {}
func (nopObserver) RowRejected(string)             {}
func (nopObserver) FieldCoerced(string)            {}
func (nopObserver) FetchDone(time.Duration, error) {}

// Service turns the sheet into campaign KPIs. It keeps no state between
// calls: every call fetches and recomputes.
type Service struct {
	src    RowSource
	parser *RowParser
	agg    *Aggregator
	log    *slog.Logger
	obs    Observer
	now    func() time.Time
	loc    *time.Location
}

type Option func(*Service)

func WithObserver(o Observer) Option {
	return func(s *Service) {
		if o != nil {
			s.obs = o
		}
	}
}

func WithClock(now func() time.Time) Option { return func(s *Service) { s.now = now } }

func NewService(src RowSource, parser *RowParser, agg *Aggregator, log *slog.Logger, loc *time.Location, opts ...Option) *Service {
	if loc == nil {
		loc = time.UTC
	}
	s := &Service{src: src, parser: parser, agg: agg, log: log, obs: nopObserver{}, now: time.Now, loc: loc}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *Service) Location() *time.Location { return s.loc }

// Campaigns fetches the sheet and aggregates it over window. A source error
// is returned as is.
func (s *Service) Campaigns(ctx context.Context, window DateRange) ([]models.CampaignKPI, error) {
	start := time.Now()
	rows, err := s.src.FetchRows(ctx)
	s.obs.FetchDone(time.Since(start), err)
	if err != nil {
		return nil, err
	}

	records := s.Records(rows)
	now := s.now().In(s.loc)
	out := s.agg.Aggregate(records, window, now)

	s.log.Info("campaigns aggregated",
		slog.Int("rows", len(rows)),
		slog.Int("records", len(records)),
		slog.Int("campaigns", len(out)),
		slog.String("window", window.String()))
	return out, nil
}

// Records parses every data row, dropping rejected ones.
func (s *Service) Records(rows []models.RawRow) []models.FactRecord {
	if s.parser.Schema().HasHeader && len(rows) > 0 {
		rows = rows[1:]
	}
	out := make([]models.FactRecord, 0, len(rows))
	for i, row := range rows {
		res, err := s.parser.Parse(row)
		if err != nil {
			var rej *RejectError
			reason := "unknown"
			if errors.As(err, &rej) {
				reason = rej.Reason
			}
			s.obs.RowRejected(reason)
			s.log.Debug("row dropped", slog.Int("row", i), slog.String("reason", reason), slog.String("err", err.Error()))
			continue
		}
		for _, c := range res.Coerced {
			s.obs.FieldCoerced(c.Field)
			s.log.Debug("field defaulted", slog.Int("row", i), slog.String("field", c.Field), slog.String("raw", c.Raw), slog.String("reason", c.Reason))
		}
		s.obs.RowParsed()
		out = append(out, res.Record)
	}
	return out
}
