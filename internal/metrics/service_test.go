package metrics

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AngelCh415/campaign-dash/internal/models"
)

// fakeSource is a RowSource test double.
type fakeSource struct {
	FetchFn func(ctx context.Context) ([]models.RawRow, error)
	calls   int
}

func (f *fakeSource) FetchRows(ctx context.Context) ([]models.RawRow, error) {
	f.calls++
	if f.FetchFn != nil {
		return f.FetchFn(ctx)
	}
	return nil, nil
}

type countingObserver struct {
	parsed   int
	rejected map[string]int
	coerced  map[string]int
	fetchErr int
}

func newCountingObserver() *countingObserver {
	return &countingObserver{rejected: map[string]int{}, coerced: map[string]int{}}
}

func (o *countingObserver) RowParsed()                { o.parsed++ }
func (o *countingObserver) RowRejected(reason string) { o.rejected[reason]++ }
func (o *countingObserver) FieldCoerced(field string) { o.coerced[field]++ }
func (o *countingObserver) FetchDone(_ time.Duration, err error) {
	if err != nil {
		o.fetchErr++
	}
}

var serviceNow = time.Date(2025, 3, 3, 18, 0, 0, 0, time.UTC)

func newTestService(src RowSource, obs Observer) *Service {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	clock := func() time.Time { return serviceNow }
	parser := NewRowParser(ReportSchema, DateFallbackNow, time.UTC, clock)
	return NewService(src, parser, NewAggregator(defaultBudget, true), log, time.UTC, WithObserver(obs), WithClock(clock))
}

func sheet() []models.RawRow {
	return []models.RawRow{
		{"Date", "App", "Store", "Campaign", "Platform", "Country", "Impressions", "Clicks", "Installs", "Cost"},
		reportRow("01/03/2025", "Alpha", "FR", "100", "10", "2", "50"),
		reportRow("02/03/2025", "Alpha", "BE", "80", "5", "1", "25"),
		{"02/03/2025", "Ghost"},
		reportRow("02/03/2025", "Beta", "ES", "n/a", "3", "0", "12,5"),
	}
}

func TestServiceCampaigns(t *testing.T) {
	obs := newCountingObserver()
	src := &fakeSource{FetchFn: func(ctx context.Context) ([]models.RawRow, error) { return sheet(), nil }}
	svc := newTestService(src, obs)

	w, err := ParseDateRange("2025-03-01", "2025-03-02", time.UTC)
	require.NoError(t, err)
	out, err := svc.Campaigns(context.Background(), w)
	require.NoError(t, err)
	require.Len(t, out, 2)

	alpha, beta := out[0], out[1]
	assert.Equal(t, "Alpha", alpha.Name)
	assert.Equal(t, 15, alpha.TotalClicks)
	assert.Equal(t, 75.0, alpha.SpendTotal)
	assert.Equal(t, 25.0, alpha.SpendYesterday)
	assert.Equal(t, 450.0, alpha.SpendToday)

	assert.Equal(t, "Beta", beta.Name)
	assert.Equal(t, 0, beta.TotalImpressions)
	assert.Equal(t, 12.5, beta.SpendTotal)
	assert.Nil(t, beta.CPA)

	assert.Equal(t, 1, src.calls)
	assert.Equal(t, 3, obs.parsed)
	assert.Equal(t, map[string]int{ReasonShortRow: 1}, obs.rejected)
	assert.Equal(t, map[string]int{"impressions": 1}, obs.coerced)
}

func TestServiceDroppedRowsDoNotAffectTotals(t *testing.T) {
	base := sheet()[:3]
	withJunk := append(append([]models.RawRow(nil), base...), models.RawRow{"01/03/2025", "Alpha"}, models.RawRow{})

	svcA := newTestService(&fakeSource{FetchFn: func(context.Context) ([]models.RawRow, error) { return base, nil }}, nil)
	svcB := newTestService(&fakeSource{FetchFn: func(context.Context) ([]models.RawRow, error) { return withJunk, nil }}, nil)

	a, err := svcA.Campaigns(context.Background(), DateRange{})
	require.NoError(t, err)
	b, err := svcB.Campaigns(context.Background(), DateRange{})
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestServiceCampaignOnlyInDroppedRows(t *testing.T) {
	rows := []models.RawRow{sheet()[0], {"01/03/2025", "Ghost"}}
	svc := newTestService(&fakeSource{FetchFn: func(context.Context) ([]models.RawRow, error) { return rows, nil }}, nil)

	out, err := svc.Campaigns(context.Background(), DateRange{})
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestServiceHeaderOnlySheet(t *testing.T) {
	svc := newTestService(&fakeSource{FetchFn: func(context.Context) ([]models.RawRow, error) { return sheet()[:1], nil }}, nil)

	out, err := svc.Campaigns(context.Background(), DateRange{})
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestServicePropagatesSourceError(t *testing.T) {
	boom := errors.New("sheets: quota exceeded")
	obs := newCountingObserver()
	svc := newTestService(&fakeSource{FetchFn: func(context.Context) ([]models.RawRow, error) { return nil, boom }}, obs)

	out, err := svc.Campaigns(context.Background(), DateRange{})
	assert.Nil(t, out)
	assert.Same(t, boom, err)
	assert.Equal(t, 1, obs.fetchErr)
}

func TestServiceMalformedDateLandsToday(t *testing.T) {
	rows := []models.RawRow{sheet()[0], reportRow("yesterday-ish", "Alpha", "FR", "1", "1", "1", "9")}
	svc := newTestService(&fakeSource{FetchFn: func(context.Context) ([]models.RawRow, error) { return rows, nil }}, nil)

	w, err := ParseDateRange("2025-03-03", "2025-03-03", time.UTC)
	require.NoError(t, err)
	out, err := svc.Campaigns(context.Background(), w)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, 9.0, out[0].SpendTotal)
}
