// Package sheets reads and appends campaign rows through the Google Sheets
// v4 API.
package sheets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"google.golang.org/api/option"
	gsheets "google.golang.org/api/sheets/v4"

	"github.com/AngelCh415/campaign-dash/internal/models"
)

type Config struct {
	SpreadsheetID   string
	APIKey          string
	CredentialsFile string
	// ReadRange is the A1 range fetched by FetchRows, AppendRange the one
	// targeted by AppendRows.
	ReadRange   string
	AppendRange string
}

type Source struct {
	svc *gsheets.Service
	cfg Config
	log *slog.Logger
}

// NewSource builds the API client. Extra options override the credentials
// derived from cfg, which is how tests point it at a local server.
func NewSource(ctx context.Context, cfg Config, log *slog.Logger, opts ...option.ClientOption) (*Source, error) {
	if cfg.SpreadsheetID == "" {
		return nil, errors.New("sheets: spreadsheet id is required")
	}
	var all []option.ClientOption
	switch {
	case cfg.CredentialsFile != "":
		all = append(all, option.WithCredentialsFile(cfg.CredentialsFile))
	case cfg.APIKey != "":
		all = append(all, option.WithAPIKey(cfg.APIKey))
	}
	all = append(all, opts...)
	svc, err := gsheets.NewService(ctx, all...)
	if err != nil {
		return nil, fmt.Errorf("sheets: new service: %w", err)
	}
	return &Source{svc: svc, cfg: cfg, log: log}, nil
}

// FetchRows reads the whole configured range in one call.
func (s *Source) FetchRows(ctx context.Context) ([]models.RawRow, error) {
	resp, err := s.svc.Spreadsheets.Values.Get(s.cfg.SpreadsheetID, s.cfg.ReadRange).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("sheets: read %s: %w", s.cfg.ReadRange, err)
	}
	rows := make([]models.RawRow, 0, len(resp.Values))
	for _, v := range resp.Values {
		rows = append(rows, models.RawRow(v))
	}
	s.log.Debug("sheet read", slog.String("range", s.cfg.ReadRange), slog.Int("rows", len(rows)))
	return rows, nil
}

// AppendRows adds rows after the last filled line of the append range.
func (s *Source) AppendRows(ctx context.Context, rows []models.RawRow) error {
	if len(rows) == 0 {
		return nil
	}
	values := make([][]any, 0, len(rows))
	for _, r := range rows {
		values = append(values, []any(r))
	}
	_, err := s.svc.Spreadsheets.Values.
		Append(s.cfg.SpreadsheetID, s.cfg.AppendRange, &gsheets.ValueRange{Values: values}).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("sheets: append %s: %w", s.cfg.AppendRange, err)
	}
	s.log.Info("sheet rows appended", slog.String("range", s.cfg.AppendRange), slog.Int("rows", len(rows)))
	return nil
}
