package ingest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/AngelCh415/campaign-dash/internal/models"
	"github.com/AngelCh415/campaign-dash/internal/utils"
)

const adjustDayLayout = "2006-01-02"

var ErrAdjustNotConfigured = errors.New("adjust: api token not configured")

type AdjustClient struct {
	c       HTTPClient
	baseURL string
	token   string
	backoff utils.Backoff
}

func NewAdjustClient(c HTTPClient, baseURL, token string, b utils.Backoff) *AdjustClient {
	return &AdjustClient{c: c, baseURL: baseURL, token: token, backoff: b}
}

// flexNumber accepts 12, 12.5, "12" or "12.5".
type flexNumber float64

func (n *flexNumber) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*n = 0
		return nil
	}
	s := strings.Trim(string(b), `"`)
	if s == "" {
		*n = 0
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("adjust: number %s: %w", b, err)
	}
	*n = flexNumber(v)
	return nil
}

type adjustResp []struct {
	Day          string     `json:"day"`
	CampaignName string     `json:"campaign_name"`
	Impressions  flexNumber `json:"impressions"`
	Clicks       flexNumber `json:"clicks"`
	Installs     flexNumber `json:"installs"`
	Cost         flexNumber `json:"cost"`
}

// Report fetches day x campaign totals between from and to, both included.
func (a *AdjustClient) Report(ctx context.Context, from, to time.Time) ([]models.AdjustRow, error) {
	if a.token == "" {
		return nil, ErrAdjustNotConfigured
	}
	u, err := url.Parse(a.baseURL)
	if err != nil {
		return nil, fmt.Errorf("adjust: base url: %w", err)
	}
	q := u.Query()
	q.Set("date_from", from.Format(adjustDayLayout))
	q.Set("date_to", to.Format(adjustDayLayout))
	q.Set("metrics", "impressions,clicks,installs,cost")
	q.Set("group_by", "day,campaign_name")
	q.Set("format", "json")
	u.RawQuery = q.Encode()

	h := http.Header{}
	h.Set("Authorization", "Bearer "+a.token)
	h.Set("Accept", "application/json")

	var resp adjustResp
	if err := GetJSONWithRetry(ctx, a.c, a.backoff, u.String(), h, &resp); err != nil {
		return nil, fmt.Errorf("adjust: report %s..%s: %w", from.Format(adjustDayLayout), to.Format(adjustDayLayout), err)
	}

	out := make([]models.AdjustRow, 0, len(resp))
	for _, r := range resp {
		out = append(out, models.AdjustRow{
			Day:          strings.TrimSpace(r.Day),
			CampaignName: r.CampaignName,
			Impressions:  max0(int(r.Impressions)),
			Clicks:       max0(int(r.Clicks)),
			Installs:     max0(int(r.Installs)),
			Cost:         maxf(float64(r.Cost)),
		})
	}
	return out, nil
}

func max0(i int) int {
	if i < 0 {
		return 0
	}
	return i
}

func maxf(f float64) float64 {
	if f < 0 {
		return 0
	}
	return f
}
