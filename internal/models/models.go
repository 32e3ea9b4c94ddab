package models

import "time"

// RawRow is one spreadsheet row as returned by the source. Cells are strings
// or numbers depending on how the sheet was rendered.
type RawRow []any

type FactRecord struct {
	Date         time.Time
	App          string
	StoreID      string
	CampaignName string
	Platform     string
	Country      string
	Impressions  int
	Clicks       int
	Installs     int
	Cost         float64
}

// Coercion records a field that was replaced by its default value.
type Coercion struct {
	Field  string
	Raw    string
	Reason string
}

const StatusLive = "live"

type CampaignKPI struct {
	ID               string   `json:"id"`
	Name             string   `json:"name"`
	TotalBudget      float64  `json:"totalBudget"`
	DailyBudget      float64  `json:"dailyBudget"`
	SpendTotal       float64  `json:"spendTotal"`
	SpendToday       float64  `json:"spendToday"`
	SpendYesterday   float64  `json:"spendYesterday"`
	TotalClicks      int      `json:"totalClicks"`
	TotalInstalls    int      `json:"totalInstalls"`
	TotalImpressions int      `json:"totalImpressions"`
	Status           string   `json:"status"`
	Country          string   `json:"country"`
	PercentageSpent  float64  `json:"percentageSpent"`
	RemainingBudget  float64  `json:"remainingBudget"`
	CPA              *float64 `json:"cpa,omitempty"`
}

// AdjustRow is one day x campaign line of an Adjust report.
type AdjustRow struct {
	Day          string
	CampaignName string
	Impressions  int
	Clicks       int
	Installs     int
	Cost         float64
}

type Identity struct {
	Email string
}

// Envelope is the JSON body of login, sync and error responses.
type Envelope struct {
	Success bool   `json:"success"`
	Token   string `json:"token,omitempty"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// CampaignsEnvelope always carries the campaigns array, even when empty.
type CampaignsEnvelope struct {
	Success   bool          `json:"success"`
	Campaigns []CampaignKPI `json:"campaigns"`
}
