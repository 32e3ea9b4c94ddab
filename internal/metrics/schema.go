package metrics

import "github.com/AngelCh415/campaign-dash/internal/config"

// Schema maps FactRecord fields to column positions. A negative index means
// the column is absent.
type Schema struct {
	Name         string
	Date         int
	App          int
	StoreID      int
	CampaignName int
	Platform     int
	Country      int
	Impressions  int
	Clicks       int
	Installs     int
	Cost         int
	MinColumns   int
	HasHeader    bool
}

// ReportSchema is the ten column export maintained by hand in the sheet.
var ReportSchema = Schema{
	Name:         config.SchemaReport,
	Date:         0,
	App:          1,
	StoreID:      2,
	CampaignName: 3,
	Platform:     4,
	Country:      5,
	Impressions:  6,
	Clicks:       7,
	Installs:     8,
	Cost:         9,
	MinColumns:   10,
	HasHeader:    true,
}

// AdjustSchema is the seven column layout written by the Adjust sync.
var AdjustSchema = Schema{
	Name:         config.SchemaAdjust,
	Date:         0,
	App:          1,
	StoreID:      -1,
	CampaignName: 2,
	Platform:     -1,
	Country:      -1,
	Impressions:  3,
	Clicks:       4,
	Installs:     5,
	Cost:         6,
	MinColumns:   7,
	HasHeader:    true,
}

// SchemaByName resolves a config schema name ("report" or "adjust").
func SchemaByName(name string) (Schema, bool) {
	switch name {
	case config.SchemaReport:
		return ReportSchema, true
	case config.SchemaAdjust:
		return AdjustSchema, true
	}
	return Schema{}, false
}
