package metrics

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/AngelCh415/campaign-dash/internal/models"
)

var ErrRowRejected = errors.New("row rejected")

// Rejection reasons, also used as metric labels.
const (
	ReasonShortRow        = "short_row"
	ReasonMissingCampaign = "missing_campaign"
	ReasonBadDate         = "bad_date"
)

// RejectError tells why a row was dropped. It matches ErrRowRejected.
type RejectError struct {
	Reason string
	Detail string
}

func (e *RejectError) Error() string {
	return fmt.Sprintf("row rejected: %s (%s)", e.Reason, e.Detail)
}

func (e *RejectError) Is(target error) bool { return target == ErrRowRejected }

// DatePolicy decides what happens to a row whose date cell is not DD/MM/YYYY.
type DatePolicy int

const (
	// DateFallbackNow keeps the row and dates it with the parse-time clock.
	DateFallbackNow DatePolicy = iota
	DateReject
)

// DatePolicyFromString maps "reject" to DateReject and anything else to
// DateFallbackNow.
func DatePolicyFromString(s string) DatePolicy {
	if s == "reject" {
		return DateReject
	}
	return DateFallbackNow
}

// ParseResult is one accepted row plus the cells that fell back to defaults.
type ParseResult struct {
	Record  models.FactRecord
	Coerced []models.Coercion
}

// RowParser turns raw sheet rows laid out by a Schema into fact records.
type RowParser struct {
	schema Schema
	policy DatePolicy
	loc    *time.Location
	now    func() time.Time
}

func NewRowParser(schema Schema, policy DatePolicy, loc *time.Location, now func() time.Time) *RowParser {
	if loc == nil {
		loc = time.UTC
	}
	if now == nil {
		now = time.Now
	}
	return &RowParser{schema: schema, policy: policy, loc: loc, now: now}
}

func (p *RowParser) Schema() Schema { return p.schema }

// Parse returns a *RejectError for rows that cannot become a record. Bad
// numeric cells never reject a row; they read as 0 and are listed in Coerced.
func (p *RowParser) Parse(row models.RawRow) (ParseResult, error) {
	s := p.schema
	if len(row) < s.MinColumns {
		return ParseResult{}, &RejectError{Reason: ReasonShortRow, Detail: fmt.Sprintf("%d < %d columns", len(row), s.MinColumns)}
	}
	name := cell(row, s.CampaignName)
	if name == "" {
		return ParseResult{}, &RejectError{Reason: ReasonMissingCampaign, Detail: "empty campaign name"}
	}

	var res ParseResult
	rawDate := cell(row, s.Date)
	d, ok := ParseSheetDate(rawDate, p.loc)
	if !ok {
		if p.policy == DateReject {
			return ParseResult{}, &RejectError{Reason: ReasonBadDate, Detail: rawDate}
		}
		d = p.now().In(p.loc)
		res.Coerced = append(res.Coerced, models.Coercion{Field: "date", Raw: rawDate, Reason: "malformed"})
	}

	res.Record = models.FactRecord{
		Date:         d,
		App:          cell(row, s.App),
		StoreID:      cell(row, s.StoreID),
		CampaignName: name,
		Platform:     cell(row, s.Platform),
		Country:      cell(row, s.Country),
	}
	res.Record.Impressions = p.intField(&res, row, s.Impressions, "impressions")
	res.Record.Clicks = p.intField(&res, row, s.Clicks, "clicks")
	res.Record.Installs = p.intField(&res, row, s.Installs, "installs")
	res.Record.Cost = p.floatField(&res, row, s.Cost, "cost")
	return res, nil
}

func (p *RowParser) intField(res *ParseResult, row models.RawRow, idx int, field string) int {
	raw := cell(row, idx)
	v, reason := parseLeadingInt(raw)
	if reason != "" {
		res.Coerced = append(res.Coerced, models.Coercion{Field: field, Raw: raw, Reason: reason})
		return 0
	}
	return v
}

func (p *RowParser) floatField(res *ParseResult, row models.RawRow, idx int, field string) float64 {
	raw := cell(row, idx)
	v, reason := parseLeadingFloat(raw)
	if reason != "" {
		res.Coerced = append(res.Coerced, models.Coercion{Field: field, Raw: raw, Reason: reason})
		return 0
	}
	return v
}

// ParseSheetDate reads DD/MM/YYYY into midnight of that day in loc. Out of
// range days and months roll over, so 32/01/2025 is 1 February.
func ParseSheetDate(s string, loc *time.Location) (time.Time, bool) {
	parts := strings.Split(strings.TrimSpace(s), "/")
	if len(parts) != 3 {
		return time.Time{}, false
	}
	day, err1 := strconv.Atoi(strings.TrimSpace(parts[0]))
	month, err2 := strconv.Atoi(strings.TrimSpace(parts[1]))
	year, err3 := strconv.Atoi(strings.TrimSpace(parts[2]))
	if err1 != nil || err2 != nil || err3 != nil {
		return time.Time{}, false
	}
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, loc), true
}

func cell(row models.RawRow, idx int) string {
	if idx < 0 || idx >= len(row) || row[idx] == nil {
		return ""
	}
	switch v := row[idx].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	default:
		return fmt.Sprint(v)
	}
}

var leadingNumber = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)`)

// cleanNumber drops thousands separators and spacing and turns a decimal
// comma into a point, the way the sheet renders "1 234,50".
func cleanNumber(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\u00a0', '\u202f':
			return -1
		}
		return r
	}, s)
	if strings.Contains(s, ",") {
		if strings.Contains(s, ".") {
			s = strings.ReplaceAll(s, ",", "")
		} else if strings.Count(s, ",") == 1 && !thousandsGroup(s) {
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	}
	return s
}

// thousandsGroup reports whether the single comma in s splits "1,234"
// rather than marking decimals as in "0,125".
func thousandsGroup(s string) bool {
	i := strings.Index(s, ",")
	if len(s)-i != 4 {
		return false
	}
	head := strings.TrimLeft(s[:i], "+-")
	return head != "" && head[0] != '0'
}

func parseLeadingFloat(raw string) (float64, string) {
	m := leadingNumber.FindString(cleanNumber(raw))
	if m == "" {
		return 0, "unparseable"
	}
	v, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0, "unparseable"
	}
	if v < 0 {
		return 0, "negative"
	}
	return v, ""
}

func parseLeadingInt(raw string) (int, string) {
	v, reason := parseLeadingFloat(raw)
	if reason != "" {
		return 0, reason
	}
	if v >= math.MaxInt32 {
		return 0, "out_of_range"
	}
	return int(v), ""
}
