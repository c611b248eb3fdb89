package domain

import (
	"cmp"
	"slices"
	"strings"
)

// RecencyWindowYears is the trailing window, inclusive, in which an
// accident counts as recent.
const RecencyWindowYears = 3

// StatusUnconfirmed is the facility status of a region no facility matched.
const StatusUnconfirmed = "unconfirmed"

// RiskTrend is the risk classification of a region.
type RiskTrend string

const (
	TrendStable     RiskTrend = "stable"
	TrendModerate   RiskTrend = "moderate"
	TrendIncreasing RiskTrend = "increasing"
	TrendHighRisk   RiskTrend = "high-risk"
	TrendUncertain  RiskTrend = "uncertain"
)

// RegionSummary accumulates the signals of one region during a load cycle.
// Counters only ever increase while folding.
type RegionSummary struct {
	Region          string    `json:"region"`
	TotalAccidents  int       `json:"total_accidents"`
	RecentAccidents int       `json:"recent_accidents"`
	FacilityStatus  string    `json:"facility_status"`
	RiskTrend       RiskTrend `json:"risk_trend"`
	RiskReasons     []string  `json:"risk_reasons"`
	TotalRepairCost int64     `json:"total_repair_cost"`
	AccidentYears   []int     `json:"accident_years"`
}

func newRegionSummary(region string) *RegionSummary {
	return &RegionSummary{
		Region:         region,
		FacilityStatus: StatusUnconfirmed,
		RiskTrend:      TrendUncertain,
		RiskReasons:    []string{},
		AccidentYears:  []int{},
	}
}

// Aggregator folds the datasets into region summaries.
type Aggregator struct {
	matcher RegionMatcher
}

// NewAggregator creates an Aggregator. Pass nil to use ContainmentResolver.
func NewAggregator(matcher RegionMatcher) *Aggregator {
	if matcher == nil {
		matcher = ContainmentResolver{}
	}
	return &Aggregator{matcher: matcher}
}

// Aggregate folds the datasets with the default containment matcher.
func Aggregate(accidents []AccidentRecord, incidents []IncidentDetailRecord, facilities []FacilitySafetyRecord, nowYear int) map[string]*RegionSummary {
	return NewAggregator(nil).Aggregate(accidents, incidents, facilities, nowYear)
}

// Aggregate runs the two phases of a load cycle: it builds every region from
// accidents and incident details, then overlays facility status onto the
// regions that exist at that point. A facility never creates a region.
// Summaries are returned unscored; see ScoreAll.
func (a *Aggregator) Aggregate(accidents []AccidentRecord, incidents []IncidentDetailRecord, facilities []FacilitySafetyRecord, nowYear int) map[string]*RegionSummary {
	regions := make(map[string]*RegionSummary)
	a.AddAccidents(regions, accidents, nowYear)
	a.AddIncidents(regions, incidents, nowYear)
	a.ApplyFacilities(regions, facilities)
	return regions
}

// AddAccidents folds accident records into regions, creating summaries on
// first encounter of a region key.
func (a *Aggregator) AddAccidents(regions map[string]*RegionSummary, accidents []AccidentRecord, nowYear int) {
	for _, r := range accidents {
		s := summaryFor(regions, RegionKeyOfAccident(r))
		countAccident(s, parseYear(r.OccurrenceDate), nowYear)
	}
}

// AddIncidents folds incident-detail records into regions. Repair costs only
// accumulate for incidents inside the recency window.
func (a *Aggregator) AddIncidents(regions map[string]*RegionSummary, incidents []IncidentDetailRecord, nowYear int) {
	for _, r := range incidents {
		s := summaryFor(regions, RegionKeyOfIncident(r))
		if countAccident(s, parseYear(r.OccurrenceDate), nowYear) {
			s.TotalRepairCost += parseCost(r.RepairCost)
		}
	}
}

// ApplyFacilities overwrites the facility status of every known region the
// matcher accepts. When several facilities match one region, the last in
// iteration order wins.
func (a *Aggregator) ApplyFacilities(regions map[string]*RegionSummary, facilities []FacilitySafetyRecord) {
	for _, f := range facilities {
		status := strings.TrimSpace(string(f.StatusGrade))
		if status == "" {
			status = StatusUnconfirmed
		}
		for key, s := range regions {
			if a.matcher.Matches(key, f) {
				s.FacilityStatus = status
			}
		}
	}
}

func summaryFor(regions map[string]*RegionSummary, key string) *RegionSummary {
	s, ok := regions[key]
	if !ok {
		s = newRegionSummary(key)
		regions[key] = s
	}
	return s
}

// countAccident records one accident and reports whether it is recent.
func countAccident(s *RegionSummary, year, nowYear int) bool {
	s.TotalAccidents++
	s.AccidentYears = append(s.AccidentYears, year)
	if nowYear-year <= RecencyWindowYears {
		s.RecentAccidents++
		return true
	}
	return false
}

// ScoreAll classifies every summary in place.
func ScoreAll(regions map[string]*RegionSummary) {
	for _, s := range regions {
		s.RiskTrend, s.RiskReasons = Score(*s)
	}
}

// SortedSummaries returns the summaries ordered by total accidents,
// descending, with ties broken by region key.
func SortedSummaries(regions map[string]*RegionSummary) []RegionSummary {
	out := make([]RegionSummary, 0, len(regions))
	for _, s := range regions {
		out = append(out, *s)
	}
	slices.SortStableFunc(out, func(a, b RegionSummary) int {
		if c := cmp.Compare(b.TotalAccidents, a.TotalAccidents); c != 0 {
			return c
		}
		return strings.Compare(a.Region, b.Region)
	})
	return out
}

// FilterSummaries keeps the summaries whose region key contains query.
// An empty query keeps everything.
func FilterSummaries(summaries []RegionSummary, query string) []RegionSummary {
	if query == "" {
		return summaries
	}
	out := make([]RegionSummary, 0, len(summaries))
	for _, s := range summaries {
		if strings.Contains(s.Region, query) {
			out = append(out, s)
		}
	}
	return out
}
