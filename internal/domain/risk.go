package domain

import "strings"

const (
	ReasonRecentHighFrequency = "recent high-frequency accidents"
	ReasonRecentFrequent      = "frequent recent accidents"
	ReasonRecentOccurred      = "recent accident occurred"
	ReasonLongTermAccumulated = "long-term accumulated accidents"
	ReasonPastFrequent        = "past accidents frequent"
	ReasonSevereDeterioration = "severe facility deterioration"
	ReasonDeterioration       = "facility deterioration"
	ReasonNoNotableFactors    = "no notable factors"
)

// Score classifies a region from its accumulated signals: 13 points or more
// is high risk, 4 or more moderate, anything less stable. Reasons are listed
// in component order (recent, historical, facility); a region that triggers
// nothing gets the single reason ReasonNoNotableFactors.
func Score(s RegionSummary) (RiskTrend, []string) {
	points := 0
	var reasons []string

	switch {
	case s.RecentAccidents >= 6:
		points += 10
		reasons = append(reasons, ReasonRecentHighFrequency)
	case s.RecentAccidents >= 3:
		points += 7
		reasons = append(reasons, ReasonRecentFrequent)
	case s.RecentAccidents > 0:
		points += 4
		reasons = append(reasons, ReasonRecentOccurred)
	}

	switch {
	case s.TotalAccidents >= 20:
		points += 10
		reasons = append(reasons, ReasonLongTermAccumulated)
	case s.TotalAccidents >= 13:
		points += 5
		reasons = append(reasons, ReasonPastFrequent)
	}

	switch {
	case strings.Contains(s.FacilityStatus, "D"):
		points += 10
		reasons = append(reasons, ReasonSevereDeterioration)
	case strings.Contains(s.FacilityStatus, "C"):
		points += 5
		reasons = append(reasons, ReasonDeterioration)
	}

	if len(reasons) == 0 {
		reasons = []string{ReasonNoNotableFactors}
	}
	trend := trendForPoints(points)
	// A high-frequency recent cluster is high risk on its own.
	if s.RecentAccidents >= 6 {
		trend = TrendHighRisk
	}
	return trend, reasons
}

func trendForPoints(points int) RiskTrend {
	switch {
	case points >= 13:
		return TrendHighRisk
	case points >= 4:
		return TrendModerate
	default:
		return TrendStable
	}
}
