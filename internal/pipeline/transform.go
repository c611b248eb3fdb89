package pipeline

import (
	"github.com/couchcryptid/sinkhole-risk/internal/domain"
	"github.com/couchcryptid/sinkhole-risk/internal/mapsync"
)

// Records holds the normalized records of one load cycle.
type Records struct {
	Evaluations []domain.RiskAssessmentRecord
	Accidents   []domain.AccidentRecord
	Incidents   []domain.IncidentDetailRecord
	Facilities  []domain.FacilitySafetyRecord
}

// Decode normalizes every fetched page. Diagnostics are reported through
// issue with the dataset they came from; records that did decode are kept.
func Decode(pages map[domain.Dataset][][]byte, issue func(domain.Dataset, error)) Records {
	return Records{
		Evaluations: decodePages[domain.RiskAssessmentRecord](domain.DatasetRiskAssessment, pages, issue),
		Accidents:   decodePages[domain.AccidentRecord](domain.DatasetAccident, pages, issue),
		Incidents:   decodePages[domain.IncidentDetailRecord](domain.DatasetIncidentDetail, pages, issue),
		Facilities:  decodePages[domain.FacilitySafetyRecord](domain.DatasetFacilitySafety, pages, issue),
	}
}

func decodePages[T any](ds domain.Dataset, pages map[domain.Dataset][][]byte, issue func(domain.Dataset, error)) []T {
	out := []T{}
	for _, payload := range pages[ds] {
		items, err := domain.Normalize[T](payload)
		if err != nil && issue != nil {
			issue(ds, err)
		}
		out = append(out, items...)
	}
	return out
}

// Count returns the number of records per dataset.
func (r Records) Count(ds domain.Dataset) int {
	switch ds {
	case domain.DatasetRiskAssessment:
		return len(r.Evaluations)
	case domain.DatasetAccident:
		return len(r.Accidents)
	case domain.DatasetIncidentDetail:
		return len(r.Incidents)
	case domain.DatasetFacilitySafety:
		return len(r.Facilities)
	}
	return 0
}

// MapBatch selects the records annotated on the map. Every incident detail
// is included; facilities and accidents are capped because each one costs
// a geocoding lookup. A non-positive limit means no cap.
func (r Records) MapBatch(facilityLimit, accidentLimit int) mapsync.Batch {
	return mapsync.Batch{
		Incidents:  r.Incidents,
		Facilities: head(r.Facilities, facilityLimit),
		Accidents:  head(r.Accidents, accidentLimit),
	}
}

func head[T any](items []T, n int) []T {
	if n <= 0 || len(items) <= n {
		return items
	}
	return items[:n]
}
