// Package mapsync places geo-located annotations for subsidence records on a
// map surface and enforces that at most one popup is open at a time.
//
// Incident-detail records carry coordinates and are placed synchronously.
// Facility and accident records carry free-text addresses and are placed
// when their geocoding lookups complete, in whatever order the network
// delivers them. Every Sync starts a new generation; completions from an
// older generation are dropped. Popups only change state through
// Synchronizer.Click, so no lookup can ever open one.
package mapsync

import (
	"fmt"
	"strings"

	"github.com/couchcryptid/sinkhole-risk/internal/domain"
)

// Kind is the dataset an annotation was built from.
type Kind string

const (
	KindIncidentDetail Kind = "incident_detail"
	KindFacility       Kind = "facility"
	KindAccident       Kind = "accident"
)

// MarkerID identifies a marker within one generation of the map.
type MarkerID string

// Annotation is one marker and its popup.
type Annotation struct {
	ID           MarkerID `json:"id"`
	Kind         Kind     `json:"kind"`
	Title        string   `json:"title"`
	Lat          float64  `json:"lat"`
	Lon          float64  `json:"lon"`
	PopupContent string   `json:"popup_content"`
	Source       any      `json:"source,omitempty"`
}

func markerID(generation uint64, kind Kind, index int) MarkerID {
	return MarkerID(fmt.Sprintf("g%d-%s-%d", generation, kind, index))
}

func incidentAnnotation(r domain.IncidentDetailRecord, lat, lon float64) Annotation {
	return Annotation{
		Kind:  KindIncidentDetail,
		Title: "[Subsidence detail] " + string(r.DetailLocation),
		Lat:   lat,
		Lon:   lon,
		PopupContent: lines(
			"Location: "+domain.RegionKeyOfIncident(r),
			"Occurred: "+string(r.OccurrenceDate),
			"Repair status: "+string(r.RepairStatus),
			"Repair method: "+string(r.RepairMethod),
			"Repair cost: "+string(r.RepairCost)+" won",
			"Repair completed: "+string(r.RepairCompletionDate),
		),
		Source: r,
	}
}

func facilityAnnotation(r domain.FacilitySafetyRecord) Annotation {
	return Annotation{
		Kind:  KindFacility,
		Title: "[Facility] " + string(r.FacilityName),
		PopupContent: lines(
			string(r.FacilityName),
			"Location: "+string(r.Address),
			"Status grade: "+string(r.StatusGrade),
			"Last inspection: "+string(r.RecentInspectionDate),
			"Facility kind: "+string(r.FacilityKind),
		),
		Source: r,
	}
}

func accidentAnnotation(r domain.AccidentRecord) Annotation {
	return Annotation{
		Kind:  KindAccident,
		Title: "[Subsidence accident] " + string(r.CauseDescription),
		PopupContent: lines(
			"Subsidence accident",
			"Region: "+r.Address(),
			"Occurred: "+string(r.OccurrenceDate),
			"Cause: "+string(r.CauseDescription),
		),
		Source: r,
	}
}

func lines(parts ...string) string {
	return strings.Join(parts, "\n")
}
