// Package domain models Korean ground-subsidence (sinkhole) public data and
// the region-level risk summary derived from it.
//
// # Data Sources
//
// Four datasets are published by the national disaster-safety data portal
// (https://www.safetydata.go.kr). Each is an independently paginated JSON
// endpoint queried with serviceKey, pageNo, numOfRows and returnType=json:
//
//	DSSP-IF-00752  ground-subsidence risk evaluations  -> RiskAssessmentRecord
//	DSSP-IF-00754  ground-subsidence accident list     -> AccidentRecord
//	DSSP-IF-20608  ground-subsidence incident detail   -> IncidentDetailRecord
//	DSSP-IF-00762  water/sewer facility safety status  -> FacilitySafetyRecord
//
// # Envelope
//
// Responses carry the records under a "body" field which may be absent,
// null, a single object, or an array. [Normalize] lifts every shape into an
// ordered slice. It always returns a usable slice; its error is a diagnostic
// naming what was dropped, for the caller to log.
//
// # Field Conventions
//
// Dates are 8-digit YYYYMMDD strings ("20230517"). Coordinates are decimal
// strings where "0" means the location is unknown. Repair costs are won
// amounts that may be empty or trail a unit ("1500원"); only the leading
// digits count. Facility status grades are letter grades A through E, sometimes
// embedded in longer text ("C등급"). Upstream occasionally emits numbers in
// string fields; [Text] accepts both.
//
// # Region Keys
//
// Accident and incident-detail records name their area as a province field
// and a district field. The region key is the two joined by a single space,
// verbatim. Facility records only carry a free-text address; its first
// whitespace-delimited token is matched against region keys by substring
// containment. See [ContainmentResolver].
//
// # Risk Classification
//
// [Score] is an additive point system over recent accidents, historical
// accumulation and facility grade:
//
//	recent  >= 6: +10 | >= 3: +7 | > 0: +4
//	total   >= 20: +10 | >= 13: +5
//	grade   contains D: +10 | contains C: +5
//
//	score >= 13 high-risk | >= 4 moderate | else stable
//
// Six or more recent accidents make a region high-risk regardless of score.
package domain
