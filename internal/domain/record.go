package domain

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// Text is a string field that also accepts JSON numbers, booleans and null,
// since the portal is inconsistent about quoting.
type Text string

// UnmarshalJSON decodes any JSON scalar into its textual form. Objects and
// arrays decode to the empty string rather than failing the whole record.
func (t *Text) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*t = ""
		return nil
	}
	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = Text(s)
	case '{', '[':
		*t = ""
	default:
		*t = Text(data)
	}
	return nil
}

func (t Text) String() string { return string(t) }

// RiskAssessmentRecord is one ground-subsidence risk evaluation (DSSP-IF-00752).
type RiskAssessmentRecord struct {
	RegionUnitCode Text `json:"SENU"`
	EvaluationID   Text `json:"EVL_NO"`
	EvaluationName Text `json:"EVL_NM"`
}

// AccidentRecord is one entry of the ground-subsidence accident list (DSSP-IF-00754).
type AccidentRecord struct {
	ID               Text `json:"ACDNT_NO"`
	Province         Text `json:"CTPV"`
	District         Text `json:"SGG"`
	CauseDescription Text `json:"DTL_OCRN_CS"`
	OccurrenceDate   Text `json:"OCRN_YMD"`
	RegionUnitCode   Text `json:"SENU"`
}

// Address is the free-text query used to geocode an accident.
func (r AccidentRecord) Address() string {
	return string(r.Province) + " " + string(r.District)
}

// Dimensions of a subsidence pit in metres, as reported.
type Dimensions struct {
	Width  Text `json:"OCRN_SCL_WDTH"`
	Length Text `json:"OCRN_SCL_PRLG"`
	Depth  Text `json:"OCRN_SCL_DPTH"`
}

// IncidentDetailRecord is one detailed subsidence incident (DSSP-IF-20608).
type IncidentDetailRecord struct {
	ProvinceName   Text `json:"CTPV_NM"`
	DistrictName   Text `json:"SGG_NM"`
	DetailLocation Text `json:"GROU_SBSDC_RGN_DTL_INFO"`
	Latitude       Text `json:"LAT"`
	Longitude      Text `json:"LOT"`
	OccurrenceDate Text `json:"OCRN_YMD"`
	Dimensions
	CauseCategory        Text `json:"OCRN_RGN_NOSO_KND_NM"`
	FirstCause           Text `json:"FRST_OCRN_CS"`
	Deaths               Text `json:"DAM_DCSD_CNT"`
	Injuries             Text `json:"DAM_INJPSN_CNT"`
	VehicleDamageCount   Text `json:"DAM_VHCL_CNTOM"`
	RepairStatus         Text `json:"RSTR_STTS_NM"`
	RepairMethod         Text `json:"RSTR_MTHD"`
	RepairCost           Text `json:"RSTR_CST"`
	RepairCompletionDate Text `json:"RSTR_CMPTN_YMD"`
	RegistrationDate     Text `json:"DTIN_CRTR_YMD"`
}

// HasKnownLocation reports whether the record can be placed on a map. The
// portal uses the literal "0" for an unknown latitude or longitude.
func (r IncidentDetailRecord) HasKnownLocation() bool {
	return strings.TrimSpace(string(r.Latitude)) != "0" && strings.TrimSpace(string(r.Longitude)) != "0"
}

// Coordinates parses the record's latitude and longitude. ok is false when
// the location is unknown or either value is not a number.
func (r IncidentDetailRecord) Coordinates() (lat, lon float64, ok bool) {
	if !r.HasKnownLocation() {
		return 0, 0, false
	}
	lat, errLat := strconv.ParseFloat(strings.TrimSpace(string(r.Latitude)), 64)
	lon, errLon := strconv.ParseFloat(strings.TrimSpace(string(r.Longitude)), 64)
	if errLat != nil || errLon != nil {
		return 0, 0, false
	}
	return lat, lon, true
}

// FacilitySafetyRecord is one water/sewer facility safety entry (DSSP-IF-00762).
type FacilitySafetyRecord struct {
	FacilityID           Text `json:"FCLTY_NO"`
	FacilityName         Text `json:"FCLTY_NM"`
	FacilityTypeName     Text `json:"FCLTY_SE_NM"`
	FacilityKind         Text `json:"FCLTY_KND"`
	FacilityAge          Text `json:"FCLTY_ASRT"`
	StatusGrade          Text `json:"STTS_GRD_NM"`
	RecentInspectionDate Text `json:"RCNT_CHCK_DGNS_DAY"`
	NextInspectionDate   Text `json:"NETE_CHCK_DGNS_DAY"`
	Address              Text `json:"PSTN"`
	OverviewPhoto        Text `json:"FRVI_PHOTO"`
	FrontPhoto           Text `json:"FRNT_SIDE_ETC_PHOTO"`
	InstallInfo          Text `json:"GAAD_INST"`
	Spec                 Text `json:"FCLTY_MAIN_SPCFC"`
	CompletionDate       Text `json:"CMCN_DAY"`
}

// Photos returns the non-empty photo references of the facility.
func (r FacilitySafetyRecord) Photos() []string {
	var photos []string
	for _, p := range []Text{r.OverviewPhoto, r.FrontPhoto} {
		if s := strings.TrimSpace(string(p)); s != "" {
			photos = append(photos, s)
		}
	}
	return photos
}

// parseYear extracts the year from a YYYYMMDD date. Returns 0 when the first
// four characters are not an integer.
func parseYear(date Text) int {
	s := strings.TrimSpace(string(date))
	if len(s) < 4 {
		return 0
	}
	year, err := strconv.Atoi(s[:4])
	if err != nil {
		return 0
	}
	return year
}

// parseCost reads the leading digits of a won amount and ignores the rest,
// so "1,500" is 1. Anything without leading digits is 0.
func parseCost(cost Text) int64 {
	s := strings.TrimSpace(string(cost))
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0
	}
	v, err := strconv.ParseInt(s[:end], 10, 64)
	if err != nil {
		return 0
	}
	return v
}
