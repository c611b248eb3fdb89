package domain

import "strings"

// RegionKeyOfAccident joins province and district with a single space,
// preserving source casing and spacing.
func RegionKeyOfAccident(r AccidentRecord) string {
	return string(r.Province) + " " + string(r.District)
}

// RegionKeyOfIncident joins province and district names with a single space,
// preserving source casing and spacing.
func RegionKeyOfIncident(r IncidentDetailRecord) string {
	return string(r.ProvinceName) + " " + string(r.DistrictName)
}

// AddressPrefix returns the first whitespace-delimited token of a facility
// address, the province-level fragment used to match regions. Returns ""
// for a blank address.
func AddressPrefix(r FacilitySafetyRecord) string {
	fields := strings.Fields(string(r.Address))
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// RegionMatcher decides which known region keys a facility applies to.
type RegionMatcher interface {
	Matches(regionKey string, facility FacilitySafetyRecord) bool
}

// ContainmentResolver matches a facility to every region key that contains
// the facility's address prefix as a substring. The match is many-to-many:
// a short or common prefix fans out to every region that contains it.
type ContainmentResolver struct{}

// Matches implements RegionMatcher. A facility with a blank address matches
// nothing.
func (ContainmentResolver) Matches(regionKey string, facility FacilitySafetyRecord) bool {
	prefix := AddressPrefix(facility)
	if prefix == "" {
		return false
	}
	return strings.Contains(regionKey, prefix)
}
