package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// Dataset identifies one of the four upstream feeds.
type Dataset string

const (
	DatasetRiskAssessment Dataset = "risk_assessment"
	DatasetAccident       Dataset = "accident"
	DatasetIncidentDetail Dataset = "incident_detail"
	DatasetFacilitySafety Dataset = "facility_safety"
)

// Datasets lists every feed in load order.
var Datasets = []Dataset{
	DatasetRiskAssessment,
	DatasetAccident,
	DatasetIncidentDetail,
	DatasetFacilitySafety,
}

// Envelope is the portal's response wrapper.
type Envelope struct {
	Header     EnvelopeHeader  `json:"header"`
	NumOfRows  Text            `json:"numOfRows"`
	PageNo     Text            `json:"pageNo"`
	TotalCount Text            `json:"totalCount"`
	Body       json.RawMessage `json:"body"`
}

// EnvelopeHeader carries the portal's result code.
type EnvelopeHeader struct {
	ResultCode Text `json:"resultCode"`
	ResultMsg  Text `json:"resultMsg"`
	ErrorMsg   Text `json:"errorMsg"`
}

// Normalize decodes a raw response payload into an ordered slice of T.
//
// The body may be absent, null, a single object or an array; a single object
// is lifted into a one-element slice. The returned slice is always usable.
// A non-nil error is a diagnostic describing what was dropped: an
// undecodable envelope, a body of unexpected shape, or individual array
// elements that failed to decode (the rest are kept).
func Normalize[T any](payload []byte) ([]T, error) {
	if len(bytes.TrimSpace(payload)) == 0 {
		return []T{}, errors.New("empty payload")
	}
	var env Envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return []T{}, fmt.Errorf("decode envelope: %w", err)
	}
	return NormalizeBody[T](env.Body)
}

// NormalizeBody applies the Normalize shape rules to an already extracted
// body value.
func NormalizeBody[T any](body json.RawMessage) ([]T, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 || bytes.Equal(body, []byte("null")) {
		return []T{}, nil
	}

	switch body[0] {
	case '{':
		var item T
		if err := json.Unmarshal(body, &item); err != nil {
			return []T{}, fmt.Errorf("decode body object: %w", err)
		}
		return []T{item}, nil
	case '[':
		var elems []json.RawMessage
		if err := json.Unmarshal(body, &elems); err != nil {
			return []T{}, fmt.Errorf("decode body array: %w", err)
		}
		items := make([]T, 0, len(elems))
		var errs []error
		for i, elem := range elems {
			var item T
			if err := json.Unmarshal(elem, &item); err != nil {
				errs = append(errs, fmt.Errorf("body[%d]: %w", i, err))
				continue
			}
			items = append(items, item)
		}
		return items, errors.Join(errs...)
	default:
		return []T{}, fmt.Errorf("unexpected body shape starting with %q", body[0])
	}
}
