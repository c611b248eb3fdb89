package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/sinkhole-risk/internal/domain"
)

func writeFixture(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func fixtureOptions(t *testing.T) options {
	return options{
		accidents: writeFixture(t, "accidents.json", `{"body":[
			{"CTPV":"Seoul","SGG":"Jongno-gu","OCRN_YMD":"20250101"},
			{"CTPV":"Seoul","SGG":"Jongno-gu","OCRN_YMD":"20240101"},
			{"CTPV":"Busan","SGG":"Jung-gu","OCRN_YMD":"19990101"}
		]}`),
		incidents:  writeFixture(t, "incidents.json", `{"body":{"CTPV_NM":"Seoul","SGG_NM":"Jongno-gu","OCRN_YMD":"20250601","RSTR_CST":"5000"}}`),
		facilities: writeFixture(t, "facilities.json", `{"body":[{"PSTN":"Busan Jung-gu","STTS_GRD_NM":"C"}]}`),
		year:       2026,
		format:     "json",
	}
}

func TestRun_JSON(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run(fixtureOptions(t), &stdout, &stderr)
	require.Equal(t, 0, code, stderr.String())

	var summaries []domain.RegionSummary
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &summaries))
	require.Len(t, summaries, 2)

	assert.Equal(t, "Seoul Jongno-gu", summaries[0].Region)
	assert.Equal(t, 3, summaries[0].TotalAccidents)
	assert.Equal(t, 3, summaries[0].RecentAccidents)
	assert.Equal(t, int64(5000), summaries[0].TotalRepairCost)

	assert.Equal(t, "Busan Jung-gu", summaries[1].Region)
	assert.Equal(t, 0, summaries[1].RecentAccidents)
	assert.Equal(t, "C", summaries[1].FacilityStatus)
	assert.Equal(t, domain.TrendModerate, summaries[1].RiskTrend)
}

func TestRun_TableWithFilter(t *testing.T) {
	opts := fixtureOptions(t)
	opts.format = "table"
	opts.query = "Busan"

	var stdout, stderr bytes.Buffer
	require.Equal(t, 0, run(opts, &stdout, &stderr))

	out := stdout.String()
	assert.Contains(t, out, "REGION")
	assert.Contains(t, out, "Busan Jung-gu")
	assert.NotContains(t, out, "Jongno-gu")
}

func TestRun_MissingFile(t *testing.T) {
	opts := fixtureOptions(t)
	opts.incidents = filepath.Join(t.TempDir(), "missing.json")

	var stdout, stderr bytes.Buffer
	assert.Equal(t, 1, run(opts, &stdout, &stderr))
	assert.Contains(t, stderr.String(), "incident_detail")
}

func TestRun_MalformedPayloadWarns(t *testing.T) {
	opts := fixtureOptions(t)
	opts.facilities = writeFixture(t, "bad.json", `not json`)

	var stdout, stderr bytes.Buffer
	require.Equal(t, 0, run(opts, &stdout, &stderr))
	assert.Contains(t, stderr.String(), "warning: facility_safety")
}

func TestRun_UnknownFormat(t *testing.T) {
	opts := fixtureOptions(t)
	opts.format = "xml"

	var stdout, stderr bytes.Buffer
	assert.Equal(t, 2, run(opts, &stdout, &stderr))
}
