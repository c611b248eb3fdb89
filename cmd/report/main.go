// Command report builds the region risk table from saved dataset responses
// without starting the service.
//
// Usage:
//
//	go run ./cmd/report \
//	  -accidents testdata/accidents.json \
//	  -incidents testdata/incidents.json \
//	  -facilities testdata/facilities.json \
//	  -year 2026 -q Seoul
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/sinkhole-risk/internal/domain"
	"github.com/couchcryptid/sinkhole-risk/internal/pipeline"
)

type options struct {
	accidents  string
	incidents  string
	facilities string
	year       int
	query      string
	format     string
}

func main() {
	var opts options
	flag.StringVar(&opts.accidents, "accidents", "", "path to an accident list response (DSSP-IF-00754)")
	flag.StringVar(&opts.incidents, "incidents", "", "path to an incident detail response (DSSP-IF-20608)")
	flag.StringVar(&opts.facilities, "facilities", "", "path to a facility safety response (DSSP-IF-00762)")
	flag.IntVar(&opts.year, "year", 0, "evaluation year for the recency window (default: current year)")
	flag.StringVar(&opts.query, "q", "", "only show regions whose key contains this substring")
	flag.StringVar(&opts.format, "format", "table", "output format: table or json")
	flag.Parse()

	if opts.accidents == "" && opts.incidents == "" {
		flag.Usage()
		os.Exit(1)
	}

	if code := run(opts, os.Stdout, os.Stderr); code != 0 {
		os.Exit(code)
	}
}

func run(opts options, stdout, stderr io.Writer) int {
	if opts.year > 0 {
		domain.SetClock(clockwork.NewFakeClockAt(time.Date(opts.year, time.July, 1, 0, 0, 0, 0, time.UTC)))
		defer domain.SetClock(nil)
	}

	pages := make(map[domain.Dataset][][]byte)
	for ds, path := range map[domain.Dataset]string{
		domain.DatasetAccident:       opts.accidents,
		domain.DatasetIncidentDetail: opts.incidents,
		domain.DatasetFacilitySafety: opts.facilities,
	} {
		if path == "" {
			continue
		}
		data, err := os.ReadFile(path)
		if err != nil {
			fmt.Fprintf(stderr, "read %s: %v\n", ds, err)
			return 1
		}
		pages[ds] = [][]byte{data}
	}

	records := pipeline.Decode(pages, func(ds domain.Dataset, err error) {
		fmt.Fprintf(stderr, "warning: %s: %v\n", ds, err)
	})
	regions := domain.Aggregate(records.Accidents, records.Incidents, records.Facilities, domain.CurrentYear())
	domain.ScoreAll(regions)
	summaries := domain.FilterSummaries(domain.SortedSummaries(regions), opts.query)

	switch opts.format {
	case "json":
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(summaries); err != nil {
			fmt.Fprintf(stderr, "encode: %v\n", err)
			return 1
		}
	case "table":
		writeTable(stdout, summaries)
	default:
		fmt.Fprintf(stderr, "unknown format %q\n", opts.format)
		return 2
	}
	return 0
}

func writeTable(w io.Writer, summaries []domain.RegionSummary) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "REGION\tTOTAL\tRECENT\tFACILITY\tTREND\tREPAIR COST\tREASONS")
	for _, s := range summaries {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%s\t%s\t%d\t%s\n",
			s.Region, s.TotalAccidents, s.RecentAccidents, s.FacilityStatus,
			s.RiskTrend, s.TotalRepairCost, strings.Join(s.RiskReasons, ", "))
	}
	tw.Flush() //nolint:errcheck // best-effort terminal output
}
