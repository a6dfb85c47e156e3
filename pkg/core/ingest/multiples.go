// Package ingest parses published comparable-company and precedent-deal
// sheets into peer multiples. Analysts usually receive these as HTML tables
// (data-room exports, broker research pages); goquery handles the traversal.
package ingest

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"dealintel/pkg/core/valuation"
)

// Recognized column headers, lowercased. Sheets vary; match loosely.
var (
	nameHeaders      = []string{"company", "name", "target", "peer"}
	evRevenueHeaders = []string{"ev/revenue", "ev/rev", "ev/sales"}
	evEBITDAHeaders  = []string{"ev/ebitda"}
)

// ParseMultiplesHTML extracts peer multiples from the first HTML table whose
// header row carries at least one recognized multiple column. Rows without a
// single usable multiple are dropped.
func ParseMultiplesHTML(html string) ([]valuation.PeerMultiple, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse comp sheet: %w", err)
	}

	var peers []valuation.PeerMultiple
	doc.Find("table").EachWithBreak(func(_ int, table *goquery.Selection) bool {
		cols := headerColumns(table)
		if cols.evRevenue < 0 && cols.evEBITDA < 0 {
			return true // not a multiples table, keep looking
		}

		table.Find("tr").Each(func(i int, row *goquery.Selection) {
			if i == 0 {
				return // header
			}
			cells := row.Find("td")
			if cells.Length() == 0 {
				return
			}
			peer := valuation.PeerMultiple{Name: cellText(cells, cols.name)}
			peer.EVRevenue = parseMultiple(cellText(cells, cols.evRevenue))
			peer.EVEBITDA = parseMultiple(cellText(cells, cols.evEBITDA))
			if peer.EVRevenue > 0 || peer.EVEBITDA > 0 {
				peers = append(peers, peer)
			}
		})
		return false // first matching table wins
	})

	if len(peers) == 0 {
		return nil, fmt.Errorf("no peer multiples found in document")
	}
	return peers, nil
}

type columnIndexes struct {
	name      int
	evRevenue int
	evEBITDA  int
}

func headerColumns(table *goquery.Selection) columnIndexes {
	cols := columnIndexes{name: -1, evRevenue: -1, evEBITDA: -1}
	table.Find("tr").First().Find("th, td").Each(func(i int, cell *goquery.Selection) {
		h := strings.ToLower(strings.TrimSpace(cell.Text()))
		switch {
		case cols.name < 0 && matchesAny(h, nameHeaders):
			cols.name = i
		case cols.evRevenue < 0 && matchesAny(h, evRevenueHeaders):
			cols.evRevenue = i
		case cols.evEBITDA < 0 && matchesAny(h, evEBITDAHeaders):
			cols.evEBITDA = i
		}
	})
	return cols
}

func matchesAny(header string, candidates []string) bool {
	for _, c := range candidates {
		if strings.Contains(header, c) {
			return true
		}
	}
	return false
}

func cellText(cells *goquery.Selection, idx int) string {
	if idx < 0 || idx >= cells.Length() {
		return ""
	}
	return strings.TrimSpace(cells.Eq(idx).Text())
}

// parseMultiple reads "9.0x", "9,0", "9.0" forms. Returns 0 when absent or
// unparseable, which downstream treats as a missing multiple.
func parseMultiple(raw string) float64 {
	s := strings.ToLower(strings.TrimSpace(raw))
	s = strings.TrimSuffix(s, "x")
	s = strings.ReplaceAll(s, ",", ".")
	s = strings.TrimSpace(s)
	if s == "" || s == "-" || s == "n/a" || s == "nm" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v < 0 {
		return 0
	}
	return v
}
