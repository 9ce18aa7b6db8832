// Package templates renders the billtracker HTML pages. The markup lives
// in the .templ files; run `templ generate` after editing them.
package templates

import (
	"net/url"

	"github.com/a-h/templ"

	"github.com/jjenkins/billtracker/internal/decode"
	"github.com/jjenkins/billtracker/internal/model"
)

// HomeMetrics is the data shown on the dashboard
type HomeMetrics struct {
	Year            string
	HasData         bool
	TotalBills      int
	InCommittee     int
	OnFloor         int
	Signed          int
	BusiestLocation string
	BusiestCount    int
	ByLocation      []model.LocationCount
}

// BillView is everything the bill detail page shows
type BillView struct {
	Bill      *model.Bill
	History   []decode.HistoryEntry
	Past      []string
	Future    []string
	Warnings  []string
	Snapshots []model.BillSnapshot
}

var billColumns = []struct {
	key, label string
}{
	{"billno", "Bill"},
	{"title", "Title"},
	{"sponsor", "Sponsor"},
	{"location", "Location"},
	{"updated", "Last action"},
}

// sortPath is the list URL that sorts by key, flipping the order when the
// list is already sorted by it
func sortPath(key, sortBy, order string) string {
	next := "asc"
	if key == sortBy && order != "desc" {
		next = "desc"
	}
	return "/bills?" + url.Values{"sort": {key}, "order": {next}}.Encode()
}

func billPath(billno string) templ.SafeURL {
	return templ.URL("/bills/" + url.PathEscape(billno))
}

type docLink struct {
	label string
	url   string
}

// documents lists the bill's pages and reports that nmlegis.gov has
func documents(b *model.Bill) []docLink {
	var links []docLink
	for _, l := range []docLink{
		{"nmlegis.gov page", b.URL},
		{"Bill text", b.ContentsLink},
		{"Amendments", b.AmendLink},
		{"Fiscal impact report", b.FIRLink},
		{"LESC analysis", b.LESCLink},
	} {
		if l.url != "" {
			links = append(links, l)
		}
	}
	return links
}
