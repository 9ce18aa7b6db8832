package service

import (
	"bytes"
	"crypto/md5"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"slices"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/jjenkins/billtracker/internal/model"
)

// ErrNoBillPage means the page has no bill on it, usually an error page
var ErrNoBillPage = errors.New("page has no bill title")

// ErrNoBillList means a session listing had no bills in it
var ErrNoBillList = errors.New("page has no bill listing")

const (
	idTitle    = "MainContent_formViewLegislation_lblTitle"
	idSponsor  = "MainContent_formViewLegislation_linkSponsor"
	idLocation = "MainContent_formViewLegislation_linkLocation"
	idActions  = "MainContent_tabContainerLegislation_tabPanelActions_dataListActions"
	idContents = "MainContent_formViewLegislationTextIntroduced_linkLegislationTextIntroducedHTML"
	idAmends   = "MainContent_formViewAmendmentsInContext_linkAmendmentsInContext"

	substitutePrefix = "MainContent_dataListLegislationCommitteeSubstitutes_linkSubstitute"

	listBillPrefix  = "MainContent_gridViewLegislation_linkBillID"
	listTitlePrefix = "MainContent_gridViewLegislation_lblTitle"

	actionTextSuffix = "lblActionText"
	actionItemClass  = "list-group-item"
)

var (
	committeeCodePat = regexp.MustCompile(`CommitteeCode=([A-Za-z&]+)`)
	calendarDayPat   = regexp.MustCompile(`Calendar Day: (\d\d/\d\d/\d\d\d\d)`)
	scheduledForPat  = regexp.MustCompile(`^Scheduled for.*on ([0-9/]+)`)
)

// Parser extracts bill fields from nmlegis.gov bill pages
type Parser struct {
	base *url.URL
}

// NewParser creates a Parser that resolves relative links against baseURL
func NewParser(baseURL string) *Parser {
	base, err := url.Parse(strings.TrimRight(baseURL, "/") + "/Legislation/Legislation")
	if err != nil {
		base = &url.URL{}
	}
	return &Parser{base: base}
}

// pageNodes collects the elements of interest in one pass over the tree
type pageNodes struct {
	title, sponsor, location, actionText *html.Node
	contents, amends, substitute         *html.Node
	actionTable                          *html.Node
	items                                []*html.Node
}

// Parse extracts the bill fields from a bill page
func (p *Parser) Parse(content []byte) (*model.BillPage, error) {
	doc, err := html.Parse(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("failed to parse bill page: %w", err)
	}

	var nodes pageNodes
	collect(doc, &nodes, false)

	if nodes.title == nil {
		return nil, ErrNoBillPage
	}

	page := &model.BillPage{
		Title: nodeText(nodes.title),
	}

	if nodes.sponsor != nil {
		page.Sponsor = nodeText(nodes.sponsor)
		page.SponsorLink = p.absLink(attr(nodes.sponsor, "href"))
	}

	if nodes.location != nil {
		href := attr(nodes.location, "href")
		text := nodeText(nodes.location)
		page.CurLoc = locationFrom(href, text)
		page.CurLocLink = p.absLink(href)

		if m := scheduledForPat.FindStringSubmatch(text); m != nil {
			page.ScheduledDate = parseDate(m[1])
		}
	}

	if nodes.contents != nil {
		page.ContentsLink = p.absLink(attr(nodes.contents, "href"))
	}
	// a committee substitute stands in when there are no amendments
	if nodes.amends != nil {
		page.AmendLink = p.absLink(attr(nodes.amends, "href"))
	} else if nodes.substitute != nil {
		page.AmendLink = p.absLink(attr(nodes.substitute, "href"))
	}

	if nodes.actionText != nil {
		page.ActionCode = nodeText(nodes.actionText)
	}

	if n := len(nodes.items); n > 0 {
		page.Status = nodeText(nodes.items[n-1])
		if m := calendarDayPat.FindStringSubmatch(page.Status); m != nil {
			page.LastActionDate = parseDate(m[1])
		}
	}

	page.Checksum = calculateChecksum(page.Title, page.CurLoc, page.ActionCode, page.Status)

	return page, nil
}

// ParseBillList extracts every bill in a session listing, in page order
func (p *Parser) ParseBillList(content []byte) ([]model.ListedBill, error) {
	doc, err := html.Parse(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("failed to parse bill list: %w", err)
	}

	var bills []model.ListedBill
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "tr" {
			link := findByIDPrefix(n, listBillPrefix)
			title := findByIDPrefix(n, listTitlePrefix)
			if link != nil && title != nil {
				bills = append(bills, model.ListedBill{
					Billno: strings.NewReplacer(" ", "", "*", "").Replace(nodeText(link)),
					Title:  nodeText(title),
					URL:    p.absLink(attr(link, "href")),
				})
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	if len(bills) == 0 {
		return nil, ErrNoBillList
	}
	return bills, nil
}

// collect walks the tree recording the interesting elements. Action items
// count only inside the actions table when the page has one.
func collect(n *html.Node, nodes *pageNodes, inActions bool) {
	if n.Type == html.ElementNode {
		id := attr(n, "id")
		switch {
		case id == idTitle:
			nodes.title = n
		case id == idSponsor:
			nodes.sponsor = n
		case id == idLocation:
			nodes.location = n
		case id == idContents:
			nodes.contents = n
		case id == idAmends:
			nodes.amends = n
		case strings.HasPrefix(id, substitutePrefix):
			if nodes.substitute == nil {
				nodes.substitute = n
			}
		case id == idActions:
			nodes.actionTable = n
			// items seen before the table belonged to something else
			nodes.items = nil
			inActions = true
		case strings.HasSuffix(id, actionTextSuffix):
			nodes.actionText = n
		}

		if hasClass(n, actionItemClass) && (inActions || nodes.actionTable == nil) {
			nodes.items = append(nodes.items, n)
		}
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collect(c, nodes, inActions)
	}
}

// locationFrom turns the location link into a committee code, House or
// Senate. An unlinked location is the link text; a link to anywhere else
// names no location.
func locationFrom(href, text string) string {
	if href == "" {
		return text
	}
	if m := committeeCodePat.FindStringSubmatch(href); m != nil {
		return strings.ToUpper(m[1])
	}
	if strings.Contains(href, "Floor_Calendar") {
		if strings.Contains(href, "/House/") {
			return "House"
		}
		return "Senate"
	}
	return ""
}

func (p *Parser) absLink(href string) string {
	if href == "" {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return p.base.ResolveReference(ref).String()
}

// findByIDPrefix returns the first element under n whose id starts with prefix
func findByIDPrefix(n *html.Node, prefix string) *html.Node {
	if n.Type == html.ElementNode && strings.HasPrefix(attr(n, "id"), prefix) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findByIDPrefix(c, prefix); found != nil {
			return found
		}
	}
	return nil
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hasClass(n *html.Node, class string) bool {
	return slices.Contains(strings.Fields(attr(n, "class")), class)
}

// nodeText returns the text under n with whitespace collapsed
func nodeText(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			sb.WriteString(n.Data)
		case html.ElementNode:
			if n.Data == "br" {
				sb.WriteString(" ")
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if n.Type == html.ElementNode && (n.Data == "div" || n.Data == "p" || n.Data == "strong") {
			sb.WriteString(" ")
		}
	}
	walk(n)
	return strings.Join(strings.Fields(sb.String()), " ")
}

func parseDate(s string) sql.NullTime {
	t, err := time.Parse("01/02/2006", s)
	if err != nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t, Valid: true}
}

// calculateChecksum computes MD5 hash of the tracked fields
func calculateChecksum(fields ...string) string {
	hash := md5.Sum([]byte(strings.Join(fields, "\x00")))
	return hex.EncodeToString(hash[:])
}
