package model

import (
	"database/sql"
	"time"
)

// Bill represents the current state of a tracked bill
type Bill struct {
	ID             int
	Billno         string // canonical designation, e.g. HB17
	Year           string // nmlegis year code, e.g. 24 or 24s2
	Chamber        string
	BillType       string
	Number         int
	Title          string
	Sponsor        string
	SponsorLink    string
	CurLoc         string // committee code, House, Senate or a decoded location
	CurLocLink     string
	ActionCode     string // raw action code from the bill page
	Status         string // text of the most recent action
	LastAction     string // one line summary from the decoder
	LastActionDate sql.NullTime
	ScheduledDate  sql.NullTime
	Checksum       string
	URL            string
	ContentsLink   string // bill text as introduced
	AmendLink      string // amendments in context, or a committee substitute
	FIRLink        string // fiscal impact report
	LESCLink       string // education committee analysis
	FetchedAt      time.Time
	CreatedAt      time.Time
}

// BillSnapshot records a bill whenever its action code changes
type BillSnapshot struct {
	ID           int
	Billno       string
	Year         string
	CurLoc       string
	ActionCode   string
	LastAction   string
	Checksum     string
	SnapshotDate time.Time
	CreatedAt    time.Time
}

// BillPage holds the fields parsed from a bill's page on nmlegis.gov
type BillPage struct {
	Title          string
	Sponsor        string
	SponsorLink    string
	CurLoc         string
	CurLocLink     string
	ActionCode     string
	Status         string
	LastActionDate sql.NullTime
	ScheduledDate  sql.NullTime
	ContentsLink   string
	AmendLink      string
	Checksum       string
}

// ListedBill is one row of a session's bill listing
type ListedBill struct {
	Billno string
	Title  string
	URL    string
}

// LocationCount is the number of bills sitting in one location
type LocationCount struct {
	CurLoc string
	Count  int
}

// SnapshotDay counts the bills that changed on one snapshot date
type SnapshotDay struct {
	Date    time.Time
	Changes int
}
