package templates

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/a-h/templ"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jjenkins/billtracker/internal/model"
)

func render(t *testing.T, c templ.Component) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, c.Render(context.Background(), &buf))
	return buf.String()
}

func TestBillsTableBodyEscapes(t *testing.T) {
	html := render(t, BillsTableBody([]model.Bill{{
		Billno: "SB3",
		Title:  `<script>alert("x")</script> & more`,
		CurLoc: "S???",
	}}))

	assert.NotContains(t, html, "<script>")
	assert.Contains(t, html, "&lt;script&gt;")
	assert.Contains(t, html, "&amp; more")
	assert.Contains(t, html, "Senate committee (not yet assigned)")
}

func TestBillsTableBodyEmpty(t *testing.T) {
	assert.Contains(t, render(t, BillsTableBody(nil)), "No bills.")
}

func TestBillsSortLinks(t *testing.T) {
	html := render(t, Bills(nil, "title", "asc"))
	assert.Contains(t, html, `hx-get="/bills?order=desc&amp;sort=title"`)
	assert.Contains(t, html, `hx-get="/bills?order=asc&amp;sort=sponsor"`)
}

func TestBillDetailDocuments(t *testing.T) {
	b := &model.Bill{
		Billno:       "HB17",
		Title:        "SCHOOL FUNDING",
		CurLoc:       "HJC",
		ContentsLink: "https://www.nmlegis.gov/Sessions/24%20Regular/bills/house/HB0017.HTML",
		AmendLink:    "https://www.nmlegis.gov/Sessions/24%20Regular/bills/house/HB0017HJCS1.pdf",
		LESCLink:     "https://www.nmlegis.gov/Sessions/24%20Regular/LESCAnalysis/HB0017.PDF",
	}
	html := render(t, BillDetail(BillView{Bill: b}))

	assert.Contains(t, html, `<ul class="documents"><li><a href="https://www.nmlegis.gov/Sessions/24%20Regular/bills/house/HB0017.HTML">Bill text</a></li>`)
	assert.Contains(t, html, ">Amendments</a>")
	assert.Contains(t, html, ">LESC analysis</a>")
	assert.NotContains(t, html, "Fiscal impact report")
	assert.NotContains(t, html, "nmlegis.gov page")
	assert.Contains(t, html, "<title>HB17 | NM Bill Tracker</title>")
}

func TestBillDetailNoDocuments(t *testing.T) {
	html := render(t, BillDetail(BillView{Bill: &model.Bill{Billno: "SB3"}}))
	assert.NotContains(t, html, `class="documents"`)
}

func TestHomeEmpty(t *testing.T) {
	html := render(t, Home(HomeMetrics{Year: "25"}))
	assert.Contains(t, html, "<title>Home | NM Bill Tracker</title>")
	assert.Contains(t, html, "No bills tracked yet")
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("closed") }

var _ io.Writer = failingWriter{}

func TestRenderReportsWriteError(t *testing.T) {
	err := History("24", nil).Render(context.Background(), failingWriter{})
	assert.Error(t, err)
}
