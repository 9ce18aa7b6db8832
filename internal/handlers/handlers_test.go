package handlers

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jjenkins/billtracker/internal/model"
	"github.com/jjenkins/billtracker/internal/service"
)

type fakeStore struct {
	bills     []model.Bill
	snapshots []model.BillSnapshot
	days      []model.SnapshotDay
	locations []model.LocationCount
	err       error

	gotYear, gotSort, gotOrder string
}

func (f *fakeStore) GetAllSorted(ctx context.Context, year, sortBy, order string) ([]model.Bill, error) {
	f.gotYear, f.gotSort, f.gotOrder = year, sortBy, order
	return f.bills, f.err
}

func (f *fakeStore) GetByBillno(ctx context.Context, billno, year string) (*model.Bill, error) {
	f.gotYear = year
	if f.err != nil {
		return nil, f.err
	}
	for i := range f.bills {
		if f.bills[i].Billno == billno {
			return &f.bills[i], nil
		}
	}
	return nil, nil
}

func (f *fakeStore) GetSnapshots(ctx context.Context, billno, year string) ([]model.BillSnapshot, error) {
	return f.snapshots, nil
}

func (f *fakeStore) GetSnapshotDays(ctx context.Context, year string) ([]model.SnapshotDay, error) {
	f.gotYear = year
	return f.days, f.err
}

func (f *fakeStore) CountBills(ctx context.Context, year string) (int, error) {
	total := 0
	for _, lc := range f.locations {
		total += lc.Count
	}
	return total, f.err
}

func (f *fakeStore) CountByLocation(ctx context.Context, year string) ([]model.LocationCount, error) {
	return f.locations, f.err
}

func newApp(s *fakeStore) *fiber.App {
	app := fiber.New()
	app.Get("/", HomeHandler(service.NewMetricsService(s, nil), "24"))
	app.Get("/bills", BillsHandler(s, "24"))
	app.Get("/bills/:billno", BillDetailHandler(s, "24"))
	app.Get("/history", HistoryHandler(s, "24"))
	app.Get("/api/decode", DecodeHandler())
	return app
}

func get(t *testing.T, app *fiber.App, target string, headers ...string) (int, string) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func sampleBill() model.Bill {
	return model.Bill{
		Billno:     "HB17",
		Year:       "24",
		Title:      "SCHOOL FUNDING",
		Sponsor:    "Rep. Example",
		CurLoc:     "HJC",
		ActionCode: "HPREF [2] HCPAC/HJC-HCPAC [3] DNP-CS/DP-HJC [4] DP/a",
		LastAction: "Legislative Day 4: Do pass as amended",
		URL:        "https://www.nmlegis.gov/Legislation/Legislation?chamber=H&legtype=B&legno=17&year=24",
		FIRLink:    "https://www.nmlegis.gov/Sessions/24%20Regular/firs/HB0017.PDF",
		ScheduledDate: sql.NullTime{
			Time:  time.Date(2024, 2, 6, 0, 0, 0, 0, time.UTC),
			Valid: true,
		},
	}
}

func TestHomeHandler(t *testing.T) {
	s := &fakeStore{locations: []model.LocationCount{
		{CurLoc: "HJC", Count: 3},
		{CurLoc: "S", Count: 1},
	}}
	status, body := get(t, newApp(s), "/")
	assert.Equal(t, fiber.StatusOK, status)
	assert.Contains(t, body, "New Mexico Legislature 24")
	assert.Contains(t, body, "<dt>Bills tracked</dt><dd>4</dd>")
	assert.Contains(t, body, "House Judiciary (3)")
	assert.Contains(t, body, "Senate Floor")
}

func TestHomeHandlerEmpty(t *testing.T) {
	status, body := get(t, newApp(&fakeStore{}), "/")
	assert.Equal(t, fiber.StatusOK, status)
	assert.Contains(t, body, "No bills tracked yet")
}

func TestHomeHandlerStoreError(t *testing.T) {
	status, body := get(t, newApp(&fakeStore{err: errors.New("boom")}), "/")
	assert.Equal(t, fiber.StatusOK, status)
	assert.Contains(t, body, "No bills tracked yet")
}

func TestHomeHandlerBadYear(t *testing.T) {
	status, _ := get(t, newApp(&fakeStore{}), "/?year=nineteen")
	assert.Equal(t, fiber.StatusBadRequest, status)
}

func TestBillsHandler(t *testing.T) {
	s := &fakeStore{bills: []model.Bill{sampleBill()}}
	app := newApp(s)

	status, body := get(t, app, "/bills?sort=title&order=desc&year=2025")
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "25", s.gotYear)
	assert.Equal(t, "title", s.gotSort)
	assert.Equal(t, "desc", s.gotOrder)
	assert.Contains(t, body, "<!doctype html>")
	assert.Contains(t, body, `<tbody id="bills-body">`)
	assert.Contains(t, body, `<a href="/bills/HB17">HB17</a>`)
	assert.Contains(t, body, "House Judiciary")
}

func TestBillsHandlerHTMX(t *testing.T) {
	s := &fakeStore{bills: []model.Bill{sampleBill()}}
	status, body := get(t, newApp(s), "/bills", "HX-Request", "true")
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "billno", s.gotSort)
	assert.Equal(t, "asc", s.gotOrder)
	assert.NotContains(t, body, "<!doctype html>")
	assert.Contains(t, body, "SCHOOL FUNDING")
}

func TestBillsHandlerError(t *testing.T) {
	status, _ := get(t, newApp(&fakeStore{err: errors.New("boom")}), "/bills")
	assert.Equal(t, fiber.StatusInternalServerError, status)
}

func TestBillDetailHandler(t *testing.T) {
	s := &fakeStore{
		bills: []model.Bill{sampleBill()},
		snapshots: []model.BillSnapshot{{
			Billno:       "HB17",
			CurLoc:       "HJC",
			LastAction:   "Legislative Day 3: Sent to HJC",
			SnapshotDate: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
		}},
	}
	status, body := get(t, newApp(s), "/bills/hb17")
	assert.Equal(t, fiber.StatusOK, status)
	assert.Contains(t, body, "HB17: SCHOOL FUNDING")
	assert.Contains(t, body, "scheduled Feb 6, 2024")
	assert.Contains(t, body, "Sent to HCPAC")
	assert.Contains(t, body, "Do pass as amended")
	assert.Contains(t, body, `<li class="past">House Judiciary</li>`)
	assert.Contains(t, body, `<li class="future">Senate committee (not yet assigned)</li>`)
	assert.Contains(t, body, "2024-02-01")
	assert.Contains(t, body, `<a href="https://www.nmlegis.gov/Sessions/24%20Regular/firs/HB0017.PDF">Fiscal impact report</a>`)
	assert.NotContains(t, body, "LESC analysis")
}

func TestBillDetailHandlerNotFound(t *testing.T) {
	status, _ := get(t, newApp(&fakeStore{}), "/bills/SB9")
	assert.Equal(t, fiber.StatusNotFound, status)
}

func TestBillDetailHandlerBadBillno(t *testing.T) {
	status, _ := get(t, newApp(&fakeStore{}), "/bills/xyz")
	assert.Equal(t, fiber.StatusBadRequest, status)
}

func TestHistoryHandler(t *testing.T) {
	s := &fakeStore{days: []model.SnapshotDay{
		{Date: time.Date(2024, 2, 2, 0, 0, 0, 0, time.UTC), Changes: 12},
		{Date: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), Changes: 3},
	}}
	status, body := get(t, newApp(s), "/history")
	assert.Equal(t, fiber.StatusOK, status)
	assert.Contains(t, body, "Fri Feb 2, 2024</td><td>12")
	assert.Contains(t, body, "Thu Feb 1, 2024</td><td>3")
}

func TestDecodeHandler(t *testing.T) {
	app := newApp(&fakeStore{})

	status, body := get(t, app, "/api/decode?code=HPREF+%5B2%5D+HCPAC%2FHJC-HCPAC+%5B3%5D+DNP-CS%2FDP-HJC&billno=HB17")
	require.Equal(t, fiber.StatusOK, status)

	var resp struct {
		CurrentLocation string `json:"current_location"`
		LastAction      string `json:"last_action"`
		History         []struct {
			Day         int    `json:"day"`
			Description string `json:"description"`
		} `json:"history"`
		Projection *struct {
			Past   []string `json:"past"`
			Future []string `json:"future"`
		} `json:"projection"`
	}
	require.NoError(t, json.Unmarshal([]byte(body), &resp))
	assert.Equal(t, "HJC", resp.CurrentLocation)
	assert.Equal(t, "Legislative Day 3: Sent to HJC", resp.LastAction)
	assert.NotEmpty(t, resp.History)
	require.NotNil(t, resp.Projection)
	assert.Equal(t, []string{"HCPAC"}, resp.Projection.Past)
}

func TestDecodeHandlerWithoutBillno(t *testing.T) {
	status, body := get(t, newApp(&fakeStore{}), "/api/decode?code=%5B1%5D+HJC-HJC")
	assert.Equal(t, fiber.StatusOK, status)
	assert.NotContains(t, body, "projection")
}

func TestDecodeHandlerErrors(t *testing.T) {
	app := newApp(&fakeStore{})

	status, _ := get(t, app, "/api/decode")
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, body := get(t, app, "/api/decode?code=%5B1%5D+HJC-HJC&billno=XB1")
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Contains(t, body, "invalid bill designation")
}
