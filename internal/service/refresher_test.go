package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jjenkins/billtracker/internal/cache"
	"github.com/jjenkins/billtracker/internal/model"
)

type fakeSaver struct {
	mu        sync.Mutex
	bills     map[string]model.Bill
	checksums map[string]string
	err       error
}

func newFakeSaver() *fakeSaver {
	return &fakeSaver{bills: map[string]model.Bill{}, checksums: map[string]string{}}
}

func (f *fakeSaver) SaveBillWithSnapshot(ctx context.Context, b *model.Bill, snapshotDate time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return false, f.err
	}
	changed := f.checksums[b.Billno] != b.Checksum
	f.checksums[b.Billno] = b.Checksum
	f.bills[b.Billno] = *b
	return changed, nil
}

func billPageHTML(title, locHref, locText, actionCode string) string {
	return fmt.Sprintf(`<html><body>
<span id="MainContent_formViewLegislation_lblTitle">%s</span>
<a id="MainContent_formViewLegislation_linkSponsor" href="/Members/Legislator?SponCode=X">Sponsor</a>
<a id="MainContent_formViewLegislation_linkLocation" href="%s">%s</a>
<table id="MainContent_tabContainerLegislation_tabPanelActions_dataListActions">
<tr><td><span class="list-group-item">Calendar Day: 02/01/2024 latest</span></td></tr>
</table>
<span id="MainContent_tabContainerLegislation_tabPanelActions_formViewActionText_lblActionText">%s</span>
</body></html>`, title, locHref, locText, actionCode)
}

// legislature serves bill pages keyed by chamber+legtype+legno, and
// anything else keyed by path
func legislature(t *testing.T, pages map[string]string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// analysis reports and listings are keyed by path
		if strings.HasPrefix(r.URL.Path, "/Sessions/") || r.URL.Path == "/Legislation/Legislation_List" {
			page, ok := pages[r.URL.Path]
			if !ok {
				http.NotFound(w, r)
				return
			}
			w.Write([]byte(page))
			return
		}
		q := r.URL.Query()
		key := q.Get("chamber") + q.Get("legtype") + q.Get("legno")
		page, ok := pages[key]
		if !ok {
			page = "<html><body>Server Error</body></html>"
		}
		w.Write([]byte(page))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestRefresher(srvURL string, saver BillSaver, locker cache.Locker, reg *prometheus.Registry) (*Refresher, *bytes.Buffer) {
	client := NewNMLegisClient(testClientConfig(srvURL), cache.NewMemory())
	r := NewRefresher(client, NewParser(srvURL), saver, locker, 5*time.Minute, 3, NewMetrics(reg))
	warnings := &bytes.Buffer{}
	r.logger = log.New(io.Discard, "", 0)
	r.errLogger = log.New(io.Discard, "", 0)
	r.warnLogger = log.New(warnings, "WARNING: ", 0)
	r.now = func() time.Time { return time.Date(2024, 2, 1, 15, 30, 0, 0, time.UTC) }
	return r, warnings
}

func metricValue(t *testing.T, reg *prometheus.Registry, name string, labels map[string]string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
	metrics:
		for _, m := range mf.GetMetric() {
			for _, lp := range m.GetLabel() {
				if labels[lp.GetName()] != lp.GetValue() {
					continue metrics
				}
			}
			return m.GetCounter().GetValue() + m.GetGauge().GetValue()
		}
	}
	return 0
}

func TestRefresh(t *testing.T) {
	srv := legislature(t, map[string]string{
		"HB17": billPageHTML("SCHOOL FUNDING", "/Committee/Standing_Committee?CommitteeCode=HJC", "House Judiciary",
			"HPREF [2] HCPAC/HJC-HCPAC [3] DNP-CS/DP-HJC"),
		"SB3": billPageHTML("TAX CREDITS", "", "",
			"[2] HCPAC/hjc-HCPAC"),
		"/Sessions/24 Regular/firs/HB0017.PDF": "%PDF",
	})

	saver := newFakeSaver()
	reg := prometheus.NewRegistry()
	r, warnings := newTestRefresher(srv.URL, saver, cache.NewMemoryLocker(), reg)

	stats, err := r.Refresh(context.Background(), "24", []string{"HB17", "sb3", "HB404"})
	require.NoError(t, err)

	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, 2, stats.Refreshed)
	assert.Equal(t, 2, stats.Changed)
	assert.Equal(t, 1, stats.Failed)
	assert.Equal(t, 1, stats.Warnings)

	hb17 := saver.bills["HB17"]
	assert.Equal(t, "HJC", hb17.CurLoc)
	assert.Equal(t, "Legislative Day 3: Sent to HJC", hb17.LastAction)
	assert.Equal(t, "24", hb17.Year)
	assert.Equal(t, 17, hb17.Number)
	assert.Equal(t, srv.URL+"/Legislation/Legislation?chamber=H&legtype=B&legno=17&year=24", hb17.URL)
	assert.True(t, hb17.LastActionDate.Valid)
	assert.Equal(t, srv.URL+"/Sessions/24%20Regular/firs/HB0017.PDF", hb17.FIRLink)
	assert.Empty(t, hb17.LESCLink)
	assert.Empty(t, saver.bills["SB3"].FIRLink)

	// the page had no location, so the decoded one is used
	assert.Equal(t, "HCPAC", saver.bills["SB3"].CurLoc)
	assert.Contains(t, warnings.String(), "WARNING: SB3:")

	assert.Equal(t, 2.0, metricValue(t, reg, "billtracker_bills_refreshed_total", map[string]string{"result": "changed"}))
	assert.Equal(t, 1.0, metricValue(t, reg, "billtracker_bills_refreshed_total", map[string]string{"result": "failed"}))
	assert.Equal(t, 1.0, metricValue(t, reg, "billtracker_decode_warnings_total", nil))

	// second run is served from the page cache and changes nothing
	stats, err = r.Refresh(context.Background(), "24", []string{"HB17", "SB3"})
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Changed)
	assert.Equal(t, 2, stats.Unchanged)
}

func TestRefreshLocked(t *testing.T) {
	srv := legislature(t, nil)
	locker := cache.NewMemoryLocker()
	r, _ := newTestRefresher(srv.URL, newFakeSaver(), locker, prometheus.NewRegistry())

	unlock, err := locker.Lock(context.Background(), "refresh:24", time.Minute)
	require.NoError(t, err)

	_, err = r.Refresh(context.Background(), "24", []string{"HB1"})
	assert.ErrorIs(t, err, cache.ErrLocked)

	// another year is not blocked
	_, err = r.Refresh(context.Background(), "25", nil)
	assert.NoError(t, err)

	require.NoError(t, unlock(context.Background()))
	_, err = r.Refresh(context.Background(), "24", nil)
	assert.NoError(t, err)
}

func TestRefreshReleasesLock(t *testing.T) {
	srv := legislature(t, nil)
	locker := cache.NewMemoryLocker()
	r, _ := newTestRefresher(srv.URL, newFakeSaver(), locker, prometheus.NewRegistry())

	_, err := r.Refresh(context.Background(), "24", []string{"HB1"})
	require.NoError(t, err)

	unlock, err := locker.Lock(context.Background(), "refresh:24", time.Minute)
	require.NoError(t, err)
	require.NoError(t, unlock(context.Background()))
}

func TestRefreshOne(t *testing.T) {
	srv := legislature(t, map[string]string{
		"HM3": billPageHTML("MEMORIAL", "/Entity/House/Floor_Calendar", "House Floor", "[1] HJC-HJC [2] DP"),
	})
	saver := newFakeSaver()
	r, _ := newTestRefresher(srv.URL, saver, cache.NewMemoryLocker(), prometheus.NewRegistry())

	stats, err := r.RefreshOne(context.Background(), "24", "HM3")
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Changed)
	assert.Equal(t, "House", saver.bills["HM3"].CurLoc)

	_, err = r.RefreshOne(context.Background(), "24", "not a bill")
	assert.Error(t, err)
}

func TestRefreshSaveError(t *testing.T) {
	srv := legislature(t, map[string]string{
		"HB1": billPageHTML("X", "", "", "[1] HJC-HJC"),
	})
	saver := newFakeSaver()
	saver.err = fmt.Errorf("database is down")
	r, _ := newTestRefresher(srv.URL, saver, cache.NewMemoryLocker(), prometheus.NewRegistry())

	stats, err := r.Refresh(context.Background(), "24", []string{"HB1"})
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Failed)
	assert.Equal(t, 0, stats.Refreshed)
}

func TestListSession(t *testing.T) {
	srv := legislature(t, map[string]string{
		"/Legislation/Legislation_List": string(readFixture(t, "list.html")),
	})
	r, _ := newTestRefresher(srv.URL, newFakeSaver(), cache.NewMemoryLocker(), prometheus.NewRegistry())

	bills, err := r.ListSession(context.Background(), "19")
	require.NoError(t, err)
	require.Len(t, bills, 2)
	assert.Equal(t, "SJM4", bills[1].Billno)
	assert.Equal(t, srv.URL+"/Legislation/Legislation?chamber=S&legtype=JM&legno=4&year=19", bills[1].URL)

	_, err = r.ListSession(context.Background(), "19s1")
	assert.Error(t, err)
}

func TestMetricsServiceCalculate(t *testing.T) {
	reg := prometheus.NewRegistry()
	counts := fakeCounts{
		total: 9,
		byLoc: []model.LocationCount{
			{CurLoc: "HJC", Count: 4},
			{CurLoc: "Senate", Count: 2},
			{CurLoc: "SFC", Count: 1},
			{CurLoc: "SIGNED", Count: 1},
			{CurLoc: "", Count: 1},
		},
	}
	svc := NewMetricsService(counts, NewMetrics(reg))

	m, err := svc.Calculate(context.Background(), "24")
	require.NoError(t, err)
	assert.Equal(t, 9, m.TotalBills)
	assert.Equal(t, 5, m.InCommittee)
	assert.Equal(t, 2, m.OnFloor)
	assert.Equal(t, 1, m.Signed)
	assert.Equal(t, "HJC", m.BusiestLocation)
	assert.Equal(t, 4.0, metricValue(t, reg, "billtracker_bills", map[string]string{"location": "HJC"}))
}

type fakeCounts struct {
	total int
	byLoc []model.LocationCount
}

func (f fakeCounts) CountBills(context.Context, string) (int, error) { return f.total, nil }

func (f fakeCounts) CountByLocation(context.Context, string) ([]model.LocationCount, error) {
	return f.byLoc, nil
}
