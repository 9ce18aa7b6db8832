package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jjenkins/billtracker/internal/bill"
	"github.com/jjenkins/billtracker/internal/cache"
	"github.com/jjenkins/billtracker/internal/config"
)

func testClientConfig(baseURL string) config.NMLegisConfig {
	cfg := config.DefaultConfig().NMLegis
	cfg.BaseURL = baseURL
	cfg.BackoffMillis = 1
	cfg.RequestDelayMS = 0
	return cfg
}

func mustParse(t *testing.T, billno string) bill.Designation {
	t.Helper()
	d, err := bill.Parse(billno)
	require.NoError(t, err)
	return d
}

func TestBillURL(t *testing.T) {
	c := NewNMLegisClient(testClientConfig("https://www.nmlegis.gov"), nil)
	assert.Equal(t,
		"https://www.nmlegis.gov/Legislation/Legislation?chamber=H&legtype=B&legno=17&year=24",
		c.BillURL(mustParse(t, "HB17"), "24"))
	assert.Equal(t,
		"https://www.nmlegis.gov/Legislation/Legislation?chamber=S&legtype=JM&legno=4&year=21s2",
		c.BillURL(mustParse(t, "SJM4"), "21s2"))
}

func TestFetchBillPageUsesCache(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		assert.Equal(t, "/Legislation/Legislation", r.URL.Path)
		assert.Equal(t, "17", r.URL.Query().Get("legno"))
		w.Write([]byte("<html>HB17</html>"))
	}))
	defer srv.Close()

	ctx := context.Background()
	pages := cache.NewMemory()
	c := NewNMLegisClient(testClientConfig(srv.URL), pages)
	d := mustParse(t, "HB17")

	body, err := c.FetchBillPage(ctx, d, "24")
	require.NoError(t, err)
	assert.Equal(t, "<html>HB17</html>", string(body))

	body, err = c.FetchBillPage(ctx, d, "24")
	require.NoError(t, err)
	assert.Equal(t, "<html>HB17</html>", string(body))
	assert.Equal(t, int32(1), hits.Load())

	require.NoError(t, c.Forget(ctx, d, "24"))
	_, err = c.FetchBillPage(ctx, d, "24")
	require.NoError(t, err)
	assert.Equal(t, int32(2), hits.Load())
}

func TestFetchBillPageRetries(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch hits.Add(1) {
		case 1:
			w.WriteHeader(http.StatusTooManyRequests)
		case 2:
			w.WriteHeader(http.StatusBadGateway)
		default:
			w.Write([]byte("ok"))
		}
	}))
	defer srv.Close()

	c := NewNMLegisClient(testClientConfig(srv.URL), nil)
	body, err := c.FetchBillPage(context.Background(), mustParse(t, "SB3"), "24")
	require.NoError(t, err)
	assert.Equal(t, "ok", string(body))
	assert.Equal(t, int32(3), hits.Load())
}

func TestFetchBillPageGivesUp(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	pages := cache.NewMemory()
	c := NewNMLegisClient(testClientConfig(srv.URL), pages)
	_, err := c.FetchBillPage(context.Background(), mustParse(t, "SB3"), "24")
	assert.ErrorContains(t, err, "failed after 3 attempts")
	assert.ErrorContains(t, err, "unexpected status code: 404")

	_, err = pages.Get(context.Background(), "24-SB3")
	assert.ErrorIs(t, err, cache.ErrMiss)
}

func TestFetchBillPageCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	cfg := testClientConfig(srv.URL)
	cfg.BackoffMillis = int(time.Hour / time.Millisecond)
	c := NewNMLegisClient(cfg, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := c.FetchBillPage(ctx, mustParse(t, "HB1"), "24")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestAnalysisLinks(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodHead, r.Method)
		switch r.URL.Path {
		case "/Sessions/24 Regular/firs/HB0017.PDF":
			w.Header().Set("Content-Type", "application/pdf")
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := NewNMLegisClient(testClientConfig(srv.URL), nil)
	fir, lesc, err := c.AnalysisLinks(context.Background(), mustParse(t, "HB17"), "24")
	require.NoError(t, err)
	assert.Equal(t, srv.URL+"/Sessions/24%20Regular/firs/HB0017.PDF", fir)
	assert.Empty(t, lesc)
}

func TestAnalysisLinksSpecialSession(t *testing.T) {
	c := NewNMLegisClient(testClientConfig("http://127.0.0.1:1"), nil)
	fir, lesc, err := c.AnalysisLinks(context.Background(), mustParse(t, "HB1"), "24s2")
	require.NoError(t, err)
	assert.Empty(t, fir)
	assert.Empty(t, lesc)
}

func TestAnalysisURLs(t *testing.T) {
	c := NewNMLegisClient(testClientConfig("https://www.nmlegis.gov"), nil)
	fir, lesc := c.AnalysisURLs(mustParse(t, "SJM4"), "25")
	assert.Equal(t, "https://www.nmlegis.gov/Sessions/25%20Regular/firs/SJM0004.PDF", fir)
	assert.Equal(t, "https://www.nmlegis.gov/Sessions/25%20Regular/LESCAnalysis/SJM0004.PDF", lesc)
}

func TestFetchBillList(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		assert.Equal(t, "/Legislation/Legislation_List", r.URL.Path)
		assert.Equal(t, "62", r.URL.Query().Get("Session"))
		w.Write([]byte("<html>list</html>"))
	}))
	defer srv.Close()

	ctx := context.Background()
	c := NewNMLegisClient(testClientConfig(srv.URL), cache.NewMemory())
	for range 2 {
		body, err := c.FetchBillList(ctx, "24")
		require.NoError(t, err)
		assert.Equal(t, "<html>list</html>", string(body))
	}
	assert.Equal(t, int32(1), hits.Load())

	_, err := c.FetchBillList(ctx, "24s2")
	assert.ErrorIs(t, err, bill.ErrBadYear)
}
